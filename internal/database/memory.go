package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ngenohkevin/lending/internal/models"
	"github.com/ngenohkevin/lending/internal/services"
)

// MemoryStore keeps the library in process memory. Transactions stage their
// writes and validate the versions they read against the committed state at
// commit time, so concurrent writers see the same conflicts as with
// PostgreSQL.
type MemoryStore struct {
	mu         sync.Mutex
	books      *table[models.BookRecord]
	borrowers  *table[models.BorrowerRecord]
	borrowings *table[models.BorrowingRecord]
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:      newTable("book", func(r models.BookRecord) int32 { return r.Version }),
		borrowers:  newTable("borrower", func(r models.BorrowerRecord) int32 { return r.Version }),
		borrowings: newTable("borrowing", func(r models.BorrowingRecord) int32 { return r.Version }),
	}
}

func (s *MemoryStore) Books() services.BookStore           { return memoryBooks{s, nil} }
func (s *MemoryStore) Borrowers() services.BorrowerStore   { return memoryBorrowers{s, nil} }
func (s *MemoryStore) Borrowings() services.BorrowingStore { return memoryBorrowings{s, nil} }

// WithinTx runs fn against a staged view and commits it if fn succeeds.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx services.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.begin()
	if err := fn(ctx, memoryRepos{store: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

// Health always succeeds.
func (s *MemoryStore) Health(context.Context) error { return nil }

type memoryTx struct {
	books      *tableTx[models.BookRecord]
	borrowers  *tableTx[models.BorrowerRecord]
	borrowings *tableTx[models.BorrowingRecord]
}

func (s *MemoryStore) begin() *memoryTx {
	return &memoryTx{
		books:      s.books.begin(),
		borrowers:  s.borrowers.begin(),
		borrowings: s.borrowings.begin(),
	}
}

func (s *MemoryStore) commit(tx *memoryTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(tx)
}

func (s *MemoryStore) commitLocked(tx *memoryTx) error {
	for _, validate := range []func() error{tx.books.validate, tx.borrowers.validate, tx.borrowings.validate} {
		if err := validate(); err != nil {
			return err
		}
	}
	tx.books.apply()
	tx.borrowers.apply()
	tx.borrowings.apply()
	return nil
}

// run executes fn inside tx, or inside a fresh transaction committed right
// away when tx is nil.
func (s *MemoryStore) run(ctx context.Context, tx *memoryTx, fn func(tx *memoryTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(tx)
	}

	tx = s.begin()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(tx); err != nil {
		return err
	}
	return s.commitLocked(tx)
}

type memoryRepos struct {
	store *MemoryStore
	tx    *memoryTx
}

func (r memoryRepos) Books() services.BookStore           { return memoryBooks{r.store, r.tx} }
func (r memoryRepos) Borrowers() services.BorrowerStore   { return memoryBorrowers{r.store, r.tx} }
func (r memoryRepos) Borrowings() services.BorrowingStore { return memoryBorrowings{r.store, r.tx} }

// loans returns every visible borrowing matching keep, rehydrated.
func (tx *memoryTx) loans(keep func(models.BorrowingRecord) bool) ([]*models.Borrowing, error) {
	var out []*models.Borrowing
	for _, rec := range tx.borrowings.all() {
		if keep != nil && !keep(rec) {
			continue
		}
		b, err := models.RestoreBorrowing(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (tx *memoryTx) book(id int32) (*models.Book, error) {
	rec, ok := tx.books.get(id)
	if !ok {
		return nil, models.NewNotFoundError("book", id)
	}
	return tx.restoreBook(rec)
}

func (tx *memoryTx) restoreBook(rec models.BookRecord) (*models.Book, error) {
	book, err := models.RestoreBook(rec)
	if err != nil {
		return nil, err
	}
	loans, err := tx.loans(func(b models.BorrowingRecord) bool { return b.BookID == rec.ID })
	if err != nil {
		return nil, err
	}
	book.AttachBorrowings(loans)
	return book, nil
}

func (tx *memoryTx) borrower(id int32) (*models.Borrower, error) {
	rec, ok := tx.borrowers.get(id)
	if !ok {
		return nil, models.NewNotFoundError("borrower", id)
	}
	return tx.restoreBorrower(rec)
}

func (tx *memoryTx) restoreBorrower(rec models.BorrowerRecord) (*models.Borrower, error) {
	borrower, err := models.RestoreBorrower(rec)
	if err != nil {
		return nil, err
	}
	loans, err := tx.loans(func(b models.BorrowingRecord) bool { return b.BorrowerID == rec.ID })
	if err != nil {
		return nil, err
	}
	borrower.AttachBorrowings(loans)
	return borrower, nil
}

func (tx *memoryTx) referenced(match func(models.BorrowingRecord) bool) bool {
	for _, rec := range tx.borrowings.all() {
		if match(rec) {
			return true
		}
	}
	return false
}

type memoryBooks struct {
	store *MemoryStore
	tx    *memoryTx
}

func (r memoryBooks) Get(ctx context.Context, id int32) (*models.Book, error) {
	var out *models.Book
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		var err error
		out, err = tx.book(id)
		return err
	})
	return out, err
}

func (r memoryBooks) list(ctx context.Context, keep func(models.BookRecord) bool) ([]*models.Book, error) {
	var out []*models.Book
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		for _, rec := range tx.books.all() {
			if !keep(rec) {
				continue
			}
			book, err := tx.restoreBook(rec)
			if err != nil {
				return err
			}
			out = append(out, book)
		}
		return nil
	})
	return out, err
}

func (r memoryBooks) ListAll(ctx context.Context) ([]*models.Book, error) {
	return r.list(ctx, func(models.BookRecord) bool { return true })
}

func (r memoryBooks) ListAvailable(ctx context.Context) ([]*models.Book, error) {
	return r.list(ctx, func(rec models.BookRecord) bool { return rec.AvailableCopies > 0 })
}

func (r memoryBooks) Search(ctx context.Context, term string) ([]*models.Book, error) {
	term = strings.ToLower(term)
	return r.list(ctx, func(rec models.BookRecord) bool {
		return strings.Contains(strings.ToLower(rec.Title), term) ||
			strings.Contains(strings.ToLower(rec.Author), term) ||
			strings.Contains(strings.ToLower(rec.Description), term)
	})
}

func (r memoryBooks) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	var out *models.Book
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		rec := tx.books.insert(func(id int32) models.BookRecord {
			rec := book.Record()
			rec.ID = id
			rec.Version = 1
			return rec
		})
		var err error
		out, err = tx.restoreBook(rec)
		return err
	})
	return out, err
}

func (r memoryBooks) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	var out *models.Book
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		rec := book.Record()
		rec.Version++
		if err := tx.books.update(rec.ID, book.Version(), rec); err != nil {
			return err
		}
		var err error
		out, err = tx.restoreBook(rec)
		return err
	})
	return out, err
}

func (r memoryBooks) Delete(ctx context.Context, id int32) error {
	return r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		if tx.referenced(func(b models.BorrowingRecord) bool { return b.BookID == id }) {
			return models.NewConflictError("book %d is referenced by borrowings", id)
		}
		return tx.books.remove(id)
	})
}

func (r memoryBooks) MostBorrowed(ctx context.Context, count int, dr models.DateRange) ([]models.BorrowCount, error) {
	var out []models.BorrowCount
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		loans, err := tx.loans(nil)
		if err != nil {
			return err
		}
		out = models.RankByBook(loans, dr, count)
		return nil
	})
	return out, err
}

type memoryBorrowers struct {
	store *MemoryStore
	tx    *memoryTx
}

func (r memoryBorrowers) Get(ctx context.Context, id int32) (*models.Borrower, error) {
	var out *models.Borrower
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		var err error
		out, err = tx.borrower(id)
		return err
	})
	return out, err
}

func (r memoryBorrowers) list(ctx context.Context, keep func(models.BorrowerRecord) bool) ([]*models.Borrower, error) {
	var out []*models.Borrower
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		for _, rec := range tx.borrowers.all() {
			if !keep(rec) {
				continue
			}
			borrower, err := tx.restoreBorrower(rec)
			if err != nil {
				return err
			}
			out = append(out, borrower)
		}
		return nil
	})
	return out, err
}

func (r memoryBorrowers) ListAll(ctx context.Context) ([]*models.Borrower, error) {
	return r.list(ctx, func(models.BorrowerRecord) bool { return true })
}

func (r memoryBorrowers) ListActive(ctx context.Context) ([]*models.Borrower, error) {
	return r.list(ctx, func(rec models.BorrowerRecord) bool { return rec.IsActive })
}

func (r memoryBorrowers) Create(ctx context.Context, borrower *models.Borrower) (*models.Borrower, error) {
	var out *models.Borrower
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		email := borrower.Email().String()
		for _, rec := range tx.borrowers.all() {
			if rec.Email == email {
				return models.NewConflictError("borrower with email %s already exists", email)
			}
		}
		rec := tx.borrowers.insert(func(id int32) models.BorrowerRecord {
			rec := borrower.Record()
			rec.ID = id
			rec.Version = 1
			return rec
		})
		var err error
		out, err = tx.restoreBorrower(rec)
		return err
	})
	return out, err
}

func (r memoryBorrowers) Update(ctx context.Context, borrower *models.Borrower) (*models.Borrower, error) {
	var out *models.Borrower
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		rec := borrower.Record()
		rec.Version++
		if err := tx.borrowers.update(rec.ID, borrower.Version(), rec); err != nil {
			return err
		}
		var err error
		out, err = tx.restoreBorrower(rec)
		return err
	})
	return out, err
}

func (r memoryBorrowers) Delete(ctx context.Context, id int32) error {
	return r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		if tx.referenced(func(b models.BorrowingRecord) bool { return b.BorrowerID == id }) {
			return models.NewConflictError("borrower %d is referenced by borrowings", id)
		}
		return tx.borrowers.remove(id)
	})
}

func (r memoryBorrowers) EmailExists(ctx context.Context, email models.Email) (bool, error) {
	var exists bool
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		for _, rec := range tx.borrowers.all() {
			if rec.Email == email.String() {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (r memoryBorrowers) TopBorrowers(ctx context.Context, count int, dr models.DateRange) ([]models.BorrowCount, error) {
	var out []models.BorrowCount
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		loans, err := tx.loans(nil)
		if err != nil {
			return err
		}
		out = models.RankByBorrower(loans, dr, count)
		return nil
	})
	return out, err
}

type memoryBorrowings struct {
	store *MemoryStore
	tx    *memoryTx
}

func (r memoryBorrowings) Get(ctx context.Context, id int32) (*models.Borrowing, error) {
	var out *models.Borrowing
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		rec, ok := tx.borrowings.get(id)
		if !ok {
			return models.NewNotFoundError("borrowing", id)
		}
		var err error
		out, err = models.RestoreBorrowing(rec)
		return err
	})
	return out, err
}

func (r memoryBorrowings) list(ctx context.Context, keep func(models.BorrowingRecord) bool) ([]*models.Borrowing, error) {
	var out []*models.Borrowing
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		var err error
		out, err = tx.loans(keep)
		return err
	})
	return out, err
}

func (r memoryBorrowings) ListByBorrower(ctx context.Context, borrowerID int32) ([]*models.Borrowing, error) {
	return r.list(ctx, func(rec models.BorrowingRecord) bool { return rec.BorrowerID == borrowerID })
}

func (r memoryBorrowings) ListByBook(ctx context.Context, bookID int32) ([]*models.Borrowing, error) {
	return r.list(ctx, func(rec models.BorrowingRecord) bool { return rec.BookID == bookID })
}

func (r memoryBorrowings) ListActive(ctx context.Context) ([]*models.Borrowing, error) {
	return r.list(ctx, func(rec models.BorrowingRecord) bool { return !rec.IsReturned })
}

func (r memoryBorrowings) ListOverdue(ctx context.Context, now time.Time) ([]*models.Borrowing, error) {
	return r.list(ctx, func(rec models.BorrowingRecord) bool {
		return !rec.IsReturned && now.After(rec.DueDate)
	})
}

func (r memoryBorrowings) ListHistory(ctx context.Context, dr models.DateRange) ([]*models.Borrowing, error) {
	return r.list(ctx, func(rec models.BorrowingRecord) bool { return dr.Contains(rec.BorrowDate) })
}

func (r memoryBorrowings) Create(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error) {
	var out *models.Borrowing
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		rec := borrowing.Record()
		if _, ok := tx.books.get(rec.BookID); !ok {
			return models.NewNotFoundError("book", rec.BookID)
		}
		if _, ok := tx.borrowers.get(rec.BorrowerID); !ok {
			return models.NewNotFoundError("borrower", rec.BorrowerID)
		}
		rec = tx.borrowings.insert(func(id int32) models.BorrowingRecord {
			rec.ID = id
			rec.Version = 1
			return rec
		})
		var err error
		out, err = models.RestoreBorrowing(rec)
		return err
	})
	return out, err
}

func (r memoryBorrowings) Update(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error) {
	var out *models.Borrowing
	err := r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		rec := borrowing.Record()
		rec.Version++
		if err := tx.borrowings.update(rec.ID, borrowing.Version(), rec); err != nil {
			return err
		}
		var err error
		out, err = models.RestoreBorrowing(rec)
		return err
	})
	return out, err
}

func (r memoryBorrowings) Delete(ctx context.Context, id int32) error {
	return r.store.run(ctx, r.tx, func(tx *memoryTx) error {
		return tx.borrowings.remove(id)
	})
}

// table is the committed state of one entity type.
type table[R any] struct {
	name    string
	rows    map[int32]R
	seq     int32
	version func(R) int32
}

func newTable[R any](name string, version func(R) int32) *table[R] {
	return &table[R]{name: name, rows: make(map[int32]R), version: version}
}

func (t *table[R]) begin() *tableTx[R] {
	return &tableTx[R]{
		base:   t,
		staged: make(map[int32]*R),
		expect: make(map[int32]int32),
	}
}

// tableTx stages writes to a table. A nil staged row is a deletion. expect
// holds the committed versions the staged writes were based on.
type tableTx[R any] struct {
	base   *table[R]
	staged map[int32]*R
	expect map[int32]int32
}

func (t *tableTx[R]) get(id int32) (R, bool) {
	if row, ok := t.staged[id]; ok {
		if row == nil {
			var zero R
			return zero, false
		}
		return *row, true
	}
	row, ok := t.base.rows[id]
	return row, ok
}

// all returns the visible rows ordered by id.
func (t *tableTx[R]) all() []R {
	ids := make([]int32, 0, len(t.base.rows)+len(t.staged))
	for id := range t.base.rows {
		if _, ok := t.staged[id]; !ok {
			ids = append(ids, id)
		}
	}
	for id, row := range t.staged {
		if row != nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]R, 0, len(ids))
	for _, id := range ids {
		row, _ := t.get(id)
		out = append(out, row)
	}
	return out
}

func (t *tableTx[R]) insert(build func(id int32) R) R {
	t.base.seq++
	row := build(t.base.seq)
	t.staged[t.base.seq] = &row
	return row
}

func (t *tableTx[R]) update(id, expected int32, row R) error {
	current, ok := t.get(id)
	if !ok {
		return models.NewNotFoundError(t.base.name, id)
	}
	if t.base.version(current) != expected {
		return models.ErrConcurrencyConflict
	}
	if _, ok := t.staged[id]; !ok {
		t.expect[id] = expected
	}
	t.staged[id] = &row
	return nil
}

func (t *tableTx[R]) remove(id int32) error {
	current, ok := t.get(id)
	if !ok {
		return models.NewNotFoundError(t.base.name, id)
	}
	if _, ok := t.staged[id]; !ok {
		t.expect[id] = t.base.version(current)
	}
	t.staged[id] = nil
	return nil
}

func (t *tableTx[R]) validate() error {
	for id, version := range t.expect {
		row, ok := t.base.rows[id]
		if !ok || t.base.version(row) != version {
			return models.ErrConcurrencyConflict
		}
	}
	return nil
}

func (t *tableTx[R]) apply() {
	for id, row := range t.staged {
		if row == nil {
			delete(t.base.rows, id)
			continue
		}
		t.base.rows[id] = *row
	}
}
