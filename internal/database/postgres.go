package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ngenohkevin/lending/internal/models"
	"github.com/ngenohkevin/lending/internal/services"
)

const (
	tableBooks      = "books"
	tableBorrowers  = "borrowers"
	tableBorrowings = "borrowings"

	colID      = "id"
	colVersion = "version"
)

// PostgreSQL error codes with a domain meaning
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
)

var (
	dialect = goqu.Dialect("postgres")

	bookColumns = []any{
		"id", "title", "author", "isbn", "page_count", "publication_date",
		"total_copies", "available_copies", "genre", "description", "version",
	}
	borrowerColumns = []any{
		"id", "first_name", "last_name", "email", "phone_number", "membership_date",
		"is_active", "max_borrow_limit", "version",
	}
	borrowingColumns = []any{
		"id", "borrower_id", "book_id", "borrow_date", "due_date", "return_date",
		"is_returned", "version",
	}
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txBeginner interface {
	querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PostgresStore implements the lending stores on PostgreSQL. Updates compare
// the row version and bump it, so a stale write fails with
// models.ErrConcurrencyConflict instead of overwriting a concurrent change.
type PostgresStore struct {
	db     txBeginner
	logger *slog.Logger
}

// NewPostgresStore creates a store over db, usually Database.Pool
func NewPostgresStore(db txBeginner, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) Books() services.BookStore {
	return pgBooks{pgConn{q: s.db, logger: s.logger}}
}

func (s *PostgresStore) Borrowers() services.BorrowerStore {
	return pgBorrowers{pgConn{q: s.db, logger: s.logger}}
}

func (s *PostgresStore) Borrowings() services.BorrowingStore {
	return pgBorrowings{pgConn{q: s.db, logger: s.logger}}
}

// WithinTx runs fn in a read-committed transaction. The transaction is rolled
// back when fn fails, panics or the context is cancelled.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx services.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError("begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error("Failed to roll back transaction", "error", rbErr)
			}
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err = fn(ctx, pgRepos{pgConn{q: tx, logger: s.logger}}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

type pgRepos struct {
	conn pgConn
}

func (r pgRepos) Books() services.BookStore           { return pgBooks{r.conn} }
func (r pgRepos) Borrowers() services.BorrowerStore   { return pgBorrowers{r.conn} }
func (r pgRepos) Borrowings() services.BorrowingStore { return pgBorrowings{r.conn} }

type pgConn struct {
	q      querier
	logger *slog.Logger
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (c pgConn) build(op string, b sqlBuilder) (string, []any, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return "", nil, models.NewPersistenceError(op, fmt.Errorf("build query: %w", err))
	}
	c.logger.Debug("Executing SQL", "op", op, "query", query)
	return query, args, nil
}

func (c pgConn) exec(ctx context.Context, op string, b sqlBuilder) (int64, error) {
	query, args, err := c.build(op, b)
	if err != nil {
		return 0, err
	}
	tag, err := c.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(op, err)
	}
	return tag.RowsAffected(), nil
}

func (c pgConn) query(ctx context.Context, op string, b sqlBuilder) (pgx.Rows, error) {
	query, args, err := c.build(op, b)
	if err != nil {
		return nil, err
	}
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	return rows, nil
}

// exists reports whether table has a row with id.
func (c pgConn) exists(ctx context.Context, table string, id int32) (bool, error) {
	query, args, err := c.build("check "+table, dialect.From(table).
		Select(goqu.L("1")).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true))
	if err != nil {
		return false, err
	}
	var one int
	err = c.q.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError("check "+table, err)
	}
	return true, nil
}

// staleOrMissing explains why a versioned write touched no row.
func (c pgConn) staleOrMissing(ctx context.Context, table, resource string, id int32) error {
	ok, err := c.exists(ctx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError(resource, id)
	}
	return models.ErrConcurrencyConflict
}

func (c pgConn) loansWhere(ctx context.Context, op string, where ...exp.Expression) ([]*models.Borrowing, error) {
	rows, err := c.query(ctx, op, dialect.From(tableBorrowings).
		Select(borrowingColumns...).
		Where(where...).
		Order(goqu.C(colID).Asc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return collectBorrowings(op, rows)
}

// attachBookLoans loads the borrowings of books in one query.
func (c pgConn) attachBookLoans(ctx context.Context, books []*models.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]int32, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID())
	}
	loans, err := c.loansWhere(ctx, "load book borrowings", goqu.C("book_id").In(ids))
	if err != nil {
		return err
	}
	byBook := make(map[int32][]*models.Borrowing)
	for _, l := range loans {
		byBook[l.BookID()] = append(byBook[l.BookID()], l)
	}
	for _, b := range books {
		b.AttachBorrowings(byBook[b.ID()])
	}
	return nil
}

func (c pgConn) attachBorrowerLoans(ctx context.Context, borrowers []*models.Borrower) error {
	if len(borrowers) == 0 {
		return nil
	}
	ids := make([]int32, 0, len(borrowers))
	for _, b := range borrowers {
		ids = append(ids, b.ID())
	}
	loans, err := c.loansWhere(ctx, "load borrower borrowings", goqu.C("borrower_id").In(ids))
	if err != nil {
		return err
	}
	byBorrower := make(map[int32][]*models.Borrowing)
	for _, l := range loans {
		byBorrower[l.BorrowerID()] = append(byBorrower[l.BorrowerID()], l)
	}
	for _, b := range borrowers {
		b.AttachBorrowings(byBorrower[b.ID()])
	}
	return nil
}

// rank counts borrowings per key column inside r, highest first with ties
// broken by ascending id.
func (c pgConn) rank(ctx context.Context, op, key string, count int, r models.DateRange) ([]models.BorrowCount, error) {
	if count <= 0 {
		return nil, nil
	}
	stmt := dialect.From(tableBorrowings).
		Select(goqu.C(key), goqu.COUNT("*").As("borrow_count")).
		Where(dateRange("borrow_date", r)...).
		GroupBy(goqu.C(key)).
		Order(goqu.I("borrow_count").Desc(), goqu.C(key).Asc()).
		Limit(uint(count)).
		Prepared(true)

	rows, err := c.query(ctx, op, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BorrowCount
	for rows.Next() {
		var bc models.BorrowCount
		var n int64
		if err := rows.Scan(&bc.ID, &n); err != nil {
			return nil, mapError(op, err)
		}
		bc.Count = int(n)
		out = append(out, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return out, nil
}

func dateRange(col string, r models.DateRange) []exp.Expression {
	var where []exp.Expression
	if r.Start != nil {
		where = append(where, goqu.C(col).Gte(*r.Start))
	}
	if r.End != nil {
		where = append(where, goqu.C(col).Lte(*r.End))
	}
	return where
}

type pgBooks struct {
	pgConn
}

func (r pgBooks) Get(ctx context.Context, id int32) (*models.Book, error) {
	books, err := r.list(ctx, "get book", goqu.C(colID).Eq(id))
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, models.NewNotFoundError("book", id)
	}
	return books[0], nil
}

func (r pgBooks) list(ctx context.Context, op string, where ...exp.Expression) ([]*models.Book, error) {
	rows, err := r.query(ctx, op, dialect.From(tableBooks).
		Select(bookColumns...).
		Where(where...).
		Order(goqu.C(colID).Asc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	books, err := collectBooks(op, rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachBookLoans(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

func (r pgBooks) ListAll(ctx context.Context) ([]*models.Book, error) {
	return r.list(ctx, "list books")
}

func (r pgBooks) ListAvailable(ctx context.Context) ([]*models.Book, error) {
	return r.list(ctx, "list available books", goqu.C("available_copies").Gt(0))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r pgBooks) Search(ctx context.Context, term string) ([]*models.Book, error) {
	pattern := "%" + likeEscaper.Replace(term) + "%"
	return r.list(ctx, "search books", goqu.Or(
		goqu.C("title").ILike(pattern),
		goqu.C("author").ILike(pattern),
		goqu.C("description").ILike(pattern),
	))
}

func (r pgBooks) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	rec := book.Record()
	rows, err := r.query(ctx, "create book", dialect.Insert(tableBooks).
		Rows(goqu.Record{
			"title":            rec.Title,
			"author":           rec.Author,
			"isbn":             rec.Isbn,
			"page_count":       rec.PageCount,
			"publication_date": rec.PublicationDate,
			"total_copies":     rec.TotalCopies,
			"available_copies": rec.AvailableCopies,
			"genre":            rec.Genre,
			"description":      rec.Description,
			"version":          1,
		}).
		Returning(bookColumns...).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "create book", rows, rec.ID)
}

func (r pgBooks) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	rec := book.Record()
	rows, err := r.query(ctx, "update book", dialect.Update(tableBooks).
		Set(goqu.Record{
			"title":            rec.Title,
			"author":           rec.Author,
			"isbn":             rec.Isbn,
			"page_count":       rec.PageCount,
			"publication_date": rec.PublicationDate,
			"total_copies":     rec.TotalCopies,
			"available_copies": rec.AvailableCopies,
			"genre":            rec.Genre,
			"description":      rec.Description,
			colVersion:         goqu.L("version + 1"),
			"updated_at":       goqu.L("NOW()"),
		}).
		Where(goqu.C(colID).Eq(rec.ID), goqu.C(colVersion).Eq(rec.Version)).
		Returning(bookColumns...).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "update book", rows, rec.ID)
}

// one rehydrates the single row returned by a write, or explains its absence.
func (r pgBooks) one(ctx context.Context, op string, rows pgx.Rows, id int32) (*models.Book, error) {
	books, err := collectBooks(op, rows)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, r.staleOrMissing(ctx, tableBooks, "book", id)
	}
	if err := r.attachBookLoans(ctx, books); err != nil {
		return nil, err
	}
	return books[0], nil
}

func (r pgBooks) Delete(ctx context.Context, id int32) error {
	n, err := r.exec(ctx, "delete book", dialect.Delete(tableBooks).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true))
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("book", id)
	}
	return nil
}

func (r pgBooks) MostBorrowed(ctx context.Context, count int, dr models.DateRange) ([]models.BorrowCount, error) {
	return r.rank(ctx, "rank books", "book_id", count, dr)
}

type pgBorrowers struct {
	pgConn
}

func (r pgBorrowers) Get(ctx context.Context, id int32) (*models.Borrower, error) {
	borrowers, err := r.list(ctx, "get borrower", goqu.C(colID).Eq(id))
	if err != nil {
		return nil, err
	}
	if len(borrowers) == 0 {
		return nil, models.NewNotFoundError("borrower", id)
	}
	return borrowers[0], nil
}

func (r pgBorrowers) list(ctx context.Context, op string, where ...exp.Expression) ([]*models.Borrower, error) {
	rows, err := r.query(ctx, op, dialect.From(tableBorrowers).
		Select(borrowerColumns...).
		Where(where...).
		Order(goqu.C(colID).Asc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	borrowers, err := collectBorrowers(op, rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachBorrowerLoans(ctx, borrowers); err != nil {
		return nil, err
	}
	return borrowers, nil
}

func (r pgBorrowers) ListAll(ctx context.Context) ([]*models.Borrower, error) {
	return r.list(ctx, "list borrowers")
}

func (r pgBorrowers) ListActive(ctx context.Context) ([]*models.Borrower, error) {
	return r.list(ctx, "list active borrowers", goqu.C("is_active").IsTrue())
}

func (r pgBorrowers) Create(ctx context.Context, borrower *models.Borrower) (*models.Borrower, error) {
	rec := borrower.Record()
	rows, err := r.query(ctx, "create borrower", dialect.Insert(tableBorrowers).
		Rows(goqu.Record{
			"first_name":       rec.FirstName,
			"last_name":        rec.LastName,
			"email":            rec.Email,
			"phone_number":     rec.PhoneNumber,
			"membership_date":  rec.MembershipDate,
			"is_active":        rec.IsActive,
			"max_borrow_limit": rec.MaxBorrowLimit,
			"version":          1,
		}).
		Returning(borrowerColumns...).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "create borrower", rows, rec.ID)
}

func (r pgBorrowers) Update(ctx context.Context, borrower *models.Borrower) (*models.Borrower, error) {
	rec := borrower.Record()
	rows, err := r.query(ctx, "update borrower", dialect.Update(tableBorrowers).
		Set(goqu.Record{
			"first_name":       rec.FirstName,
			"last_name":        rec.LastName,
			"email":            rec.Email,
			"phone_number":     rec.PhoneNumber,
			"is_active":        rec.IsActive,
			"max_borrow_limit": rec.MaxBorrowLimit,
			colVersion:         goqu.L("version + 1"),
			"updated_at":       goqu.L("NOW()"),
		}).
		Where(goqu.C(colID).Eq(rec.ID), goqu.C(colVersion).Eq(rec.Version)).
		Returning(borrowerColumns...).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "update borrower", rows, rec.ID)
}

func (r pgBorrowers) one(ctx context.Context, op string, rows pgx.Rows, id int32) (*models.Borrower, error) {
	borrowers, err := collectBorrowers(op, rows)
	if err != nil {
		return nil, err
	}
	if len(borrowers) == 0 {
		return nil, r.staleOrMissing(ctx, tableBorrowers, "borrower", id)
	}
	if err := r.attachBorrowerLoans(ctx, borrowers); err != nil {
		return nil, err
	}
	return borrowers[0], nil
}

func (r pgBorrowers) Delete(ctx context.Context, id int32) error {
	n, err := r.exec(ctx, "delete borrower", dialect.Delete(tableBorrowers).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true))
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("borrower", id)
	}
	return nil
}

func (r pgBorrowers) EmailExists(ctx context.Context, email models.Email) (bool, error) {
	query, args, err := r.build("check borrower email", dialect.From(tableBorrowers).
		Select(goqu.L("1")).
		Where(goqu.C("email").Eq(email.String())).
		Limit(1).
		Prepared(true))
	if err != nil {
		return false, err
	}
	var one int
	err = r.q.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError("check borrower email", err)
	}
	return true, nil
}

func (r pgBorrowers) TopBorrowers(ctx context.Context, count int, dr models.DateRange) ([]models.BorrowCount, error) {
	return r.rank(ctx, "rank borrowers", "borrower_id", count, dr)
}

type pgBorrowings struct {
	pgConn
}

func (r pgBorrowings) Get(ctx context.Context, id int32) (*models.Borrowing, error) {
	loans, err := r.loansWhere(ctx, "get borrowing", goqu.C(colID).Eq(id))
	if err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return nil, models.NewNotFoundError("borrowing", id)
	}
	return loans[0], nil
}

func (r pgBorrowings) ListByBorrower(ctx context.Context, borrowerID int32) ([]*models.Borrowing, error) {
	return r.loansWhere(ctx, "list borrowings by borrower", goqu.C("borrower_id").Eq(borrowerID))
}

func (r pgBorrowings) ListByBook(ctx context.Context, bookID int32) ([]*models.Borrowing, error) {
	return r.loansWhere(ctx, "list borrowings by book", goqu.C("book_id").Eq(bookID))
}

func (r pgBorrowings) ListActive(ctx context.Context) ([]*models.Borrowing, error) {
	return r.loansWhere(ctx, "list active borrowings", goqu.C("is_returned").IsFalse())
}

func (r pgBorrowings) ListOverdue(ctx context.Context, now time.Time) ([]*models.Borrowing, error) {
	return r.loansWhere(ctx, "list overdue borrowings",
		goqu.C("is_returned").IsFalse(),
		goqu.C("due_date").Lt(now),
	)
}

func (r pgBorrowings) ListHistory(ctx context.Context, dr models.DateRange) ([]*models.Borrowing, error) {
	return r.loansWhere(ctx, "list borrowing history", dateRange("borrow_date", dr)...)
}

func (r pgBorrowings) Create(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error) {
	rec := borrowing.Record()
	rows, err := r.query(ctx, "create borrowing", dialect.Insert(tableBorrowings).
		Rows(goqu.Record{
			"borrower_id": rec.BorrowerID,
			"book_id":     rec.BookID,
			"borrow_date": rec.BorrowDate,
			"due_date":    rec.DueDate,
			"return_date": rec.ReturnDate,
			"is_returned": rec.IsReturned,
			"version":     1,
		}).
		Returning(borrowingColumns...).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "create borrowing", rows, rec.ID)
}

func (r pgBorrowings) Update(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error) {
	rec := borrowing.Record()
	rows, err := r.query(ctx, "update borrowing", dialect.Update(tableBorrowings).
		Set(goqu.Record{
			"due_date":    rec.DueDate,
			"return_date": rec.ReturnDate,
			"is_returned": rec.IsReturned,
			colVersion:    goqu.L("version + 1"),
			"updated_at":  goqu.L("NOW()"),
		}).
		Where(goqu.C(colID).Eq(rec.ID), goqu.C(colVersion).Eq(rec.Version)).
		Returning(borrowingColumns...).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "update borrowing", rows, rec.ID)
}

func (r pgBorrowings) one(ctx context.Context, op string, rows pgx.Rows, id int32) (*models.Borrowing, error) {
	loans, err := collectBorrowings(op, rows)
	if err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return nil, r.staleOrMissing(ctx, tableBorrowings, "borrowing", id)
	}
	return loans[0], nil
}

func (r pgBorrowings) Delete(ctx context.Context, id int32) error {
	n, err := r.exec(ctx, "delete borrowing", dialect.Delete(tableBorrowings).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true))
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("borrowing", id)
	}
	return nil
}

func collectBooks(op string, rows pgx.Rows) ([]*models.Book, error) {
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.BookRecord, error) {
		var r models.BookRecord
		err := row.Scan(&r.ID, &r.Title, &r.Author, &r.Isbn, &r.PageCount, &r.PublicationDate,
			&r.TotalCopies, &r.AvailableCopies, &r.Genre, &r.Description, &r.Version)
		return r, err
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	books := make([]*models.Book, 0, len(recs))
	for _, rec := range recs {
		b, err := models.RestoreBook(rec)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func collectBorrowers(op string, rows pgx.Rows) ([]*models.Borrower, error) {
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.BorrowerRecord, error) {
		var r models.BorrowerRecord
		err := row.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Email, &r.PhoneNumber, &r.MembershipDate,
			&r.IsActive, &r.MaxBorrowLimit, &r.Version)
		return r, err
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	borrowers := make([]*models.Borrower, 0, len(recs))
	for _, rec := range recs {
		b, err := models.RestoreBorrower(rec)
		if err != nil {
			return nil, err
		}
		borrowers = append(borrowers, b)
	}
	return borrowers, nil
}

func collectBorrowings(op string, rows pgx.Rows) ([]*models.Borrowing, error) {
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.BorrowingRecord, error) {
		var r models.BorrowingRecord
		err := row.Scan(&r.ID, &r.BorrowerID, &r.BookID, &r.BorrowDate, &r.DueDate, &r.ReturnDate,
			&r.IsReturned, &r.Version)
		return r, err
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	loans := make([]*models.Borrowing, 0, len(recs))
	for _, rec := range recs {
		b, err := models.RestoreBorrowing(rec)
		if err != nil {
			return nil, err
		}
		loans = append(loans, b)
	}
	return loans, nil
}

// mapError translates driver errors into domain errors. Serialization
// failures and deadlocks are concurrency conflicts; constraint violations are
// conflicts; anything else is a persistence failure.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if models.KindOf(err) != models.KindUnknown ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return models.ErrConcurrencyConflict
		case pgUniqueViolation:
			return models.NewConflictError("%s: duplicate value violates %s", op, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return models.NewConflictError("%s: row is referenced or references a missing row (%s)", op, pgErr.ConstraintName)
		case pgCheckViolation:
			return models.NewConflictError("%s: check constraint %s violated", op, pgErr.ConstraintName)
		}
	}
	return models.NewPersistenceError(op, err)
}
