package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/lending/internal/models"
	"github.com/ngenohkevin/lending/internal/services"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func createBook(t *testing.T, store services.Store, title string, copies int32) *models.Book {
	t.Helper()
	book, err := models.NewBook(title, "Test Author", models.MustIsbn("978-0-13-419044-0"), 300,
		time.Date(2015, 10, 26, 0, 0, 0, 0, time.UTC), copies, "Programming", "A book about "+title)
	require.NoError(t, err)

	created, err := store.Books().Create(context.Background(), book)
	require.NoError(t, err)
	return created
}

func createBorrower(t *testing.T, store services.Store, email string) *models.Borrower {
	t.Helper()
	addr, err := models.NewEmail(email)
	require.NoError(t, err)
	borrower, err := models.NewBorrower("Jane", "Reader", addr, "555-0100", 5, testNow)
	require.NoError(t, err)

	created, err := store.Borrowers().Create(context.Background(), borrower)
	require.NoError(t, err)
	return created
}

// borrow runs the same unit of work as the lending service.
func borrow(ctx context.Context, store services.Store, bookID, borrowerID int32, at time.Time) error {
	return store.WithinTx(ctx, func(ctx context.Context, tx services.Repositories) error {
		book, err := tx.Books().Get(ctx, bookID)
		if err != nil {
			return err
		}
		borrower, err := tx.Borrowers().Get(ctx, borrowerID)
		if err != nil {
			return err
		}
		loan, err := models.NewBorrowing(borrower.ID(), book.ID(), at, 14)
		if err != nil {
			return err
		}
		if err := book.BorrowCopy(at); err != nil {
			return err
		}
		if _, err := tx.Borrowings().Create(ctx, loan); err != nil {
			return err
		}
		if _, err := tx.Books().Update(ctx, book); err != nil {
			return err
		}
		_, err = tx.Borrowers().Update(ctx, borrower)
		return err
	})
}

// testStoreContract exercises behaviour every services.Store must share.
func testStoreContract(t *testing.T, newStore func(t *testing.T) services.Store) {
	t.Run("create and get book", func(t *testing.T) {
		store := newStore(t)
		created := createBook(t, store, "Clean Code", 3)

		assert.NotZero(t, created.ID())
		assert.Equal(t, int32(1), created.Version())

		got, err := store.Books().Get(context.Background(), created.ID())
		require.NoError(t, err)
		assert.Equal(t, "Clean Code", got.Title())
		assert.Equal(t, int32(3), got.AvailableCopies())
		assert.Empty(t, got.Borrowings())
	})

	t.Run("missing book is not found", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Books().Get(context.Background(), 424242)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("stale update is a concurrency conflict", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		created := createBook(t, store, "Refactoring", 2)

		first, err := store.Books().Get(ctx, created.ID())
		require.NoError(t, err)
		second, err := store.Books().Get(ctx, created.ID())
		require.NoError(t, err)

		require.NoError(t, first.UpdateDetails("Refactoring 2nd Ed", "Martin Fowler", "", ""))
		updated, err := store.Books().Update(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, int32(2), updated.Version())

		require.NoError(t, second.UpdateDetails("Other", "Someone", "", ""))
		_, err = store.Books().Update(ctx, second)
		assert.ErrorIs(t, err, models.ErrConcurrencyConflict)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		store := newStore(t)
		createBook(t, store, "The Go Programming Language", 1)
		createBook(t, store, "Domain-Driven Design", 1)

		found, err := store.Books().Search(context.Background(), "go programming")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "The Go Programming Language", found[0].Title())
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		store := newStore(t)
		createBorrower(t, store, "dup@example.com")

		addr, err := models.NewEmail("dup@example.com")
		require.NoError(t, err)
		exists, err := store.Borrowers().EmailExists(context.Background(), addr)
		require.NoError(t, err)
		assert.True(t, exists)

		again, err := models.NewBorrower("John", "Doe", addr, "", 5, testNow)
		require.NoError(t, err)
		_, err = store.Borrowers().Create(context.Background(), again)
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("borrow commits every write", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		book := createBook(t, store, "Patterns", 2)
		borrower := createBorrower(t, store, "borrow@example.com")

		require.NoError(t, borrow(ctx, store, book.ID(), borrower.ID(), testNow))

		gotBook, err := store.Books().Get(ctx, book.ID())
		require.NoError(t, err)
		assert.Equal(t, int32(1), gotBook.AvailableCopies())
		assert.Len(t, gotBook.Borrowings(), 1)

		gotBorrower, err := store.Borrowers().Get(ctx, borrower.ID())
		require.NoError(t, err)
		assert.Equal(t, int32(1), gotBorrower.CurrentBorrowedCount())
		assert.Equal(t, int32(2), gotBorrower.Version())

		active, err := store.Borrowings().ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		book := createBook(t, store, "Rollback", 1)
		borrower := createBorrower(t, store, "rollback@example.com")
		boom := errors.New("boom")

		err := store.WithinTx(ctx, func(ctx context.Context, tx services.Repositories) error {
			b, err := tx.Books().Get(ctx, book.ID())
			if err != nil {
				return err
			}
			if err := b.BorrowCopy(testNow); err != nil {
				return err
			}
			if _, err := tx.Books().Update(ctx, b); err != nil {
				return err
			}
			loan, err := models.NewBorrowing(borrower.ID(), book.ID(), testNow, 7)
			if err != nil {
				return err
			}
			if _, err := tx.Borrowings().Create(ctx, loan); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.Books().Get(ctx, book.ID())
		require.NoError(t, err)
		assert.Equal(t, int32(1), got.AvailableCopies())
		assert.Empty(t, got.Borrowings())
	})

	t.Run("concurrent borrows of the last copy", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		book := createBook(t, store, "Last Copy", 1)
		first := createBorrower(t, store, "first@example.com")
		second := createBorrower(t, store, "second@example.com")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, borrowerID := range []int32{first.ID(), second.ID()} {
			wg.Add(1)
			go func(i int, borrowerID int32) {
				defer wg.Done()
				errs[i] = borrow(ctx, store, book.ID(), borrowerID, testNow)
			}(i, borrowerID)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			assert.ErrorIs(t, err, models.ErrConflict)
		}
		assert.Equal(t, 1, successes)

		got, err := store.Books().Get(ctx, book.ID())
		require.NoError(t, err)
		assert.Equal(t, int32(0), got.AvailableCopies())
		assert.Len(t, got.Borrowings(), 1)
	})

	t.Run("referenced rows cannot be deleted", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		book := createBook(t, store, "Kept", 1)
		borrower := createBorrower(t, store, "kept@example.com")
		require.NoError(t, borrow(ctx, store, book.ID(), borrower.ID(), testNow))

		assert.ErrorIs(t, store.Books().Delete(ctx, book.ID()), models.ErrConflict)
		assert.ErrorIs(t, store.Borrowers().Delete(ctx, borrower.ID()), models.ErrConflict)

		unused := createBook(t, store, "Unused", 1)
		require.NoError(t, store.Books().Delete(ctx, unused.ID()))
		_, err := store.Books().Get(ctx, unused.ID())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("rankings order by count then id", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		a := createBook(t, store, "Alpha", 5)
		b := createBook(t, store, "Beta", 5)
		reader := createBorrower(t, store, "ranker@example.com")
		other := createBorrower(t, store, "other@example.com")

		require.NoError(t, borrow(ctx, store, b.ID(), reader.ID(), testNow))
		require.NoError(t, borrow(ctx, store, b.ID(), other.ID(), testNow))
		require.NoError(t, borrow(ctx, store, a.ID(), reader.ID(), testNow))

		books, err := store.Books().MostBorrowed(ctx, 10, models.DateRange{})
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, models.BorrowCount{ID: b.ID(), Count: 2}, books[0])
		assert.Equal(t, models.BorrowCount{ID: a.ID(), Count: 1}, books[1])

		top, err := store.Borrowers().TopBorrowers(ctx, 1, models.DateRange{})
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, models.BorrowCount{ID: reader.ID(), Count: 2}, top[0])

		later := testNow.Add(time.Hour)
		none, err := store.Books().MostBorrowed(ctx, 10, models.DateRange{Start: &later})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("overdue lists open loans past due", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		book := createBook(t, store, "Late", 2)
		borrower := createBorrower(t, store, "late@example.com")
		require.NoError(t, borrow(ctx, store, book.ID(), borrower.ID(), testNow))

		overdue, err := store.Borrowings().ListOverdue(ctx, testNow.AddDate(0, 0, 15))
		require.NoError(t, err)
		assert.Len(t, overdue, 1)

		onTime, err := store.Borrowings().ListOverdue(ctx, testNow.AddDate(0, 0, 13))
		require.NoError(t, err)
		assert.Empty(t, onTime)
	})
}
