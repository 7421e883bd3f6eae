package services

import (
	"context"
	"time"

	"github.com/ngenohkevin/lending/internal/models"
)

// BookStore defines the persistence operations for books. Get and the list
// methods attach each book's borrowings. Update compares the book's version
// and fails with models.ErrConcurrencyConflict when it is stale.
type BookStore interface {
	Get(ctx context.Context, id int32) (*models.Book, error)
	ListAll(ctx context.Context) ([]*models.Book, error)
	ListAvailable(ctx context.Context) ([]*models.Book, error)
	Search(ctx context.Context, term string) ([]*models.Book, error)
	Create(ctx context.Context, book *models.Book) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) (*models.Book, error)
	Delete(ctx context.Context, id int32) error
	MostBorrowed(ctx context.Context, count int, r models.DateRange) ([]models.BorrowCount, error)
}

// BorrowerStore defines the persistence operations for borrowers. Get and the
// list methods attach each borrower's borrowings.
type BorrowerStore interface {
	Get(ctx context.Context, id int32) (*models.Borrower, error)
	ListAll(ctx context.Context) ([]*models.Borrower, error)
	ListActive(ctx context.Context) ([]*models.Borrower, error)
	Create(ctx context.Context, borrower *models.Borrower) (*models.Borrower, error)
	Update(ctx context.Context, borrower *models.Borrower) (*models.Borrower, error)
	Delete(ctx context.Context, id int32) error
	EmailExists(ctx context.Context, email models.Email) (bool, error)
	TopBorrowers(ctx context.Context, count int, r models.DateRange) ([]models.BorrowCount, error)
}

// BorrowingStore defines the persistence operations for borrowings
type BorrowingStore interface {
	Get(ctx context.Context, id int32) (*models.Borrowing, error)
	ListByBorrower(ctx context.Context, borrowerID int32) ([]*models.Borrowing, error)
	ListByBook(ctx context.Context, bookID int32) ([]*models.Borrowing, error)
	ListActive(ctx context.Context) ([]*models.Borrowing, error)
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Borrowing, error)
	ListHistory(ctx context.Context, r models.DateRange) ([]*models.Borrowing, error)
	Create(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error)
	Update(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error)
	Delete(ctx context.Context, id int32) error
}

// Repositories groups the three stores sharing one connection or transaction
type Repositories interface {
	Books() BookStore
	Borrowers() BorrowerStore
	Borrowings() BorrowingStore
}

// Store is the unit-of-work boundary. WithinTx runs fn in a transaction,
// committing when fn returns nil and rolling back otherwise.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// EventPublisher delivers domain events after the change that produced them
// has committed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...models.DomainEvent) error
}

// Cache stores analytics results for a limited time
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}
