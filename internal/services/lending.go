package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ngenohkevin/lending/internal/models"
)

// LendingServiceInterface defines the interface for lending operations
type LendingServiceInterface interface {
	Borrow(ctx context.Context, bookID, borrowerID int32, durationDays int) (*models.Borrowing, error)
	Return(ctx context.Context, borrowingID int32) (*models.Borrowing, error)
	ExtendDueDate(ctx context.Context, borrowingID int32, additionalDays int) (*models.Borrowing, error)
	GetBorrowing(ctx context.Context, id int32) (*models.Borrowing, error)
	ListActiveBorrowings(ctx context.Context) ([]*models.Borrowing, error)
}

// LendingService runs the borrow and return workflows. Each call is one
// read-check-write unit inside a store transaction, retried once when the
// store reports a concurrent modification.
type LendingService struct {
	store     Store
	publisher EventPublisher
	logger    *slog.Logger
	settings
}

// NewLendingService creates a new lending service
func NewLendingService(store Store, publisher EventPublisher, logger *slog.Logger, opts ...Option) *LendingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LendingService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		settings:  newSettings(opts),
	}
}

// Borrow lends a copy of bookID to borrowerID for durationDays.
func (s *LendingService) Borrow(ctx context.Context, bookID, borrowerID int32, durationDays int) (*models.Borrowing, error) {
	if durationDays <= 0 {
		return nil, models.NewValidationError("duration_days", "borrow duration must be greater than 0 days")
	}
	if durationDays > s.maxDurationDays {
		return nil, models.NewValidationError("duration_days",
			fmt.Sprintf("borrow duration cannot exceed %d days", s.maxDurationDays))
	}

	var (
		borrowing *models.Borrowing
		events    []models.DomainEvent
	)

	err := RetryOnConflict(ctx, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
			book, err := tx.Books().Get(ctx, bookID)
			if err != nil {
				return err
			}
			borrower, err := tx.Borrowers().Get(ctx, borrowerID)
			if err != nil {
				return err
			}

			if err := borrower.CheckCanBorrow(); err != nil {
				return err
			}
			if !book.IsAvailable() {
				return &models.BookNotAvailableError{BookID: book.ID(), Title: book.Title()}
			}

			now := s.now()
			created, err := models.NewBorrowing(borrowerID, bookID, now, durationDays)
			if err != nil {
				return err
			}
			if err := book.BorrowCopy(now); err != nil {
				return err
			}

			if created, err = tx.Borrowings().Create(ctx, created); err != nil {
				return err
			}
			if _, err := tx.Books().Update(ctx, book); err != nil {
				return err
			}
			// Bumps the borrower's version so two concurrent borrows by the
			// same borrower cannot both pass the limit check.
			if _, err := tx.Borrowers().Update(ctx, borrower); err != nil {
				return err
			}

			borrowing = created
			events = book.PullEvents()
			return nil
		})
	}, s.retryOptions...)
	if err != nil {
		return nil, s.fail("borrow book", err, "book_id", bookID, "borrower_id", borrowerID)
	}

	s.publish(ctx, events)
	s.logger.Info("Book borrowed",
		"borrowing_id", borrowing.ID(),
		"book_id", bookID,
		"borrower_id", borrowerID,
		"due_date", borrowing.DueDate(),
	)
	return borrowing, nil
}

// Return closes borrowingID and puts its copy back on the shelf.
func (s *LendingService) Return(ctx context.Context, borrowingID int32) (*models.Borrowing, error) {
	var (
		borrowing *models.Borrowing
		events    []models.DomainEvent
	)

	err := RetryOnConflict(ctx, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
			current, err := tx.Borrowings().Get(ctx, borrowingID)
			if err != nil {
				return err
			}

			now := s.now()
			if err := current.Return(now); err != nil {
				return err
			}

			book, err := tx.Books().Get(ctx, current.BookID())
			if errors.Is(err, models.ErrNotFound) {
				return models.NewInvariantError("borrowing", borrowingID,
					fmt.Sprintf("references missing book %d", current.BookID()))
			}
			if err != nil {
				return err
			}
			if err := book.ReturnCopy(now); err != nil {
				return err
			}

			if current, err = tx.Borrowings().Update(ctx, current); err != nil {
				return err
			}
			if _, err := tx.Books().Update(ctx, book); err != nil {
				return err
			}

			borrowing = current
			events = book.PullEvents()
			return nil
		})
	}, s.retryOptions...)
	if err != nil {
		return nil, s.fail("return book", err, "borrowing_id", borrowingID)
	}

	s.publish(ctx, events)
	s.logger.Info("Book returned",
		"borrowing_id", borrowingID,
		"book_id", borrowing.BookID(),
		"borrower_id", borrowing.BorrowerID(),
		"overdue", borrowing.DueDate().Before(*borrowing.ReturnDate()),
	)
	return borrowing, nil
}

// ExtendDueDate pushes back the due date of an open borrowing.
func (s *LendingService) ExtendDueDate(ctx context.Context, borrowingID int32, additionalDays int) (*models.Borrowing, error) {
	if additionalDays <= 0 {
		return nil, models.NewValidationError("additional_days", "additional days must be positive")
	}

	var borrowing *models.Borrowing
	err := RetryOnConflict(ctx, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
			current, err := tx.Borrowings().Get(ctx, borrowingID)
			if err != nil {
				return err
			}
			if err := current.ExtendDueDate(additionalDays); err != nil {
				return err
			}
			borrowing, err = tx.Borrowings().Update(ctx, current)
			return err
		})
	}, s.retryOptions...)
	if err != nil {
		return nil, s.fail("extend due date", err, "borrowing_id", borrowingID)
	}

	s.logger.Info("Due date extended", "borrowing_id", borrowingID, "due_date", borrowing.DueDate())
	return borrowing, nil
}

// GetBorrowing retrieves a borrowing by ID
func (s *LendingService) GetBorrowing(ctx context.Context, id int32) (*models.Borrowing, error) {
	borrowing, err := s.store.Borrowings().Get(ctx, id)
	if err != nil {
		return nil, persistence("get borrowing", err)
	}
	return borrowing, nil
}

// ListActiveBorrowings returns every borrowing not yet returned
func (s *LendingService) ListActiveBorrowings(ctx context.Context) ([]*models.Borrowing, error) {
	borrowings, err := s.store.Borrowings().ListActive(ctx)
	if err != nil {
		return nil, persistence("list active borrowings", err)
	}
	return borrowings, nil
}

func (s *LendingService) publish(ctx context.Context, events []models.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", "error", err, "count", len(events))
	}
}

// fail logs err at a level matching its kind and wraps store failures.
func (s *LendingService) fail(op string, err error, attrs ...any) error {
	err = persistence(op, err)

	switch models.KindOf(err) {
	case models.KindInvariant:
		s.logger.Error("Lending invariant violated", append(attrs, "op", op, "error", err)...)
	case models.KindPersisting:
		s.logger.Error("Lending operation failed", append(attrs, "op", op, "error", err)...)
	case models.KindConflict:
		s.logger.Warn("Lending operation rejected", append(attrs, "op", op, "error", err)...)
	}
	return err
}

// persistence wraps errors without a domain kind as a persistence failure.
// Context cancellation passes through unchanged.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if models.KindOf(err) != models.KindUnknown {
		return err
	}
	return models.NewPersistenceError(op, err)
}
