package services

import (
	"context"
	"log/slog"

	"github.com/ngenohkevin/lending/internal/models"
)

// BorrowerServiceInterface defines the interface for borrower service operations
type BorrowerServiceInterface interface {
	CreateBorrower(ctx context.Context, req models.CreateBorrowerRequest) (*models.BorrowerResponse, error)
	GetBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error)
	ListBorrowers(ctx context.Context) ([]models.BorrowerResponse, error)
	ListActiveBorrowers(ctx context.Context) ([]models.BorrowerResponse, error)
	UpdateBorrower(ctx context.Context, id int32, req models.UpdateBorrowerRequest) (*models.BorrowerResponse, error)
	DeactivateBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error)
	ActivateBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error)
	DeleteBorrower(ctx context.Context, id int32) error
	CanBorrow(ctx context.Context, id int32) (*models.CanBorrowResponse, error)
	History(ctx context.Context, id int32, r models.DateRange) ([]models.BorrowingHistoryEntry, error)
	CurrentBooks(ctx context.Context, id int32) ([]models.BookSummary, error)
}

// BorrowerService handles membership business logic
type BorrowerService struct {
	store  Store
	logger *slog.Logger
	settings
}

// NewBorrowerService creates a new borrower service
func NewBorrowerService(store Store, logger *slog.Logger, opts ...Option) *BorrowerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BorrowerService{
		store:    store,
		logger:   logger,
		settings: newSettings(opts),
	}
}

// CreateBorrower registers a new borrower. Emails are unique.
func (s *BorrowerService) CreateBorrower(ctx context.Context, req models.CreateBorrowerRequest) (*models.BorrowerResponse, error) {
	email, err := models.NewEmail(req.Email)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.Borrowers().EmailExists(ctx, email)
	if err != nil {
		return nil, persistence("check borrower email", err)
	}
	if exists {
		return nil, models.NewConflictError("borrower with email %s already exists", email)
	}

	limit := s.defaultBorrowLimit
	if req.MaxBorrowLimit != nil {
		limit = *req.MaxBorrowLimit
	}

	borrower, err := models.NewBorrower(req.FirstName, req.LastName, email, req.PhoneNumber, limit, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.store.Borrowers().Create(ctx, borrower)
	if err != nil {
		return nil, persistence("create borrower", err)
	}

	s.logger.Info("Borrower registered", "borrower_id", created.ID())
	return borrowerResponse(created), nil
}

// GetBorrower retrieves a borrower by ID
func (s *BorrowerService) GetBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error) {
	borrower, err := s.store.Borrowers().Get(ctx, id)
	if err != nil {
		return nil, persistence("get borrower", err)
	}
	return borrowerResponse(borrower), nil
}

// ListBorrowers returns every borrower
func (s *BorrowerService) ListBorrowers(ctx context.Context) ([]models.BorrowerResponse, error) {
	borrowers, err := s.store.Borrowers().ListAll(ctx)
	if err != nil {
		return nil, persistence("list borrowers", err)
	}
	return borrowerResponses(borrowers), nil
}

// ListActiveBorrowers returns the borrowers with lending privileges
func (s *BorrowerService) ListActiveBorrowers(ctx context.Context) ([]models.BorrowerResponse, error) {
	borrowers, err := s.store.Borrowers().ListActive(ctx)
	if err != nil {
		return nil, persistence("list active borrowers", err)
	}
	return borrowerResponses(borrowers), nil
}

// UpdateBorrower changes the profile fields present in req
func (s *BorrowerService) UpdateBorrower(ctx context.Context, id int32, req models.UpdateBorrowerRequest) (*models.BorrowerResponse, error) {
	updated, err := s.mutate(ctx, id, func(b *models.Borrower) error {
		b.UpdateProfile(req.FirstName, req.LastName, req.PhoneNumber)
		if req.MaxBorrowLimit != nil {
			return b.UpdateBorrowLimit(*req.MaxBorrowLimit)
		}
		return nil
	})
	if err != nil {
		return nil, persistence("update borrower", err)
	}

	s.logger.Info("Borrower updated", "borrower_id", id)
	return borrowerResponse(updated), nil
}

// DeactivateBorrower withdraws lending privileges. Open loans are unaffected.
func (s *BorrowerService) DeactivateBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error) {
	updated, err := s.mutate(ctx, id, func(b *models.Borrower) error {
		b.Deactivate()
		return nil
	})
	if err != nil {
		return nil, persistence("deactivate borrower", err)
	}

	s.logger.Info("Borrower deactivated", "borrower_id", id)
	return borrowerResponse(updated), nil
}

// ActivateBorrower restores lending privileges
func (s *BorrowerService) ActivateBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error) {
	updated, err := s.mutate(ctx, id, func(b *models.Borrower) error {
		b.Activate()
		return nil
	})
	if err != nil {
		return nil, persistence("activate borrower", err)
	}

	s.logger.Info("Borrower activated", "borrower_id", id)
	return borrowerResponse(updated), nil
}

// DeleteBorrower removes a borrower who has never borrowed
func (s *BorrowerService) DeleteBorrower(ctx context.Context, id int32) error {
	borrower, err := s.store.Borrowers().Get(ctx, id)
	if err != nil {
		return persistence("get borrower", err)
	}
	if n := borrower.CurrentBorrowedCount(); n > 0 {
		return models.NewConflictError("cannot delete borrower %d with %d active borrowings", id, n)
	}
	if len(borrower.Borrowings()) > 0 {
		return models.NewConflictError("cannot delete borrower %d with borrowing history; deactivate instead", id)
	}

	if err := s.store.Borrowers().Delete(ctx, id); err != nil {
		return persistence("delete borrower", err)
	}

	s.logger.Info("Borrower deleted", "borrower_id", id)
	return nil
}

// CanBorrow reports whether the borrower may take another book and, if not, why
func (s *BorrowerService) CanBorrow(ctx context.Context, id int32) (*models.CanBorrowResponse, error) {
	borrower, err := s.store.Borrowers().Get(ctx, id)
	if err != nil {
		return nil, persistence("get borrower", err)
	}

	resp := &models.CanBorrowResponse{
		BorrowerID:           borrower.ID(),
		CanBorrow:            borrower.CanBorrow(),
		CurrentBorrowedCount: borrower.CurrentBorrowedCount(),
		MaxBorrowLimit:       borrower.MaxBorrowLimit(),
	}
	if err := borrower.CheckCanBorrow(); err != nil {
		resp.Reason = err.Error()
	}
	return resp, nil
}

// History lists the borrower's loans that started inside r, with book details
func (s *BorrowerService) History(ctx context.Context, id int32, r models.DateRange) ([]models.BorrowingHistoryEntry, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	borrower, err := s.store.Borrowers().Get(ctx, id)
	if err != nil {
		return nil, persistence("get borrower", err)
	}

	history := borrower.BorrowingHistory(r)
	books, err := loadBooks(ctx, s.store.Books(), history)
	if err != nil {
		return nil, persistence("load history books", err)
	}

	now := s.now()
	out := make([]models.BorrowingHistoryEntry, 0, len(history))
	for _, b := range history {
		out = append(out, models.NewBorrowingHistoryEntry(b, books[b.BookID()], now))
	}
	return out, nil
}

// CurrentBooks lists the books the borrower holds right now
func (s *BorrowerService) CurrentBooks(ctx context.Context, id int32) ([]models.BookSummary, error) {
	borrower, err := s.store.Borrowers().Get(ctx, id)
	if err != nil {
		return nil, persistence("get borrower", err)
	}

	var open []*models.Borrowing
	for _, b := range borrower.Borrowings() {
		if !b.IsReturned() {
			open = append(open, b)
		}
	}

	books, err := loadBooks(ctx, s.store.Books(), open)
	if err != nil {
		return nil, persistence("load current books", err)
	}

	out := make([]models.BookSummary, 0, len(open))
	for _, b := range open {
		if book := books[b.BookID()]; book != nil {
			out = append(out, models.NewBookSummary(book))
		}
	}
	return out, nil
}

func (s *BorrowerService) mutate(ctx context.Context, id int32, change func(*models.Borrower) error) (*models.Borrower, error) {
	var updated *models.Borrower
	err := RetryOnConflict(ctx, func(ctx context.Context) error {
		borrower, err := s.store.Borrowers().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := change(borrower); err != nil {
			return err
		}
		updated, err = s.store.Borrowers().Update(ctx, borrower)
		return err
	}, s.retryOptions...)
	return updated, err
}

// loadBooks fetches the distinct books referenced by borrowings. Books that
// no longer exist map to nil.
func loadBooks(ctx context.Context, store BookStore, borrowings []*models.Borrowing) (map[int32]*models.Book, error) {
	books := make(map[int32]*models.Book)
	for _, b := range borrowings {
		if _, seen := books[b.BookID()]; seen {
			continue
		}
		book, err := store.Get(ctx, b.BookID())
		if models.KindOf(err) == models.KindNotFound {
			books[b.BookID()] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		books[b.BookID()] = book
	}
	return books, nil
}

func borrowerResponse(b *models.Borrower) *models.BorrowerResponse {
	resp := models.NewBorrowerResponse(b)
	return &resp
}

func borrowerResponses(borrowers []*models.Borrower) []models.BorrowerResponse {
	out := make([]models.BorrowerResponse, 0, len(borrowers))
	for _, b := range borrowers {
		out = append(out, models.NewBorrowerResponse(b))
	}
	return out
}
