package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ngenohkevin/lending/internal/models"
)

const readingRateUnit = "pages/day"

// AnalyticsServiceInterface defines the interface for lending reports
type AnalyticsServiceInterface interface {
	MostBorrowed(ctx context.Context, count int, r models.DateRange) ([]models.MostBorrowedBookResponse, error)
	TopBorrowers(ctx context.Context, count int, r models.DateRange) ([]models.TopBorrowerResponse, error)
	BookReadingRate(ctx context.Context, bookID int32) (*models.ReadingRateResponse, error)
	BorrowerReadingRate(ctx context.Context, borrowerID int32) (*models.ReadingRateResponse, error)
	LateFee(ctx context.Context, borrowingID int32) (*models.LateFeeResponse, error)
	OverdueReport(ctx context.Context) ([]models.OverdueBorrowingResponse, error)
}

// AnalyticsService answers read-only questions about lending activity
type AnalyticsService struct {
	store  Store
	cache  Cache
	logger *slog.Logger
	settings
}

// NewAnalyticsService creates a new analytics service. cache may be nil.
func NewAnalyticsService(store Store, cache Cache, logger *slog.Logger, opts ...Option) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		store:    store,
		cache:    cache,
		logger:   logger,
		settings: newSettings(opts),
	}
}

// MostBorrowed ranks books by how often they were borrowed inside r
func (s *AnalyticsService) MostBorrowed(ctx context.Context, count int, r models.DateRange) ([]models.MostBorrowedBookResponse, error) {
	if err := validateRanking(count, r); err != nil {
		return nil, err
	}

	key := rankingKey("most-borrowed", count, r)
	var cached []models.MostBorrowedBookResponse
	if s.cached(ctx, key, &cached) {
		return cached, nil
	}

	counts, err := s.store.Books().MostBorrowed(ctx, count, r)
	if err != nil {
		return nil, persistence("rank books", err)
	}

	now := s.now()
	out := make([]models.MostBorrowedBookResponse, 0, len(counts))
	for _, c := range counts {
		book, err := s.store.Books().Get(ctx, c.ID)
		if err != nil {
			return nil, persistence("get book", err)
		}
		out = append(out, models.MostBorrowedBookResponse{
			BookID:             book.ID(),
			Title:              book.Title(),
			Author:             book.Author(),
			ISBN:               book.Isbn().String(),
			BorrowCount:        c.Count,
			AverageReadingRate: book.AverageReadingRate(now),
		})
	}

	s.remember(ctx, key, out)
	return out, nil
}

// TopBorrowers ranks borrowers by how many books they borrowed inside r
func (s *AnalyticsService) TopBorrowers(ctx context.Context, count int, r models.DateRange) ([]models.TopBorrowerResponse, error) {
	if err := validateRanking(count, r); err != nil {
		return nil, err
	}

	key := rankingKey("top-borrowers", count, r)
	var cached []models.TopBorrowerResponse
	if s.cached(ctx, key, &cached) {
		return cached, nil
	}

	counts, err := s.store.Borrowers().TopBorrowers(ctx, count, r)
	if err != nil {
		return nil, persistence("rank borrowers", err)
	}

	now := s.now()
	out := make([]models.TopBorrowerResponse, 0, len(counts))
	for _, c := range counts {
		borrower, err := s.store.Borrowers().Get(ctx, c.ID)
		if err != nil {
			return nil, persistence("get borrower", err)
		}
		rate, err := s.borrowerRate(ctx, borrower, now)
		if err != nil {
			return nil, err
		}
		out = append(out, models.TopBorrowerResponse{
			BorrowerID:         borrower.ID(),
			FullName:           borrower.FullName(),
			Email:              borrower.Email().String(),
			BorrowCount:        c.Count,
			TotalBooksRead:     borrower.TotalBooksRead(),
			AverageReadingRate: rate,
		})
	}

	s.remember(ctx, key, out)
	return out, nil
}

// BookReadingRate averages the reading rate of every completed loan of a book
func (s *AnalyticsService) BookReadingRate(ctx context.Context, bookID int32) (*models.ReadingRateResponse, error) {
	book, err := s.store.Books().Get(ctx, bookID)
	if err != nil {
		return nil, persistence("get book", err)
	}
	return &models.ReadingRateResponse{
		ID:                 book.ID(),
		AverageReadingRate: book.AverageReadingRate(s.now()),
		Unit:               readingRateUnit,
	}, nil
}

// BorrowerReadingRate averages the reading rate of a borrower's completed loans
func (s *AnalyticsService) BorrowerReadingRate(ctx context.Context, borrowerID int32) (*models.ReadingRateResponse, error) {
	borrower, err := s.store.Borrowers().Get(ctx, borrowerID)
	if err != nil {
		return nil, persistence("get borrower", err)
	}
	rate, err := s.borrowerRate(ctx, borrower, s.now())
	if err != nil {
		return nil, err
	}
	return &models.ReadingRateResponse{
		ID:                 borrower.ID(),
		AverageReadingRate: rate,
		Unit:               readingRateUnit,
	}, nil
}

// LateFee computes the fee currently owed on a borrowing
func (s *AnalyticsService) LateFee(ctx context.Context, borrowingID int32) (*models.LateFeeResponse, error) {
	borrowing, err := s.store.Borrowings().Get(ctx, borrowingID)
	if err != nil {
		return nil, persistence("get borrowing", err)
	}

	now := s.now()
	return &models.LateFeeResponse{
		BorrowingID: borrowing.ID(),
		OverdueDays: borrowing.OverdueDays(now),
		FeePerDay:   s.feePerDay,
		LateFee:     borrowing.LateFee(now, s.feePerDay),
	}, nil
}

// OverdueReport lists every overdue borrowing with its accrued fee
func (s *AnalyticsService) OverdueReport(ctx context.Context) ([]models.OverdueBorrowingResponse, error) {
	now := s.now()
	borrowings, err := s.store.Borrowings().ListOverdue(ctx, now)
	if err != nil {
		return nil, persistence("list overdue borrowings", err)
	}

	out := make([]models.OverdueBorrowingResponse, 0, len(borrowings))
	for _, b := range borrowings {
		out = append(out, models.OverdueBorrowingResponse{
			BorrowingID: b.ID(),
			BorrowerID:  b.BorrowerID(),
			BookID:      b.BookID(),
			DueDate:     b.DueDate(),
			DaysOverdue: b.OverdueDays(now),
			LateFee:     b.LateFee(now, s.feePerDay),
		})
	}
	return out, nil
}

func (s *AnalyticsService) borrowerRate(ctx context.Context, borrower *models.Borrower, now time.Time) (float64, error) {
	books, err := loadBooks(ctx, s.store.Books(), borrower.Borrowings())
	if err != nil {
		return 0, persistence("load borrower books", err)
	}
	pages := make(map[int32]int32, len(books))
	for id, book := range books {
		if book != nil {
			pages[id] = book.PageCount()
		}
	}
	return borrower.AverageReadingRate(pages, now), nil
}

func (s *AnalyticsService) cached(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Warn("Analytics cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *AnalyticsService) remember(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Analytics cache write failed", "key", key, "error", err)
	}
}

func validateRanking(count int, r models.DateRange) error {
	if count <= 0 {
		return models.NewValidationError("count", "count must be positive")
	}
	return r.Validate()
}

func rankingKey(report string, count int, r models.DateRange) string {
	return fmt.Sprintf("analytics:%s:%d:%s:%s", report, count, formatBound(r.Start), formatBound(r.End))
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
