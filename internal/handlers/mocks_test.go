package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/lending/internal/models"
)

// MockBookService is a mock implementation of BookServiceInterface
type MockBookService struct {
	mock.Mock
}

func (m *MockBookService) CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.BookResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookResponse), args.Error(1)
}

func (m *MockBookService) GetBook(ctx context.Context, id int32) (*models.BookResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookResponse), args.Error(1)
}

func (m *MockBookService) ListBooks(ctx context.Context) ([]models.BookResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookResponse), args.Error(1)
}

func (m *MockBookService) ListAvailableBooks(ctx context.Context) ([]models.BookResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookResponse), args.Error(1)
}

func (m *MockBookService) SearchBooks(ctx context.Context, term string) ([]models.BookResponse, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookResponse), args.Error(1)
}

func (m *MockBookService) UpdateBook(ctx context.Context, id int32, req models.UpdateBookRequest) (*models.BookResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookResponse), args.Error(1)
}

func (m *MockBookService) DeleteBook(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBorrowerService is a mock implementation of BorrowerServiceInterface
type MockBorrowerService struct {
	mock.Mock
}

func (m *MockBorrowerService) CreateBorrower(ctx context.Context, req models.CreateBorrowerRequest) (*models.BorrowerResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BorrowerResponse), args.Error(1)
}

func (m *MockBorrowerService) GetBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BorrowerResponse), args.Error(1)
}

func (m *MockBorrowerService) ListBorrowers(ctx context.Context) ([]models.BorrowerResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BorrowerResponse), args.Error(1)
}

func (m *MockBorrowerService) ListActiveBorrowers(ctx context.Context) ([]models.BorrowerResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BorrowerResponse), args.Error(1)
}

func (m *MockBorrowerService) UpdateBorrower(ctx context.Context, id int32, req models.UpdateBorrowerRequest) (*models.BorrowerResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BorrowerResponse), args.Error(1)
}

func (m *MockBorrowerService) DeactivateBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BorrowerResponse), args.Error(1)
}

func (m *MockBorrowerService) ActivateBorrower(ctx context.Context, id int32) (*models.BorrowerResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BorrowerResponse), args.Error(1)
}

func (m *MockBorrowerService) DeleteBorrower(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBorrowerService) CanBorrow(ctx context.Context, id int32) (*models.CanBorrowResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CanBorrowResponse), args.Error(1)
}

func (m *MockBorrowerService) History(ctx context.Context, id int32, r models.DateRange) ([]models.BorrowingHistoryEntry, error) {
	args := m.Called(ctx, id, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BorrowingHistoryEntry), args.Error(1)
}

func (m *MockBorrowerService) CurrentBooks(ctx context.Context, id int32) ([]models.BookSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookSummary), args.Error(1)
}

// MockLendingService is a mock implementation of LendingServiceInterface
type MockLendingService struct {
	mock.Mock
}

func (m *MockLendingService) Borrow(ctx context.Context, bookID, borrowerID int32, durationDays int) (*models.Borrowing, error) {
	args := m.Called(ctx, bookID, borrowerID, durationDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Borrowing), args.Error(1)
}

func (m *MockLendingService) Return(ctx context.Context, borrowingID int32) (*models.Borrowing, error) {
	args := m.Called(ctx, borrowingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Borrowing), args.Error(1)
}

func (m *MockLendingService) ExtendDueDate(ctx context.Context, borrowingID int32, additionalDays int) (*models.Borrowing, error) {
	args := m.Called(ctx, borrowingID, additionalDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Borrowing), args.Error(1)
}

func (m *MockLendingService) GetBorrowing(ctx context.Context, id int32) (*models.Borrowing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Borrowing), args.Error(1)
}

func (m *MockLendingService) ListActiveBorrowings(ctx context.Context) ([]*models.Borrowing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Borrowing), args.Error(1)
}

// MockAnalyticsService is a mock implementation of AnalyticsServiceInterface
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) MostBorrowed(ctx context.Context, count int, r models.DateRange) ([]models.MostBorrowedBookResponse, error) {
	args := m.Called(ctx, count, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MostBorrowedBookResponse), args.Error(1)
}

func (m *MockAnalyticsService) TopBorrowers(ctx context.Context, count int, r models.DateRange) ([]models.TopBorrowerResponse, error) {
	args := m.Called(ctx, count, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TopBorrowerResponse), args.Error(1)
}

func (m *MockAnalyticsService) BookReadingRate(ctx context.Context, bookID int32) (*models.ReadingRateResponse, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReadingRateResponse), args.Error(1)
}

func (m *MockAnalyticsService) BorrowerReadingRate(ctx context.Context, borrowerID int32) (*models.ReadingRateResponse, error) {
	args := m.Called(ctx, borrowerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReadingRateResponse), args.Error(1)
}

func (m *MockAnalyticsService) LateFee(ctx context.Context, borrowingID int32) (*models.LateFeeResponse, error) {
	args := m.Called(ctx, borrowingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LateFeeResponse), args.Error(1)
}

func (m *MockAnalyticsService) OverdueReport(ctx context.Context) ([]models.OverdueBorrowingResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OverdueBorrowingResponse), args.Error(1)
}

// performRequest sends body as JSON when it is not nil
func performRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) (data []map[string]interface{}, total int) {
	t.Helper()
	var resp struct {
		Success bool                     `json:"success"`
		Data    []map[string]interface{} `json:"data"`
		Meta    ListMeta                 `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data, resp.Meta.Total
}

func int32Ptr(i int32) *int32 {
	return &i
}

func intPtr(i int) *int {
	return &i
}
