package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/lending/internal/models"
)

func newTestLendingService(store *MockStore, publisher EventPublisher) *LendingService {
	return NewLendingService(store, publisher, nil,
		WithClock(fixedClock),
		WithRetryOptions(WithBaseDelay(0)),
	)
}

func TestLendingService_Borrow_Validation(t *testing.T) {
	tests := []struct {
		name     string
		duration int
	}{
		{name: "zero days", duration: 0},
		{name: "negative days", duration: -3},
		{name: "beyond maximum", duration: MaxBorrowDurationDays + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			service := newTestLendingService(store, nil)

			borrowing, err := service.Borrow(context.Background(), 1, 2, tt.duration)

			assert.Nil(t, borrowing)
			assert.ErrorIs(t, err, models.ErrValidation)
			store.assertExpectations(t)
		})
	}
}

func TestLendingService_Borrow_Rejections(t *testing.T) {
	open := mustBorrowing(5, 2, 9, testNow.AddDate(0, 0, -3), 14, nil)

	tests := []struct {
		name      string
		setup     func(store *MockStore)
		wantErr   error
		wantError any
	}{
		{
			name: "book not found",
			setup: func(store *MockStore) {
				store.books.On("Get", mock.Anything, int32(1)).Return(nil, models.NewNotFoundError("book", 1))
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "borrower not found",
			setup: func(store *MockStore) {
				store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 2), nil)
				store.borrowers.On("Get", mock.Anything, int32(2)).Return(nil, models.NewNotFoundError("borrower", 2))
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "inactive borrower",
			setup: func(store *MockStore) {
				store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 2), nil)
				store.borrowers.On("Get", mock.Anything, int32(2)).Return(mustBorrower(2, 5, false), nil)
			},
			wantErr:   models.ErrConflict,
			wantError: &models.BorrowerInactiveError{},
		},
		{
			name: "borrow limit reached",
			setup: func(store *MockStore) {
				store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 2), nil)
				store.borrowers.On("Get", mock.Anything, int32(2)).Return(mustBorrower(2, 1, true, open), nil)
			},
			wantErr:   models.ErrConflict,
			wantError: &models.BorrowLimitExceededError{},
		},
		{
			name: "no copies left",
			setup: func(store *MockStore) {
				store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 0), nil)
				store.borrowers.On("Get", mock.Anything, int32(2)).Return(mustBorrower(2, 5, true), nil)
			},
			wantErr:   models.ErrConflict,
			wantError: &models.BookNotAvailableError{},
		},
		{
			name: "store failure",
			setup: func(store *MockStore) {
				store.books.On("Get", mock.Anything, int32(1)).Return(nil, errors.New("connection refused"))
			},
			wantErr: models.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			publisher := new(MockPublisher)
			tt.setup(store)
			service := newTestLendingService(store, publisher)

			borrowing, err := service.Borrow(context.Background(), 1, 2, 14)

			assert.Nil(t, borrowing)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantError != nil {
				assert.IsType(t, tt.wantError, err)
			}
			store.assertExpectations(t)
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestLendingService_Borrow_Success(t *testing.T) {
	store := newMockStore()
	publisher := new(MockPublisher)
	service := newTestLendingService(store, publisher)

	created := mustBorrowing(10, 2, 1, testNow, 21, nil)
	store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 2), nil)
	store.borrowers.On("Get", mock.Anything, int32(2)).Return(mustBorrower(2, 5, true), nil)
	store.borrowings.On("Create", mock.Anything, mock.MatchedBy(func(b *models.Borrowing) bool {
		return b.BookID() == 1 && b.BorrowerID() == 2 && b.DueDate().Equal(testNow.AddDate(0, 0, 21))
	})).Return(created, nil)
	store.books.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
		return b.AvailableCopies() == 1
	})).Return(mustBook(1, 2, 1), nil)
	store.borrowers.On("Update", mock.Anything, mock.Anything).Return(mustBorrower(2, 5, true, created), nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []models.DomainEvent) bool {
		if len(events) != 1 {
			return false
		}
		e, ok := events[0].(models.BookBorrowed)
		return ok && e.BookID == 1 && e.Available == 1 && e.OccurredOn.Equal(testNow)
	})).Return(nil)

	borrowing, err := service.Borrow(context.Background(), 1, 2, 21)

	require.NoError(t, err)
	assert.Equal(t, int32(10), borrowing.ID())
	assert.False(t, borrowing.IsReturned())
	store.assertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestLendingService_Borrow_RetriesConcurrencyConflictOnce(t *testing.T) {
	store := newMockStore()
	service := newTestLendingService(store, nil)

	created := mustBorrowing(10, 2, 1, testNow, 14, nil)
	store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 2), nil).Once()
	store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 1), nil).Once()
	store.borrowers.On("Get", mock.Anything, int32(2)).Return(mustBorrower(2, 5, true), nil).Twice()
	store.borrowings.On("Create", mock.Anything, mock.Anything).Return(created, nil).Twice()
	store.books.On("Update", mock.Anything, mock.Anything).Return(nil, models.ErrConcurrencyConflict).Once()
	store.books.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
		return b.AvailableCopies() == 0
	})).Return(mustBook(1, 2, 0), nil).Once()
	store.borrowers.On("Update", mock.Anything, mock.Anything).Return(mustBorrower(2, 5, true), nil).Once()

	borrowing, err := service.Borrow(context.Background(), 1, 2, 14)

	require.NoError(t, err)
	assert.Equal(t, int32(10), borrowing.ID())
	store.assertExpectations(t)
}

func TestLendingService_Borrow_PersistentConflict(t *testing.T) {
	store := newMockStore()
	service := newTestLendingService(store, nil)

	store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 2), nil).Once()
	store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 2), nil).Once()
	store.borrowers.On("Get", mock.Anything, int32(2)).Return(mustBorrower(2, 5, true), nil)
	store.borrowings.On("Create", mock.Anything, mock.Anything).Return(mustBorrowing(10, 2, 1, testNow, 14, nil), nil)
	store.books.On("Update", mock.Anything, mock.Anything).Return(nil, models.ErrConcurrencyConflict)

	_, err := service.Borrow(context.Background(), 1, 2, 14)

	assert.ErrorIs(t, err, models.ErrConcurrencyConflict)
	store.books.AssertNumberOfCalls(t, "Update", 2)
}

func TestLendingService_Borrow_PublishFailureIsNotFatal(t *testing.T) {
	store := newMockStore()
	publisher := new(MockPublisher)
	service := newTestLendingService(store, publisher)

	store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 1, 1), nil)
	store.borrowers.On("Get", mock.Anything, int32(2)).Return(mustBorrower(2, 5, true), nil)
	store.borrowings.On("Create", mock.Anything, mock.Anything).Return(mustBorrowing(10, 2, 1, testNow, 14, nil), nil)
	store.books.On("Update", mock.Anything, mock.Anything).Return(mustBook(1, 1, 0), nil)
	store.borrowers.On("Update", mock.Anything, mock.Anything).Return(mustBorrower(2, 5, true), nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("stream unavailable"))

	borrowing, err := service.Borrow(context.Background(), 1, 2, 14)

	require.NoError(t, err)
	assert.NotNil(t, borrowing)
	publisher.AssertExpectations(t)
}

func TestLendingService_Return(t *testing.T) {
	returnedAt := testNow.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		setup   func(store *MockStore, publisher *MockPublisher)
		wantErr error
	}{
		{
			name: "success",
			setup: func(store *MockStore, publisher *MockPublisher) {
				store.borrowings.On("Get", mock.Anything, int32(10)).
					Return(mustBorrowing(10, 2, 1, testNow.AddDate(0, 0, -7), 14, nil), nil)
				store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 1), nil)
				store.borrowings.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Borrowing) bool {
					return b.IsReturned() && b.ReturnDate().Equal(testNow)
				})).Return(mustBorrowing(10, 2, 1, testNow.AddDate(0, 0, -7), 14, &testNow), nil)
				store.books.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
					return b.AvailableCopies() == 2
				})).Return(mustBook(1, 2, 2), nil)
				publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []models.DomainEvent) bool {
					return len(events) == 1 && events[0].EventType() == models.EventBookReturned
				})).Return(nil)
			},
		},
		{
			name: "borrowing not found",
			setup: func(store *MockStore, publisher *MockPublisher) {
				store.borrowings.On("Get", mock.Anything, int32(10)).
					Return(nil, models.NewNotFoundError("borrowing", 10))
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "already returned",
			setup: func(store *MockStore, publisher *MockPublisher) {
				store.borrowings.On("Get", mock.Anything, int32(10)).
					Return(mustBorrowing(10, 2, 1, testNow.AddDate(0, 0, -7), 14, &returnedAt), nil)
			},
			wantErr: models.ErrConflict,
		},
		{
			name: "book missing",
			setup: func(store *MockStore, publisher *MockPublisher) {
				store.borrowings.On("Get", mock.Anything, int32(10)).
					Return(mustBorrowing(10, 2, 1, testNow.AddDate(0, 0, -7), 14, nil), nil)
				store.books.On("Get", mock.Anything, int32(1)).Return(nil, models.NewNotFoundError("book", 1))
			},
			wantErr: models.ErrInvariantViolation,
		},
		{
			name: "every copy already on the shelf",
			setup: func(store *MockStore, publisher *MockPublisher) {
				store.borrowings.On("Get", mock.Anything, int32(10)).
					Return(mustBorrowing(10, 2, 1, testNow.AddDate(0, 0, -7), 14, nil), nil)
				store.books.On("Get", mock.Anything, int32(1)).Return(mustBook(1, 2, 2), nil)
			},
			wantErr: models.ErrInvariantViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			publisher := new(MockPublisher)
			tt.setup(store, publisher)
			service := newTestLendingService(store, publisher)

			borrowing, err := service.Return(context.Background(), 10)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, borrowing)
				publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.True(t, borrowing.IsReturned())
			}
			store.assertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestLendingService_ExtendDueDate(t *testing.T) {
	t.Run("rejects non-positive days", func(t *testing.T) {
		store := newMockStore()
		service := newTestLendingService(store, nil)

		_, err := service.ExtendDueDate(context.Background(), 10, 0)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("pushes the due date back", func(t *testing.T) {
		store := newMockStore()
		service := newTestLendingService(store, nil)
		borrowed := testNow.AddDate(0, 0, -2)

		store.borrowings.On("Get", mock.Anything, int32(10)).Return(mustBorrowing(10, 2, 1, borrowed, 14, nil), nil)
		store.borrowings.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Borrowing) bool {
			return b.DueDate().Equal(borrowed.AddDate(0, 0, 21))
		})).Return(mustBorrowing(10, 2, 1, borrowed, 21, nil), nil)

		borrowing, err := service.ExtendDueDate(context.Background(), 10, 7)

		require.NoError(t, err)
		assert.True(t, borrowing.DueDate().Equal(borrowed.AddDate(0, 0, 21)))
		store.assertExpectations(t)
	})

	t.Run("returned borrowings cannot be extended", func(t *testing.T) {
		store := newMockStore()
		service := newTestLendingService(store, nil)
		returnedAt := testNow

		store.borrowings.On("Get", mock.Anything, int32(10)).
			Return(mustBorrowing(10, 2, 1, testNow.AddDate(0, 0, -2), 14, &returnedAt), nil)

		_, err := service.ExtendDueDate(context.Background(), 10, 7)
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}
