package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ngenohkevin/lending/internal/models"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// MockStore hands out the same mock repositories inside and outside a
// transaction. WithinTx runs fn directly unless an error is queued for it.
type MockStore struct {
	mock.Mock
	books      *MockBookStore
	borrowers  *MockBorrowerStore
	borrowings *MockBorrowingStore
}

func newMockStore() *MockStore {
	return &MockStore{
		books:      new(MockBookStore),
		borrowers:  new(MockBorrowerStore),
		borrowings: new(MockBorrowingStore),
	}
}

func (m *MockStore) Books() BookStore           { return m.books }
func (m *MockStore) Borrowers() BorrowerStore   { return m.borrowers }
func (m *MockStore) Borrowings() BorrowingStore { return m.borrowings }

func (m *MockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	return fn(ctx, m)
}

func (m *MockStore) assertExpectations(t mock.TestingT) {
	m.books.AssertExpectations(t)
	m.borrowers.AssertExpectations(t)
	m.borrowings.AssertExpectations(t)
}

// MockBookStore is a mock implementation of BookStore
type MockBookStore struct {
	mock.Mock
}

func (m *MockBookStore) Get(ctx context.Context, id int32) (*models.Book, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*models.Book)
	return book, args.Error(1)
}

func (m *MockBookStore) ListAll(ctx context.Context) ([]*models.Book, error) {
	args := m.Called(ctx)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookStore) ListAvailable(ctx context.Context) ([]*models.Book, error) {
	args := m.Called(ctx)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookStore) Search(ctx context.Context, term string) ([]*models.Book, error) {
	args := m.Called(ctx, term)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookStore) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	args := m.Called(ctx, book)
	created, _ := args.Get(0).(*models.Book)
	return created, args.Error(1)
}

func (m *MockBookStore) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	args := m.Called(ctx, book)
	updated, _ := args.Get(0).(*models.Book)
	return updated, args.Error(1)
}

func (m *MockBookStore) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookStore) MostBorrowed(ctx context.Context, count int, r models.DateRange) ([]models.BorrowCount, error) {
	args := m.Called(ctx, count, r)
	counts, _ := args.Get(0).([]models.BorrowCount)
	return counts, args.Error(1)
}

// MockBorrowerStore is a mock implementation of BorrowerStore
type MockBorrowerStore struct {
	mock.Mock
}

func (m *MockBorrowerStore) Get(ctx context.Context, id int32) (*models.Borrower, error) {
	args := m.Called(ctx, id)
	borrower, _ := args.Get(0).(*models.Borrower)
	return borrower, args.Error(1)
}

func (m *MockBorrowerStore) ListAll(ctx context.Context) ([]*models.Borrower, error) {
	args := m.Called(ctx)
	borrowers, _ := args.Get(0).([]*models.Borrower)
	return borrowers, args.Error(1)
}

func (m *MockBorrowerStore) ListActive(ctx context.Context) ([]*models.Borrower, error) {
	args := m.Called(ctx)
	borrowers, _ := args.Get(0).([]*models.Borrower)
	return borrowers, args.Error(1)
}

func (m *MockBorrowerStore) Create(ctx context.Context, borrower *models.Borrower) (*models.Borrower, error) {
	args := m.Called(ctx, borrower)
	created, _ := args.Get(0).(*models.Borrower)
	return created, args.Error(1)
}

func (m *MockBorrowerStore) Update(ctx context.Context, borrower *models.Borrower) (*models.Borrower, error) {
	args := m.Called(ctx, borrower)
	updated, _ := args.Get(0).(*models.Borrower)
	return updated, args.Error(1)
}

func (m *MockBorrowerStore) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBorrowerStore) EmailExists(ctx context.Context, email models.Email) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockBorrowerStore) TopBorrowers(ctx context.Context, count int, r models.DateRange) ([]models.BorrowCount, error) {
	args := m.Called(ctx, count, r)
	counts, _ := args.Get(0).([]models.BorrowCount)
	return counts, args.Error(1)
}

// MockBorrowingStore is a mock implementation of BorrowingStore
type MockBorrowingStore struct {
	mock.Mock
}

func (m *MockBorrowingStore) Get(ctx context.Context, id int32) (*models.Borrowing, error) {
	args := m.Called(ctx, id)
	borrowing, _ := args.Get(0).(*models.Borrowing)
	return borrowing, args.Error(1)
}

func (m *MockBorrowingStore) ListByBorrower(ctx context.Context, borrowerID int32) ([]*models.Borrowing, error) {
	args := m.Called(ctx, borrowerID)
	borrowings, _ := args.Get(0).([]*models.Borrowing)
	return borrowings, args.Error(1)
}

func (m *MockBorrowingStore) ListByBook(ctx context.Context, bookID int32) ([]*models.Borrowing, error) {
	args := m.Called(ctx, bookID)
	borrowings, _ := args.Get(0).([]*models.Borrowing)
	return borrowings, args.Error(1)
}

func (m *MockBorrowingStore) ListActive(ctx context.Context) ([]*models.Borrowing, error) {
	args := m.Called(ctx)
	borrowings, _ := args.Get(0).([]*models.Borrowing)
	return borrowings, args.Error(1)
}

func (m *MockBorrowingStore) ListOverdue(ctx context.Context, now time.Time) ([]*models.Borrowing, error) {
	args := m.Called(ctx, now)
	borrowings, _ := args.Get(0).([]*models.Borrowing)
	return borrowings, args.Error(1)
}

func (m *MockBorrowingStore) ListHistory(ctx context.Context, r models.DateRange) ([]*models.Borrowing, error) {
	args := m.Called(ctx, r)
	borrowings, _ := args.Get(0).([]*models.Borrowing)
	return borrowings, args.Error(1)
}

func (m *MockBorrowingStore) Create(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error) {
	args := m.Called(ctx, borrowing)
	created, _ := args.Get(0).(*models.Borrowing)
	return created, args.Error(1)
}

func (m *MockBorrowingStore) Update(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error) {
	args := m.Called(ctx, borrowing)
	updated, _ := args.Get(0).(*models.Borrowing)
	return updated, args.Error(1)
}

func (m *MockBorrowingStore) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, events ...models.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func mustBook(id, total, available int32) *models.Book {
	book, err := models.RestoreBook(models.BookRecord{
		ID:              id,
		Title:           "Clean Code",
		Author:          "Robert C. Martin",
		Isbn:            "978-0-13-235088-4",
		PageCount:       464,
		PublicationDate: time.Date(2008, 8, 1, 0, 0, 0, 0, time.UTC),
		TotalCopies:     total,
		AvailableCopies: available,
		Version:         1,
	})
	if err != nil {
		panic(err)
	}
	return book
}

func mustBorrower(id, limit int32, active bool, loans ...*models.Borrowing) *models.Borrower {
	borrower, err := models.RestoreBorrower(models.BorrowerRecord{
		ID:             id,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@example.com",
		MembershipDate: testNow.AddDate(-1, 0, 0),
		IsActive:       active,
		MaxBorrowLimit: limit,
		Version:        1,
	})
	if err != nil {
		panic(err)
	}
	borrower.AttachBorrowings(loans)
	return borrower
}

func mustBorrowing(id, borrowerID, bookID int32, borrowed time.Time, days int, returned *time.Time) *models.Borrowing {
	borrowing, err := models.RestoreBorrowing(models.BorrowingRecord{
		ID:         id,
		BorrowerID: borrowerID,
		BookID:     bookID,
		BorrowDate: borrowed,
		DueDate:    borrowed.AddDate(0, 0, days),
		ReturnDate: returned,
		IsReturned: returned != nil,
		Version:    1,
	})
	if err != nil {
		panic(err)
	}
	return borrowing
}
