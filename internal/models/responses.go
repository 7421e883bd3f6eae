package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookStatus represents the lending status of a book
type BookStatus string

const (
	BookStatusAvailable BookStatus = "available"
	BookStatusBorrowed  BookStatus = "borrowed"
)

// BookResponse represents the response for book operations
type BookResponse struct {
	ID                 int32      `json:"id"`
	Title              string     `json:"title"`
	Author             string     `json:"author"`
	ISBN               string     `json:"isbn"`
	PageCount          int32      `json:"page_count"`
	PublicationDate    time.Time  `json:"publication_date"`
	TotalCopies        int32      `json:"total_copies"`
	AvailableCopies    int32      `json:"available_copies"`
	BorrowedCopies     int32      `json:"borrowed_copies"`
	Genre              string     `json:"genre"`
	Description        string     `json:"description"`
	IsAvailable        bool       `json:"is_available"`
	Status             BookStatus `json:"status"`
	AverageReadingRate float64    `json:"average_reading_rate"`
}

// BookSummary is the short form of a book embedded in other responses
type BookSummary struct {
	ID              int32  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	AvailableCopies int32  `json:"available_copies"`
	TotalCopies     int32  `json:"total_copies"`
	IsAvailable     bool   `json:"is_available"`
}

// BorrowerResponse represents the response for borrower operations
type BorrowerResponse struct {
	ID                   int32     `json:"id"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	FullName             string    `json:"full_name"`
	Email                string    `json:"email"`
	PhoneNumber          string    `json:"phone_number"`
	MembershipDate       time.Time `json:"membership_date"`
	IsActive             bool      `json:"is_active"`
	MaxBorrowLimit       int32     `json:"max_borrow_limit"`
	CurrentBorrowedCount int32     `json:"current_borrowed_count"`
	CanBorrow            bool      `json:"can_borrow"`
	TotalBooksRead       int32     `json:"total_books_read"`
}

// BorrowingResponse represents a loan
type BorrowingResponse struct {
	ID                 int32           `json:"id"`
	BorrowerID         int32           `json:"borrower_id"`
	BookID             int32           `json:"book_id"`
	BorrowDate         time.Time       `json:"borrow_date"`
	DueDate            time.Time       `json:"due_date"`
	ReturnDate         *time.Time      `json:"return_date,omitempty"`
	IsReturned         bool            `json:"is_returned"`
	IsOverdue          bool            `json:"is_overdue"`
	OverdueDays        int             `json:"overdue_days"`
	LateFee            decimal.Decimal `json:"late_fee"`
	BorrowDurationDays int             `json:"borrow_duration_days"`
}

// MostBorrowedBookResponse is one row of the most-borrowed report
type MostBorrowedBookResponse struct {
	BookID             int32   `json:"book_id"`
	Title              string  `json:"title"`
	Author             string  `json:"author"`
	ISBN               string  `json:"isbn"`
	BorrowCount        int     `json:"borrow_count"`
	AverageReadingRate float64 `json:"average_reading_rate"`
}

// TopBorrowerResponse is one row of the top-borrowers report
type TopBorrowerResponse struct {
	BorrowerID         int32   `json:"borrower_id"`
	FullName           string  `json:"full_name"`
	Email              string  `json:"email"`
	BorrowCount        int     `json:"borrow_count"`
	TotalBooksRead     int32   `json:"total_books_read"`
	AverageReadingRate float64 `json:"average_reading_rate"`
}

// OverdueBorrowingResponse represents an overdue loan with its fee
type OverdueBorrowingResponse struct {
	BorrowingID int32           `json:"borrowing_id"`
	BorrowerID  int32           `json:"borrower_id"`
	BookID      int32           `json:"book_id"`
	DueDate     time.Time       `json:"due_date"`
	DaysOverdue int             `json:"days_overdue"`
	LateFee     decimal.Decimal `json:"late_fee"`
}

// BorrowingHistoryEntry is one loan in a borrower's history
type BorrowingHistoryEntry struct {
	ID                 int32      `json:"id"`
	BookTitle          string     `json:"book_title"`
	Author             string     `json:"author"`
	ISBN               string     `json:"isbn"`
	BorrowDate         time.Time  `json:"borrow_date"`
	DueDate            time.Time  `json:"due_date"`
	ReturnDate         *time.Time `json:"return_date,omitempty"`
	IsReturned         bool       `json:"is_returned"`
	IsOverdue          bool       `json:"is_overdue"`
	BorrowDurationDays int        `json:"borrow_duration_days"`
	ReadingRate        float64    `json:"reading_rate"`
}

// ReadingRateResponse reports an average reading rate
type ReadingRateResponse struct {
	ID                 int32   `json:"id"`
	AverageReadingRate float64 `json:"average_reading_rate"`
	Unit               string  `json:"unit"`
}

// LateFeeResponse reports the fee currently owed on a loan
type LateFeeResponse struct {
	BorrowingID int32           `json:"borrowing_id"`
	OverdueDays int             `json:"overdue_days"`
	FeePerDay   decimal.Decimal `json:"fee_per_day"`
	LateFee     decimal.Decimal `json:"late_fee"`
}

// NewBookResponse converts a Book to its response form
func NewBookResponse(b *Book, now time.Time) BookResponse {
	status := BookStatusAvailable
	if !b.IsAvailable() {
		status = BookStatusBorrowed
	}
	return BookResponse{
		ID:                 b.ID(),
		Title:              b.Title(),
		Author:             b.Author(),
		ISBN:               b.Isbn().String(),
		PageCount:          b.PageCount(),
		PublicationDate:    b.PublicationDate(),
		TotalCopies:        b.TotalCopies(),
		AvailableCopies:    b.AvailableCopies(),
		BorrowedCopies:     b.BorrowedCopies(),
		Genre:              b.Genre(),
		Description:        b.Description(),
		IsAvailable:        b.IsAvailable(),
		Status:             status,
		AverageReadingRate: b.AverageReadingRate(now),
	}
}

func NewBookSummary(b *Book) BookSummary {
	return BookSummary{
		ID:              b.ID(),
		Title:           b.Title(),
		Author:          b.Author(),
		ISBN:            b.Isbn().String(),
		AvailableCopies: b.AvailableCopies(),
		TotalCopies:     b.TotalCopies(),
		IsAvailable:     b.IsAvailable(),
	}
}

// NewBorrowerResponse converts a Borrower to its response form
func NewBorrowerResponse(b *Borrower) BorrowerResponse {
	return BorrowerResponse{
		ID:                   b.ID(),
		FirstName:            b.FirstName(),
		LastName:             b.LastName(),
		FullName:             b.FullName(),
		Email:                b.Email().String(),
		PhoneNumber:          b.PhoneNumber(),
		MembershipDate:       b.MembershipDate(),
		IsActive:             b.IsActive(),
		MaxBorrowLimit:       b.MaxBorrowLimit(),
		CurrentBorrowedCount: b.CurrentBorrowedCount(),
		CanBorrow:            b.CanBorrow(),
		TotalBooksRead:       b.TotalBooksRead(),
	}
}

// NewBorrowingResponse converts a Borrowing to its response form, computing
// the overdue fields at now.
func NewBorrowingResponse(b *Borrowing, now time.Time, feePerDay decimal.Decimal) BorrowingResponse {
	return BorrowingResponse{
		ID:                 b.ID(),
		BorrowerID:         b.BorrowerID(),
		BookID:             b.BookID(),
		BorrowDate:         b.BorrowDate(),
		DueDate:            b.DueDate(),
		ReturnDate:         b.ReturnDate(),
		IsReturned:         b.IsReturned(),
		IsOverdue:          b.IsOverdue(now),
		OverdueDays:        b.OverdueDays(now),
		LateFee:            b.LateFee(now, feePerDay),
		BorrowDurationDays: b.DurationDays(now),
	}
}

// CanBorrowResponse reports whether a borrower may take another book
type CanBorrowResponse struct {
	BorrowerID           int32  `json:"borrower_id"`
	CanBorrow            bool   `json:"can_borrow"`
	Reason               string `json:"reason,omitempty"`
	CurrentBorrowedCount int32  `json:"current_borrowed_count"`
	MaxBorrowLimit       int32  `json:"max_borrow_limit"`
}

// NewBorrowingHistoryEntry describes b together with the book it lent.
// book may be nil when the title is no longer in the catalogue.
func NewBorrowingHistoryEntry(b *Borrowing, book *Book, now time.Time) BorrowingHistoryEntry {
	entry := BorrowingHistoryEntry{
		ID:                 b.ID(),
		BorrowDate:         b.BorrowDate(),
		DueDate:            b.DueDate(),
		ReturnDate:         b.ReturnDate(),
		IsReturned:         b.IsReturned(),
		IsOverdue:          b.IsOverdue(now),
		BorrowDurationDays: b.DurationDays(now),
	}
	if book != nil {
		entry.BookTitle = book.Title()
		entry.Author = book.Author()
		entry.ISBN = book.Isbn().String()
		entry.ReadingRate = b.ReadingRate(book.PageCount(), now)
	}
	return entry
}
