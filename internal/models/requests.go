package models

import (
	"time"
)

// BorrowBookRequest represents a request to borrow a book
type BorrowBookRequest struct {
	BookID     int32 `json:"book_id" binding:"required,min=1"`
	BorrowerID int32 `json:"borrower_id" binding:"required,min=1"`
	// DurationDays falls back to the configured default when omitted.
	DurationDays *int `json:"duration_days"`
}

// Duration returns the requested loan length, or defaultDays when none was
// given. A non-positive defaultDays means DefaultBorrowDurationDays.
func (r BorrowBookRequest) Duration(defaultDays int) int {
	if r.DurationDays != nil {
		return *r.DurationDays
	}
	if defaultDays <= 0 {
		return DefaultBorrowDurationDays
	}
	return defaultDays
}

// ExtendBorrowingRequest represents a request to push a due date back
type ExtendBorrowingRequest struct {
	AdditionalDays int `json:"additional_days" binding:"required"`
}

// CreateBookRequest represents the request to add a title to the catalogue
type CreateBookRequest struct {
	Title           string    `json:"title" binding:"required,min=1,max=200"`
	Author          string    `json:"author" binding:"required,min=1,max=100"`
	ISBN            string    `json:"isbn" binding:"required,min=10,max=20"`
	PageCount       int32     `json:"page_count" binding:"required,min=1"`
	PublicationDate time.Time `json:"publication_date" binding:"required"`
	TotalCopies     int32     `json:"total_copies" binding:"required,min=1"`
	Genre           string    `json:"genre" binding:"max=50"`
	Description     string    `json:"description" binding:"max=1000"`
}

// UpdateBookRequest represents the request to update a book
type UpdateBookRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Author      string `json:"author" binding:"required,min=1,max=100"`
	Genre       string `json:"genre" binding:"max=50"`
	Description string `json:"description" binding:"max=1000"`
	TotalCopies *int32 `json:"total_copies" binding:"omitempty,min=1"`
}

// CreateBorrowerRequest represents the request to register a borrower
type CreateBorrowerRequest struct {
	FirstName      string `json:"first_name" binding:"required,min=1,max=50"`
	LastName       string `json:"last_name" binding:"required,min=1,max=50"`
	Email          string `json:"email" binding:"required"`
	PhoneNumber    string `json:"phone_number" binding:"max=20"`
	MaxBorrowLimit *int32 `json:"max_borrow_limit"`
}

// UpdateBorrowerRequest represents the request to update a borrower profile.
// Blank fields are left unchanged.
type UpdateBorrowerRequest struct {
	FirstName      string `json:"first_name" binding:"max=50"`
	LastName       string `json:"last_name" binding:"max=50"`
	PhoneNumber    string `json:"phone_number" binding:"max=20"`
	MaxBorrowLimit *int32 `json:"max_borrow_limit"`
}

// RankingQuery holds the query string of the most-borrowed and top-borrower
// reports
type RankingQuery struct {
	Count     int        `form:"count,default=10" binding:"min=1,max=100"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// Range converts the query dates to a DateRange. The end date is inclusive of
// the whole day.
func (q RankingQuery) Range() DateRange {
	r := DateRange{Start: q.StartDate}
	if q.EndDate != nil {
		end := q.EndDate.Add(24*time.Hour - time.Nanosecond)
		r.End = &end
	}
	return r
}

// HistoryQuery holds the optional date window of a borrower history request
type HistoryQuery struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

func (q HistoryQuery) Range() DateRange {
	return RankingQuery{StartDate: q.StartDate, EndDate: q.EndDate}.Range()
}
