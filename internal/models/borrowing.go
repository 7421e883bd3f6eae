package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBorrowDurationDays is the loan period used when a request names none.
const DefaultBorrowDurationDays = 14

const day = 24 * time.Hour

// Borrowing is one loan of one book copy to one borrower.
type Borrowing struct {
	id         int32
	borrowerID int32
	bookID     int32
	borrowDate time.Time
	dueDate    time.Time
	returnDate *time.Time
	isReturned bool
	version    int32
}

// BorrowingRecord is the persisted form of a Borrowing.
type BorrowingRecord struct {
	ID         int32
	BorrowerID int32
	BookID     int32
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	IsReturned bool
	Version    int32
}

// NewBorrowing starts a loan at borrowDate lasting durationDays.
func NewBorrowing(borrowerID, bookID int32, borrowDate time.Time, durationDays int) (*Borrowing, error) {
	if borrowerID <= 0 {
		return nil, NewValidationError("borrower_id", "borrower ID must be positive")
	}
	if bookID <= 0 {
		return nil, NewValidationError("book_id", "book ID must be positive")
	}
	if durationDays <= 0 {
		return nil, NewValidationError("duration_days", "borrow duration must be greater than 0 days")
	}

	return &Borrowing{
		borrowerID: borrowerID,
		bookID:     bookID,
		borrowDate: borrowDate,
		dueDate:    borrowDate.AddDate(0, 0, durationDays),
	}, nil
}

// RestoreBorrowing rebuilds a Borrowing from storage.
func RestoreBorrowing(r BorrowingRecord) (*Borrowing, error) {
	if r.IsReturned != (r.ReturnDate != nil) {
		return nil, NewInvariantError("borrowing", r.ID, "returned flag and return date disagree")
	}
	if r.DueDate.Before(r.BorrowDate) {
		return nil, NewInvariantError("borrowing", r.ID, "due date precedes borrow date")
	}

	b := &Borrowing{
		id:         r.ID,
		borrowerID: r.BorrowerID,
		bookID:     r.BookID,
		borrowDate: r.BorrowDate,
		dueDate:    r.DueDate,
		isReturned: r.IsReturned,
		version:    r.Version,
	}
	if r.ReturnDate != nil {
		rd := *r.ReturnDate
		b.returnDate = &rd
	}
	return b, nil
}

// Record returns the persisted form of b.
func (b *Borrowing) Record() BorrowingRecord {
	r := BorrowingRecord{
		ID:         b.id,
		BorrowerID: b.borrowerID,
		BookID:     b.bookID,
		BorrowDate: b.borrowDate,
		DueDate:    b.dueDate,
		IsReturned: b.isReturned,
		Version:    b.version,
	}
	if b.returnDate != nil {
		rd := *b.returnDate
		r.ReturnDate = &rd
	}
	return r
}

func (b *Borrowing) ID() int32             { return b.id }
func (b *Borrowing) BorrowerID() int32     { return b.borrowerID }
func (b *Borrowing) BookID() int32         { return b.bookID }
func (b *Borrowing) BorrowDate() time.Time { return b.borrowDate }
func (b *Borrowing) DueDate() time.Time    { return b.dueDate }
func (b *Borrowing) IsReturned() bool      { return b.isReturned }
func (b *Borrowing) Version() int32        { return b.version }

// ReturnDate returns the return time, or nil while the loan is open.
func (b *Borrowing) ReturnDate() *time.Time {
	if b.returnDate == nil {
		return nil
	}
	rd := *b.returnDate
	return &rd
}

// Return closes the loan. A loan can be returned only once.
func (b *Borrowing) Return(now time.Time) error {
	if b.isReturned {
		return &AlreadyReturnedError{BorrowingID: b.id}
	}
	b.returnDate = &now
	b.isReturned = true
	return nil
}

// ExtendDueDate pushes the due date back by additionalDays.
func (b *Borrowing) ExtendDueDate(additionalDays int) error {
	if b.isReturned {
		return NewConflictError("cannot extend due date for returned borrowing %d", b.id)
	}
	if additionalDays <= 0 {
		return NewValidationError("additional_days", "additional days must be positive")
	}
	b.dueDate = b.dueDate.AddDate(0, 0, additionalDays)
	return nil
}

// IsOverdue reports whether the loan is open and past its due date.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	return !b.isReturned && now.After(b.dueDate)
}

// OverdueDays is the number of whole days past the due date, 0 if not overdue.
func (b *Borrowing) OverdueDays(now time.Time) int {
	if !b.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(b.dueDate) / day)
}

// DurationDays is the number of whole days between borrowing and return, or
// now for open loans.
func (b *Borrowing) DurationDays(now time.Time) int {
	end := now
	if b.returnDate != nil {
		end = *b.returnDate
	}
	return int(end.Sub(b.borrowDate) / day)
}

// ReadingRate is pages per day for a completed loan, 0 otherwise.
func (b *Borrowing) ReadingRate(pageCount int32, now time.Time) float64 {
	if pageCount <= 0 || !b.isReturned {
		return 0
	}
	days := b.DurationDays(now)
	if days <= 0 {
		return 0
	}
	return float64(pageCount) / float64(days)
}

// LateFee is OverdueDays times feePerDay, zero if the loan is not overdue.
func (b *Borrowing) LateFee(now time.Time, feePerDay decimal.Decimal) decimal.Decimal {
	if !b.IsOverdue(now) {
		return decimal.Zero
	}
	return feePerDay.Mul(decimal.NewFromInt(int64(b.OverdueDays(now))))
}

// InRange reports whether the loan started inside r.
func (b *Borrowing) InRange(r DateRange) bool {
	return r.Contains(b.borrowDate)
}

// DateRange is an optional, inclusive window on borrow dates.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Validate rejects a range whose start is after its end.
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return NewValidationError("start_date", "start date must not be after end date")
	}
	return nil
}
