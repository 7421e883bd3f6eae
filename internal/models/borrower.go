package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMaxBorrowLimit applies when a borrower is registered without a limit.
const DefaultMaxBorrowLimit = 5

// Borrower is a library member with lending privileges.
type Borrower struct {
	id             int32
	firstName      string
	lastName       string
	email          Email
	phoneNumber    string
	membershipDate time.Time
	isActive       bool
	maxBorrowLimit int32
	version        int32

	borrowings []*Borrowing
}

// BorrowerRecord is the persisted form of a Borrower.
type BorrowerRecord struct {
	ID             int32
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	MembershipDate time.Time
	IsActive       bool
	MaxBorrowLimit int32
	Version        int32
}

// NewBorrower registers an active borrower whose membership starts at joined.
func NewBorrower(firstName, lastName string, email Email, phoneNumber string, maxBorrowLimit int32, joined time.Time) (*Borrower, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if firstName == "" {
		return nil, NewValidationError("first_name", "first name cannot be empty")
	}
	if lastName == "" {
		return nil, NewValidationError("last_name", "last name cannot be empty")
	}
	if email.IsZero() {
		return nil, NewValidationError("email", "invalid email format")
	}
	if maxBorrowLimit <= 0 {
		return nil, NewValidationError("max_borrow_limit", "max borrow limit must be positive")
	}

	return &Borrower{
		firstName:      firstName,
		lastName:       lastName,
		email:          email,
		phoneNumber:    strings.TrimSpace(phoneNumber),
		membershipDate: joined,
		isActive:       true,
		maxBorrowLimit: maxBorrowLimit,
	}, nil
}

// RestoreBorrower rebuilds a Borrower from storage.
func RestoreBorrower(r BorrowerRecord) (*Borrower, error) {
	email, err := NewEmail(r.Email)
	if err != nil {
		return nil, NewInvariantError("borrower", r.ID, "stored email is invalid")
	}
	if r.MaxBorrowLimit <= 0 {
		return nil, NewInvariantError("borrower", r.ID, "stored borrow limit is not positive")
	}

	return &Borrower{
		id:             r.ID,
		firstName:      r.FirstName,
		lastName:       r.LastName,
		email:          email,
		phoneNumber:    r.PhoneNumber,
		membershipDate: r.MembershipDate,
		isActive:       r.IsActive,
		maxBorrowLimit: r.MaxBorrowLimit,
		version:        r.Version,
	}, nil
}

// Record returns the persisted form of b.
func (b *Borrower) Record() BorrowerRecord {
	return BorrowerRecord{
		ID:             b.id,
		FirstName:      b.firstName,
		LastName:       b.lastName,
		Email:          b.email.String(),
		PhoneNumber:    b.phoneNumber,
		MembershipDate: b.membershipDate,
		IsActive:       b.isActive,
		MaxBorrowLimit: b.maxBorrowLimit,
		Version:        b.version,
	}
}

func (b *Borrower) ID() int32                 { return b.id }
func (b *Borrower) FirstName() string         { return b.firstName }
func (b *Borrower) LastName() string          { return b.lastName }
func (b *Borrower) Email() Email              { return b.email }
func (b *Borrower) PhoneNumber() string       { return b.phoneNumber }
func (b *Borrower) MembershipDate() time.Time { return b.membershipDate }
func (b *Borrower) IsActive() bool            { return b.isActive }
func (b *Borrower) MaxBorrowLimit() int32     { return b.maxBorrowLimit }
func (b *Borrower) Version() int32            { return b.version }

func (b *Borrower) FullName() string {
	return fmt.Sprintf("%s %s", b.firstName, b.lastName)
}

// Borrowings returns the loans attached by the store.
func (b *Borrower) Borrowings() []*Borrowing {
	out := make([]*Borrowing, len(b.borrowings))
	copy(out, b.borrowings)
	return out
}

// AttachBorrowings sets the borrower's loan collection. Stores call this when
// loading.
func (b *Borrower) AttachBorrowings(borrowings []*Borrowing) {
	b.borrowings = borrowings
}

// CurrentBorrowedCount is the number of loans not yet returned.
func (b *Borrower) CurrentBorrowedCount() int32 {
	var n int32
	for _, br := range b.borrowings {
		if !br.IsReturned() {
			n++
		}
	}
	return n
}

func (b *Borrower) CanBorrow() bool {
	return b.isActive && b.CurrentBorrowedCount() < b.maxBorrowLimit
}

// CheckCanBorrow explains why CanBorrow is false.
func (b *Borrower) CheckCanBorrow() error {
	if !b.isActive {
		return &BorrowerInactiveError{BorrowerID: b.id}
	}
	if current := b.CurrentBorrowedCount(); current >= b.maxBorrowLimit {
		return &BorrowLimitExceededError{BorrowerID: b.id, MaxLimit: b.maxBorrowLimit, CurrentCount: current}
	}
	return nil
}

// BorrowBook lends book to b within this single aggregate: it checks both
// sides, records the loan on b and takes a copy from book. Cross-aggregate
// persistence goes through the lending service instead.
func (b *Borrower) BorrowBook(book *Book, now time.Time, durationDays int) (*Borrowing, error) {
	if err := b.CheckCanBorrow(); err != nil {
		return nil, err
	}
	if !book.IsAvailable() {
		return nil, &BookNotAvailableError{BookID: book.ID(), Title: book.Title()}
	}

	borrowing, err := NewBorrowing(b.id, book.ID(), now, durationDays)
	if err != nil {
		return nil, err
	}
	if err := book.BorrowCopy(now); err != nil {
		return nil, err
	}

	b.borrowings = append(b.borrowings, borrowing)
	return borrowing, nil
}

// ReturnBook closes b's open loan of book.
func (b *Borrower) ReturnBook(book *Book, now time.Time) (*Borrowing, error) {
	for _, br := range b.borrowings {
		if br.BookID() != book.ID() || br.IsReturned() {
			continue
		}
		if err := br.Return(now); err != nil {
			return nil, err
		}
		if err := book.ReturnCopy(now); err != nil {
			return nil, err
		}
		return br, nil
	}
	return nil, NewConflictError("book %d is not currently borrowed by borrower %d", book.ID(), b.id)
}

// UpdateProfile replaces the non-blank fields.
func (b *Borrower) UpdateProfile(firstName, lastName, phoneNumber string) {
	if s := strings.TrimSpace(firstName); s != "" {
		b.firstName = s
	}
	if s := strings.TrimSpace(lastName); s != "" {
		b.lastName = s
	}
	if s := strings.TrimSpace(phoneNumber); s != "" {
		b.phoneNumber = s
	}
}

func (b *Borrower) UpdateBorrowLimit(newLimit int32) error {
	if newLimit <= 0 {
		return NewValidationError("max_borrow_limit", "borrow limit must be positive")
	}
	b.maxBorrowLimit = newLimit
	return nil
}

func (b *Borrower) Activate()   { b.isActive = true }
func (b *Borrower) Deactivate() { b.isActive = false }

// BorrowingHistory returns the loans that started inside r.
func (b *Borrower) BorrowingHistory(r DateRange) []*Borrowing {
	var out []*Borrowing
	for _, br := range b.borrowings {
		if br.InRange(r) {
			out = append(out, br)
		}
	}
	return out
}

// TotalBooksRead counts returned loans.
func (b *Borrower) TotalBooksRead() int32 {
	var n int32
	for _, br := range b.borrowings {
		if br.IsReturned() {
			n++
		}
	}
	return n
}

// AverageReadingRate averages reading rates across returned loans, looking up
// each book's page count in pageCounts. Books missing from the map count as 0
// pages and are ignored.
func (b *Borrower) AverageReadingRate(pageCounts map[int32]int32, now time.Time) float64 {
	return averageRate(b.borrowings, func(br *Borrowing) int32 { return pageCounts[br.BookID()] }, now)
}
