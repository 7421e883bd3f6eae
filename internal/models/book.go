package models

import (
	"strings"
	"time"
)

// Book is a catalogue title with a finite number of physical copies.
// Invariant: 0 <= availableCopies <= totalCopies.
type Book struct {
	eventRecorder

	id              int32
	title           string
	author          string
	isbn            Isbn
	pageCount       int32
	publicationDate time.Time
	totalCopies     int32
	availableCopies int32
	genre           string
	description     string
	version         int32

	borrowings []*Borrowing
}

// BookRecord is the persisted form of a Book.
type BookRecord struct {
	ID              int32
	Title           string
	Author          string
	Isbn            string
	PageCount       int32
	PublicationDate time.Time
	TotalCopies     int32
	AvailableCopies int32
	Genre           string
	Description     string
	Version         int32
}

// NewBook creates a book with every copy available.
func NewBook(title, author string, isbn Isbn, pageCount int32, publicationDate time.Time, totalCopies int32, genre, description string) (*Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	if title == "" {
		return nil, NewValidationError("title", "title cannot be empty")
	}
	if author == "" {
		return nil, NewValidationError("author", "author cannot be empty")
	}
	if isbn.IsZero() {
		return nil, NewValidationError("isbn", "invalid ISBN format")
	}
	if pageCount <= 0 {
		return nil, NewValidationError("page_count", "page count must be positive")
	}
	if totalCopies <= 0 {
		return nil, NewValidationError("total_copies", "total copies must be positive")
	}

	return &Book{
		title:           title,
		author:          author,
		isbn:            isbn,
		pageCount:       pageCount,
		publicationDate: publicationDate,
		totalCopies:     totalCopies,
		availableCopies: totalCopies,
		genre:           genre,
		description:     description,
	}, nil
}

// RestoreBook rebuilds a Book from storage.
func RestoreBook(r BookRecord) (*Book, error) {
	isbn, err := NewIsbn(r.Isbn)
	if err != nil {
		return nil, NewInvariantError("book", r.ID, "stored ISBN is invalid")
	}
	if r.AvailableCopies < 0 || r.AvailableCopies > r.TotalCopies {
		return nil, NewInvariantError("book", r.ID, "available copies out of range")
	}

	return &Book{
		id:              r.ID,
		title:           r.Title,
		author:          r.Author,
		isbn:            isbn,
		pageCount:       r.PageCount,
		publicationDate: r.PublicationDate,
		totalCopies:     r.TotalCopies,
		availableCopies: r.AvailableCopies,
		genre:           r.Genre,
		description:     r.Description,
		version:         r.Version,
	}, nil
}

// Record returns the persisted form of b.
func (b *Book) Record() BookRecord {
	return BookRecord{
		ID:              b.id,
		Title:           b.title,
		Author:          b.author,
		Isbn:            b.isbn.String(),
		PageCount:       b.pageCount,
		PublicationDate: b.publicationDate,
		TotalCopies:     b.totalCopies,
		AvailableCopies: b.availableCopies,
		Genre:           b.genre,
		Description:     b.description,
		Version:         b.version,
	}
}

func (b *Book) ID() int32                  { return b.id }
func (b *Book) Title() string              { return b.title }
func (b *Book) Author() string             { return b.author }
func (b *Book) Isbn() Isbn                 { return b.isbn }
func (b *Book) PageCount() int32           { return b.pageCount }
func (b *Book) PublicationDate() time.Time { return b.publicationDate }
func (b *Book) TotalCopies() int32         { return b.totalCopies }
func (b *Book) AvailableCopies() int32     { return b.availableCopies }
func (b *Book) Genre() string              { return b.genre }
func (b *Book) Description() string        { return b.description }
func (b *Book) Version() int32             { return b.version }

func (b *Book) IsAvailable() bool { return b.availableCopies > 0 }

func (b *Book) BorrowedCopies() int32 { return b.totalCopies - b.availableCopies }

// Borrowings returns the loans attached by the store, if any.
func (b *Book) Borrowings() []*Borrowing {
	out := make([]*Borrowing, len(b.borrowings))
	copy(out, b.borrowings)
	return out
}

// AttachBorrowings sets the back-reference collection. Stores call this when
// loading; it does not change any lending state.
func (b *Book) AttachBorrowings(borrowings []*Borrowing) {
	b.borrowings = borrowings
}

// BorrowCopy lends out one copy.
func (b *Book) BorrowCopy(at time.Time) error {
	if b.availableCopies <= 0 {
		return &BookNotAvailableError{BookID: b.id, Title: b.title}
	}

	b.availableCopies--
	b.record(BookBorrowed{
		BookID:     b.id,
		BookTitle:  b.title,
		Author:     b.author,
		Available:  b.availableCopies,
		OccurredOn: at,
	})
	return nil
}

// ReturnCopy takes back one copy. Returning past the total means the stored
// counts are corrupt, so it fails with an invariant violation.
func (b *Book) ReturnCopy(at time.Time) error {
	if b.availableCopies >= b.totalCopies {
		return NewInvariantError("book", b.id, "cannot return more copies than total")
	}

	b.availableCopies++
	b.record(BookReturned{
		BookID:     b.id,
		BookTitle:  b.title,
		Author:     b.author,
		Available:  b.availableCopies,
		OccurredOn: at,
	})
	return nil
}

// UpdateCopies changes the number of owned copies, shifting the available
// count by the same delta. Copies out on loan cannot be removed.
func (b *Book) UpdateCopies(newTotal int32) error {
	if newTotal < 1 {
		return NewValidationError("total_copies", "total copies must be at least 1")
	}
	if borrowed := b.BorrowedCopies(); newTotal < borrowed {
		return NewConflictError("book %d has %d copies on loan, cannot reduce total copies to %d", b.id, borrowed, newTotal)
	}

	b.availableCopies = newTotal - b.BorrowedCopies()
	b.totalCopies = newTotal
	return nil
}

// UpdateDetails replaces the descriptive fields.
func (b *Book) UpdateDetails(title, author, genre, description string) error {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	if title == "" {
		return NewValidationError("title", "title cannot be empty")
	}
	if author == "" {
		return NewValidationError("author", "author cannot be empty")
	}

	b.title = title
	b.author = author
	b.genre = genre
	b.description = description
	return nil
}

// AverageReadingRate averages the non-zero reading rates of returned loans.
func (b *Book) AverageReadingRate(now time.Time) float64 {
	return averageRate(b.borrowings, func(br *Borrowing) int32 { return b.pageCount }, now)
}

func averageRate(borrowings []*Borrowing, pages func(*Borrowing) int32, now time.Time) float64 {
	var sum float64
	var n int
	for _, br := range borrowings {
		if !br.IsReturned() {
			continue
		}
		if rate := br.ReadingRate(pages(br), now); rate > 0 {
			sum += rate
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
