package models

import "time"

// Event type names as they appear on the event stream.
const (
	EventBookBorrowed = "book.borrowed"
	EventBookReturned = "book.returned"
)

// DomainEvent is a fact recorded by an aggregate during a mutation. Events are
// collected on the aggregate and published only after the mutation commits.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// BookBorrowed is recorded when a copy of a book is lent out.
type BookBorrowed struct {
	BookID     int32     `json:"book_id"`
	BookTitle  string    `json:"book_title"`
	Author     string    `json:"author"`
	Available  int32     `json:"available_copies"`
	OccurredOn time.Time `json:"occurred_on"`
}

func (e BookBorrowed) EventType() string     { return EventBookBorrowed }
func (e BookBorrowed) OccurredAt() time.Time { return e.OccurredOn }

// BookReturned is recorded when a lent copy comes back.
type BookReturned struct {
	BookID     int32     `json:"book_id"`
	BookTitle  string    `json:"book_title"`
	Author     string    `json:"author"`
	Available  int32     `json:"available_copies"`
	OccurredOn time.Time `json:"occurred_on"`
}

func (e BookReturned) EventType() string     { return EventBookReturned }
func (e BookReturned) OccurredAt() time.Time { return e.OccurredOn }

// eventRecorder is embedded by aggregates that record domain events.
type eventRecorder struct {
	pending []DomainEvent
}

func (r *eventRecorder) record(e DomainEvent) {
	r.pending = append(r.pending, e)
}

// PullEvents returns the recorded events and clears them.
func (r *eventRecorder) PullEvents() []DomainEvent {
	events := r.pending
	r.pending = nil
	return events
}
