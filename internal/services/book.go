package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ngenohkevin/lending/internal/models"
)

// BookServiceInterface defines the interface for book service operations
type BookServiceInterface interface {
	CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.BookResponse, error)
	GetBook(ctx context.Context, id int32) (*models.BookResponse, error)
	ListBooks(ctx context.Context) ([]models.BookResponse, error)
	ListAvailableBooks(ctx context.Context) ([]models.BookResponse, error)
	SearchBooks(ctx context.Context, term string) ([]models.BookResponse, error)
	UpdateBook(ctx context.Context, id int32, req models.UpdateBookRequest) (*models.BookResponse, error)
	DeleteBook(ctx context.Context, id int32) error
}

// BookService handles catalogue business logic
type BookService struct {
	store  Store
	logger *slog.Logger
	settings
}

// NewBookService creates a new book service
func NewBookService(store Store, logger *slog.Logger, opts ...Option) *BookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookService{
		store:    store,
		logger:   logger,
		settings: newSettings(opts),
	}
}

// CreateBook adds a new title with all copies available
func (s *BookService) CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.BookResponse, error) {
	isbn, err := models.NewIsbn(req.ISBN)
	if err != nil {
		return nil, err
	}

	book, err := models.NewBook(req.Title, req.Author, isbn, req.PageCount, req.PublicationDate, req.TotalCopies, req.Genre, req.Description)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Books().Create(ctx, book)
	if err != nil {
		return nil, persistence("create book", err)
	}

	s.logger.Info("Book created", "book_id", created.ID(), "isbn", isbn.Normalized())
	return s.response(created), nil
}

// GetBook retrieves a book by ID
func (s *BookService) GetBook(ctx context.Context, id int32) (*models.BookResponse, error) {
	book, err := s.store.Books().Get(ctx, id)
	if err != nil {
		return nil, persistence("get book", err)
	}
	return s.response(book), nil
}

// ListBooks returns the whole catalogue
func (s *BookService) ListBooks(ctx context.Context) ([]models.BookResponse, error) {
	books, err := s.store.Books().ListAll(ctx)
	if err != nil {
		return nil, persistence("list books", err)
	}
	return s.responses(books), nil
}

// ListAvailableBooks returns the books with at least one copy on the shelf
func (s *BookService) ListAvailableBooks(ctx context.Context) ([]models.BookResponse, error) {
	books, err := s.store.Books().ListAvailable(ctx)
	if err != nil {
		return nil, persistence("list available books", err)
	}
	return s.responses(books), nil
}

// SearchBooks matches term against title, author and description
func (s *BookService) SearchBooks(ctx context.Context, term string) ([]models.BookResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, models.NewValidationError("q", "search term is required")
	}

	books, err := s.store.Books().Search(ctx, term)
	if err != nil {
		return nil, persistence("search books", err)
	}
	return s.responses(books), nil
}

// UpdateBook replaces a book's details and, when given, its number of copies
func (s *BookService) UpdateBook(ctx context.Context, id int32, req models.UpdateBookRequest) (*models.BookResponse, error) {
	var updated *models.Book

	err := RetryOnConflict(ctx, func(ctx context.Context) error {
		book, err := s.store.Books().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := book.UpdateDetails(req.Title, req.Author, req.Genre, req.Description); err != nil {
			return err
		}
		if req.TotalCopies != nil {
			if err := book.UpdateCopies(*req.TotalCopies); err != nil {
				return err
			}
		}
		updated, err = s.store.Books().Update(ctx, book)
		return err
	}, s.retryOptions...)
	if err != nil {
		return nil, persistence("update book", err)
	}

	s.logger.Info("Book updated", "book_id", id)
	return s.response(updated), nil
}

// DeleteBook removes a book that has never been lent out
func (s *BookService) DeleteBook(ctx context.Context, id int32) error {
	book, err := s.store.Books().Get(ctx, id)
	if err != nil {
		return persistence("get book", err)
	}
	if book.BorrowedCopies() > 0 {
		return models.NewConflictError("cannot delete book %d while %d copies are borrowed", id, book.BorrowedCopies())
	}
	if len(book.Borrowings()) > 0 {
		return models.NewConflictError("cannot delete book %d with borrowing history", id)
	}

	if err := s.store.Books().Delete(ctx, id); err != nil {
		return persistence("delete book", err)
	}

	s.logger.Info("Book deleted", "book_id", id)
	return nil
}

func (s *BookService) response(book *models.Book) *models.BookResponse {
	resp := models.NewBookResponse(book, s.now())
	return &resp
}

func (s *BookService) responses(books []*models.Book) []models.BookResponse {
	now := s.now()
	out := make([]models.BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, models.NewBookResponse(b, now))
	}
	return out
}
