package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lending/internal/models"
	"github.com/ngenohkevin/lending/internal/services"
)

// BookHandler handles book-related HTTP requests
type BookHandler struct {
	bookService services.BookServiceInterface
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService services.BookServiceInterface) *BookHandler {
	return &BookHandler{
		bookService: bookService,
	}
}

// CreateBook creates a new book
// @Summary Create a new book
// @Description Add a title to the catalogue with all copies available
// @Tags books
// @Accept json
// @Produce json
// @Param book body models.CreateBookRequest true "Book data"
// @Success 201 {object} models.BookResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	book, err := h.bookService.CreateBook(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create book")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    book,
		Message: "Book created successfully",
	})
}

// GetBook retrieves a book by ID
// @Summary Get a book by ID
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} models.BookResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	book, err := h.bookService.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve book")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    book,
	})
}

// ListBooks lists the whole catalogue
// @Summary List books
// @Tags books
// @Produce json
// @Success 200 {object} ListResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	books, err := h.bookService.ListBooks(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list books")
		return
	}
	respondList(c, books)
}

// ListAvailableBooks lists books with at least one copy on the shelf
// @Summary List available books
// @Tags books
// @Produce json
// @Success 200 {object} ListResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/books/available [get]
func (h *BookHandler) ListAvailableBooks(c *gin.Context) {
	books, err := h.bookService.ListAvailableBooks(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list available books")
		return
	}
	respondList(c, books)
}

// SearchBooks searches title, author and description
// @Summary Search books
// @Tags books
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/books/search [get]
func (h *BookHandler) SearchBooks(c *gin.Context) {
	books, err := h.bookService.SearchBooks(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err, "Failed to search books")
		return
	}
	respondList(c, books)
}

// UpdateBook updates an existing book
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Param book body models.UpdateBookRequest true "Book data"
// @Success 200 {object} models.BookResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	var req models.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	book, err := h.bookService.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "Failed to update book")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    book,
		Message: "Book updated successfully",
	})
}

// DeleteBook removes a book that was never lent out
// @Summary Delete a book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	if err := h.bookService.DeleteBook(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete book")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Book deleted successfully",
	})
}
