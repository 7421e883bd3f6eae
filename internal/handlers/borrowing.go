package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ngenohkevin/lending/internal/models"
	"github.com/ngenohkevin/lending/internal/services"
)

// LendingHandler handles borrow, return and extension requests
type LendingHandler struct {
	lendingService      services.LendingServiceInterface
	defaultDurationDays int
	feePerDay           decimal.Decimal
	now                 func() time.Time
}

// LendingHandlerConfig carries the loan settings used to read requests and
// render borrowings.
type LendingHandlerConfig struct {
	// DefaultDurationDays applies to borrow requests without duration_days.
	DefaultDurationDays int
	// FeePerDay prices the late fee shown on overdue borrowings.
	FeePerDay decimal.Decimal
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewLendingHandler creates a new lending handler
func NewLendingHandler(lendingService services.LendingServiceInterface, cfg LendingHandlerConfig) *LendingHandler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &LendingHandler{
		lendingService:      lendingService,
		defaultDurationDays: cfg.DefaultDurationDays,
		feePerDay:           cfg.FeePerDay,
		now:                 now,
	}
}

// BorrowBook handles book borrowing requests
// @Summary Borrow a book
// @Description Lend a copy of a book to a borrower. duration_days defaults to the configured loan length (14 days).
// @Tags borrowings
// @Accept json
// @Produce json
// @Param request body models.BorrowBookRequest true "Borrow book request"
// @Success 201 {object} SuccessResponse{data=models.BorrowingResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/borrowings/borrow [post]
func (h *LendingHandler) BorrowBook(c *gin.Context) {
	var req models.BorrowBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	borrowing, err := h.lendingService.Borrow(c.Request.Context(), req.BookID, req.BorrowerID, req.Duration(h.defaultDurationDays))
	if err != nil {
		respondError(c, err, "Failed to borrow book")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    h.response(borrowing),
		Message: "Book borrowed successfully",
	})
}

// ReturnBook handles book return requests
// @Summary Return a book
// @Tags borrowings
// @Produce json
// @Param id path int true "Borrowing ID"
// @Success 200 {object} SuccessResponse{data=models.BorrowingResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/borrowings/{id}/return [post]
func (h *LendingHandler) ReturnBook(c *gin.Context) {
	id, ok := parseID(c, "id", "borrowing")
	if !ok {
		return
	}

	borrowing, err := h.lendingService.Return(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to return book")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    h.response(borrowing),
		Message: "Book returned successfully",
	})
}

// ExtendBorrowing pushes the due date of an open loan back
// @Summary Extend a borrowing
// @Tags borrowings
// @Accept json
// @Produce json
// @Param id path int true "Borrowing ID"
// @Param request body models.ExtendBorrowingRequest true "Extension"
// @Success 200 {object} SuccessResponse{data=models.BorrowingResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/borrowings/{id}/extend [post]
func (h *LendingHandler) ExtendBorrowing(c *gin.Context) {
	id, ok := parseID(c, "id", "borrowing")
	if !ok {
		return
	}

	var req models.ExtendBorrowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	borrowing, err := h.lendingService.ExtendDueDate(c.Request.Context(), id, req.AdditionalDays)
	if err != nil {
		respondError(c, err, "Failed to extend borrowing")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    h.response(borrowing),
		Message: "Due date extended successfully",
	})
}

// GetBorrowing retrieves a borrowing by ID
// @Summary Get a borrowing
// @Tags borrowings
// @Produce json
// @Param id path int true "Borrowing ID"
// @Success 200 {object} SuccessResponse{data=models.BorrowingResponse}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowings/{id} [get]
func (h *LendingHandler) GetBorrowing(c *gin.Context) {
	id, ok := parseID(c, "id", "borrowing")
	if !ok {
		return
	}

	borrowing, err := h.lendingService.GetBorrowing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve borrowing")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    h.response(borrowing),
	})
}

// ListActiveBorrowings lists every open loan
// @Summary List active borrowings
// @Tags borrowings
// @Produce json
// @Success 200 {object} ListResponse
// @Router /api/v1/borrowings/active [get]
func (h *LendingHandler) ListActiveBorrowings(c *gin.Context) {
	borrowings, err := h.lendingService.ListActiveBorrowings(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list active borrowings")
		return
	}

	now := h.now()
	responses := make([]models.BorrowingResponse, 0, len(borrowings))
	for _, b := range borrowings {
		responses = append(responses, models.NewBorrowingResponse(b, now, h.feePerDay))
	}
	respondList(c, responses)
}

func (h *LendingHandler) response(b *models.Borrowing) models.BorrowingResponse {
	return models.NewBorrowingResponse(b, h.now(), h.feePerDay)
}
