package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lending/internal/models"
	"github.com/ngenohkevin/lending/internal/services"
)

// BorrowerHandler handles borrower-related HTTP requests
type BorrowerHandler struct {
	borrowerService services.BorrowerServiceInterface
}

// NewBorrowerHandler creates a new borrower handler
func NewBorrowerHandler(borrowerService services.BorrowerServiceInterface) *BorrowerHandler {
	return &BorrowerHandler{
		borrowerService: borrowerService,
	}
}

// CreateBorrower registers a borrower
// @Summary Register a borrower
// @Tags borrowers
// @Accept json
// @Produce json
// @Param borrower body models.CreateBorrowerRequest true "Borrower data"
// @Success 201 {object} models.BorrowerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/borrowers [post]
func (h *BorrowerHandler) CreateBorrower(c *gin.Context) {
	var req models.CreateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	borrower, err := h.borrowerService.CreateBorrower(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create borrower")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    borrower,
		Message: "Borrower created successfully",
	})
}

// GetBorrower retrieves a borrower by ID
// @Summary Get a borrower by ID
// @Tags borrowers
// @Produce json
// @Param id path int true "Borrower ID"
// @Success 200 {object} models.BorrowerResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowers/{id} [get]
func (h *BorrowerHandler) GetBorrower(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	borrower, err := h.borrowerService.GetBorrower(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve borrower")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    borrower,
	})
}

// ListBorrowers lists every borrower
// @Summary List borrowers
// @Tags borrowers
// @Produce json
// @Success 200 {object} ListResponse
// @Router /api/v1/borrowers [get]
func (h *BorrowerHandler) ListBorrowers(c *gin.Context) {
	borrowers, err := h.borrowerService.ListBorrowers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list borrowers")
		return
	}
	respondList(c, borrowers)
}

// ListActiveBorrowers lists borrowers with lending privileges
// @Summary List active borrowers
// @Tags borrowers
// @Produce json
// @Success 200 {object} ListResponse
// @Router /api/v1/borrowers/active [get]
func (h *BorrowerHandler) ListActiveBorrowers(c *gin.Context) {
	borrowers, err := h.borrowerService.ListActiveBorrowers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list active borrowers")
		return
	}
	respondList(c, borrowers)
}

// UpdateBorrower updates a borrower profile
// @Summary Update a borrower
// @Tags borrowers
// @Accept json
// @Produce json
// @Param id path int true "Borrower ID"
// @Param borrower body models.UpdateBorrowerRequest true "Borrower data"
// @Success 200 {object} models.BorrowerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/borrowers/{id} [put]
func (h *BorrowerHandler) UpdateBorrower(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	var req models.UpdateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	borrower, err := h.borrowerService.UpdateBorrower(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "Failed to update borrower")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    borrower,
		Message: "Borrower updated successfully",
	})
}

// DeactivateBorrower withdraws lending privileges
// @Summary Deactivate a borrower
// @Tags borrowers
// @Produce json
// @Param id path int true "Borrower ID"
// @Success 200 {object} models.BorrowerResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowers/{id}/deactivate [put]
func (h *BorrowerHandler) DeactivateBorrower(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	borrower, err := h.borrowerService.DeactivateBorrower(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to deactivate borrower")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    borrower,
		Message: "Borrower deactivated successfully",
	})
}

// ActivateBorrower restores lending privileges
// @Summary Activate a borrower
// @Tags borrowers
// @Produce json
// @Param id path int true "Borrower ID"
// @Success 200 {object} models.BorrowerResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowers/{id}/activate [put]
func (h *BorrowerHandler) ActivateBorrower(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	borrower, err := h.borrowerService.ActivateBorrower(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to activate borrower")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    borrower,
		Message: "Borrower activated successfully",
	})
}

// DeleteBorrower removes a borrower without borrowing history
// @Summary Delete a borrower
// @Tags borrowers
// @Produce json
// @Param id path int true "Borrower ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/borrowers/{id} [delete]
func (h *BorrowerHandler) DeleteBorrower(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	if err := h.borrowerService.DeleteBorrower(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete borrower")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Borrower deleted successfully",
	})
}

// CanBorrow reports whether the borrower may borrow another book
// @Summary Check borrowing eligibility
// @Tags borrowers
// @Produce json
// @Param id path int true "Borrower ID"
// @Success 200 {object} models.CanBorrowResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowers/{id}/can-borrow [get]
func (h *BorrowerHandler) CanBorrow(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	result, err := h.borrowerService.CanBorrow(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to check borrowing eligibility")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// History lists a borrower's loans, optionally within a date window
// @Summary Borrowing history
// @Tags borrowers
// @Produce json
// @Param id path int true "Borrower ID"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowers/{id}/history [get]
func (h *BorrowerHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	var query models.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	history, err := h.borrowerService.History(c.Request.Context(), id, query.Range())
	if err != nil {
		respondError(c, err, "Failed to retrieve borrowing history")
		return
	}
	respondList(c, history)
}

// CurrentBooks lists the books a borrower currently holds
// @Summary Current books
// @Tags borrowers
// @Produce json
// @Param id path int true "Borrower ID"
// @Success 200 {object} ListResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowers/{id}/current-books [get]
func (h *BorrowerHandler) CurrentBooks(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	books, err := h.borrowerService.CurrentBooks(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve current books")
		return
	}
	respondList(c, books)
}
