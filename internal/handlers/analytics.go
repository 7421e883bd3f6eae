package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lending/internal/models"
	"github.com/ngenohkevin/lending/internal/services"
)

// AnalyticsHandler serves rankings, reading rates and fee reports
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServiceInterface
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService services.AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// MostBorrowedBooks ranks books by number of loans
// @Summary Most borrowed books
// @Tags analytics
// @Produce json
// @Param count query int false "Number of books" default(10)
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/books/most-borrowed [get]
func (h *AnalyticsHandler) MostBorrowedBooks(c *gin.Context) {
	var query models.RankingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	books, err := h.analyticsService.MostBorrowed(c.Request.Context(), query.Count, query.Range())
	if err != nil {
		respondError(c, err, "Failed to rank books")
		return
	}
	respondList(c, books)
}

// TopBorrowers ranks borrowers by number of loans
// @Summary Top borrowers
// @Tags analytics
// @Produce json
// @Param count query int false "Number of borrowers" default(10)
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/borrowers/top [get]
func (h *AnalyticsHandler) TopBorrowers(c *gin.Context) {
	var query models.RankingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	borrowers, err := h.analyticsService.TopBorrowers(c.Request.Context(), query.Count, query.Range())
	if err != nil {
		respondError(c, err, "Failed to rank borrowers")
		return
	}
	respondList(c, borrowers)
}

// BookReadingRate reports the average pages per day read across returned loans
// @Summary Book reading rate
// @Tags analytics
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} SuccessResponse{data=models.ReadingRateResponse}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/books/{id}/reading-rate [get]
func (h *AnalyticsHandler) BookReadingRate(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	rate, err := h.analyticsService.BookReadingRate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to compute reading rate")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    rate,
	})
}

// BorrowerReadingRate reports a borrower's average pages per day
// @Summary Borrower reading rate
// @Tags analytics
// @Produce json
// @Param id path int true "Borrower ID"
// @Success 200 {object} SuccessResponse{data=models.ReadingRateResponse}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowers/{id}/reading-rate [get]
func (h *AnalyticsHandler) BorrowerReadingRate(c *gin.Context) {
	id, ok := parseID(c, "id", "borrower")
	if !ok {
		return
	}

	rate, err := h.analyticsService.BorrowerReadingRate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to compute reading rate")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    rate,
	})
}

// LateFee reports the fee accrued by a borrowing
// @Summary Late fee
// @Tags analytics
// @Produce json
// @Param id path int true "Borrowing ID"
// @Success 200 {object} SuccessResponse{data=models.LateFeeResponse}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/borrowings/{id}/late-fee [get]
func (h *AnalyticsHandler) LateFee(c *gin.Context) {
	id, ok := parseID(c, "id", "borrowing")
	if !ok {
		return
	}

	fee, err := h.analyticsService.LateFee(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to compute late fee")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    fee,
	})
}

// OverdueBorrowings lists open loans past their due date
// @Summary Overdue borrowings
// @Tags analytics
// @Produce json
// @Success 200 {object} ListResponse
// @Router /api/v1/borrowings/overdue [get]
func (h *AnalyticsHandler) OverdueBorrowings(c *gin.Context) {
	overdue, err := h.analyticsService.OverdueReport(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list overdue borrowings")
		return
	}
	respondList(c, overdue)
}
