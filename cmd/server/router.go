package main

import (
	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lending/internal/handlers"
	"github.com/ngenohkevin/lending/internal/middleware"
)

func newRouter(app *application) *gin.Engine {
	r := gin.New()

	// Add global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	bookHandler := handlers.NewBookHandler(app.books)
	borrowerHandler := handlers.NewBorrowerHandler(app.borrowers)
	lendingHandler := handlers.NewLendingHandler(app.lending, handlers.LendingHandlerConfig{
		DefaultDurationDays: app.cfg.Lending.DefaultDurationDays,
		FeePerDay:           app.feePerDay,
	})
	analyticsHandler := handlers.NewAnalyticsHandler(app.analytics)

	// Rate limiting needs Redis; without it every limit is a no-op
	limit := func(h func(*middleware.RateLimiter) gin.HandlerFunc) gin.HandlerFunc {
		if app.rateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return h(app.rateLimiter)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.NoStore())
	v1.Use(limit((*middleware.RateLimiter).APILimit))
	{
		v1.GET("/ping", app.health.Ping)
		v1.GET("/health", app.health.Health)

		books := v1.Group("/books")
		{
			books.POST("", bookHandler.CreateBook)
			books.GET("", bookHandler.ListBooks)
			books.GET("/available", bookHandler.ListAvailableBooks)
			books.GET("/search", limit((*middleware.RateLimiter).SearchLimit), bookHandler.SearchBooks)
			books.GET("/most-borrowed", analyticsHandler.MostBorrowedBooks)
			books.GET("/:id", bookHandler.GetBook)
			books.PUT("/:id", bookHandler.UpdateBook)
			books.DELETE("/:id", bookHandler.DeleteBook)
			books.GET("/:id/reading-rate", analyticsHandler.BookReadingRate)
		}

		borrowers := v1.Group("/borrowers")
		{
			borrowers.POST("", borrowerHandler.CreateBorrower)
			borrowers.GET("", borrowerHandler.ListBorrowers)
			borrowers.GET("/active", borrowerHandler.ListActiveBorrowers)
			borrowers.GET("/top", analyticsHandler.TopBorrowers)
			borrowers.GET("/:id", borrowerHandler.GetBorrower)
			borrowers.PUT("/:id", borrowerHandler.UpdateBorrower)
			borrowers.DELETE("/:id", borrowerHandler.DeleteBorrower)
			borrowers.PUT("/:id/deactivate", borrowerHandler.DeactivateBorrower)
			borrowers.PUT("/:id/activate", borrowerHandler.ActivateBorrower)
			borrowers.GET("/:id/history", borrowerHandler.History)
			borrowers.GET("/:id/current-books", borrowerHandler.CurrentBooks)
			borrowers.GET("/:id/reading-rate", analyticsHandler.BorrowerReadingRate)
			borrowers.GET("/:id/can-borrow", borrowerHandler.CanBorrow)
		}

		lendingLimit := limit(func(rl *middleware.RateLimiter) gin.HandlerFunc {
			return rl.LendingLimit(app.cfg.RateLimit.LendingRequests, app.cfg.RateLimit.Window)
		})

		borrowings := v1.Group("/borrowings")
		{
			borrowings.POST("/borrow", lendingLimit, lendingHandler.BorrowBook)
			borrowings.GET("/active", lendingHandler.ListActiveBorrowings)
			borrowings.GET("/overdue", analyticsHandler.OverdueBorrowings)
			borrowings.GET("/:id", lendingHandler.GetBorrowing)
			borrowings.POST("/:id/return", lendingLimit, lendingHandler.ReturnBook)
			borrowings.POST("/:id/extend", lendingLimit, lendingHandler.ExtendBorrowing)
			borrowings.GET("/:id/late-fee", analyticsHandler.LateFee)
		}
	}

	// Root health check
	r.GET("/health", app.health.Health)

	return r
}
