package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gem-platform/wallet-ledger/internal/api/handler"
	"github.com/gem-platform/wallet-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	walletHandler *handler.WalletHandler,
	bonusHandler *handler.BonusHandler,
	adminHandler *handler.AdminHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Wallet operations act on the authenticated caller's own ledger
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.RequireUser())
		{
			wallet.GET("/balances", walletHandler.GetBalances)
			wallet.GET("/history", walletHandler.GetHistory)
			wallet.POST("/credit", walletHandler.Credit)
			wallet.POST("/debit", walletHandler.Debit)
			wallet.POST("/withdraw", walletHandler.Withdraw)
			wallet.POST("/transfer", walletHandler.Transfer)
		}

		// Bonus claim operations
		bonus := v1.Group("/bonus")
		bonus.Use(middleware.RequireUser())
		{
			bonus.POST("/claim", bonusHandler.Claim)
			bonus.POST("/daily-visit", bonusHandler.DailyVisit)
		}

		// Administrative policy management
		admin := v1.Group("/admin")
		{
			admin.GET("/bonus-policies", adminHandler.ListPolicies)
			admin.PATCH("/bonus-policies/:id", adminHandler.UpdatePolicy)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
