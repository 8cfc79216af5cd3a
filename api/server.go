package api

import (
	"github.com/gin-gonic/gin"

	"printbay/service"
)

// Server holds the service dependencies of the HTTP boundary
type Server struct {
	ledger    service.LedgerService
	rewards   service.RewardService
	boosts    service.BoostService
	intake    service.PaymentIntakeService
	checkout  service.CheckoutService
	orders    service.OrderRepository
	jwtSecret string
}

// NewServer creates a new API server
func NewServer(
	ledger service.LedgerService,
	rewards service.RewardService,
	boosts service.BoostService,
	intake service.PaymentIntakeService,
	checkout service.CheckoutService,
	orders service.OrderRepository,
	jwtSecret string,
) *Server {
	return &Server{
		ledger:    ledger,
		rewards:   rewards,
		boosts:    boosts,
		intake:    intake,
		checkout:  checkout,
		orders:    orders,
		jwtSecret: jwtSecret,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		// The processor retries this until it gets a 200, so it stays
		// outside auth; idempotency is the real protection
		v1.POST("/webhooks/midtrans", s.HandlePaymentNotification)

		v1.GET("/community/feed", s.ListFeed)
		v1.GET("/community/leaderboard", s.Leaderboard)

		protected := v1.Group("/")
		protected.Use(AuthMiddleware(s.jwtSecret))
		{
			protected.GET("/wallet", s.GetWallet)
			protected.GET("/wallet/transactions", s.GetTransactionHistory)

			protected.POST("/rewards/order", s.CreditOrderReward)
			protected.POST("/rewards/referral", s.CreditReferralReward)
			protected.POST("/rewards/milestone", s.CreditMilestoneReward)

			protected.POST("/community/posts", s.CreatePost)
			protected.POST("/community/posts/:id/vote", s.ToggleFreeVote)
			protected.POST("/community/posts/:id/boost", s.CreatePaidBoost)

			protected.POST("/checkout/itc", s.CreateITCCheckout)

			admin := protected.Group("/admin")
			admin.Use(AdminOnly())
			{
				admin.POST("/wallets/:user_id/adjust", s.AdjustWallet)
			}
		}
	}

	return r
}
