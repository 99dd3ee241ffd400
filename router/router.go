package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/controllers"
	"github.com/renthive/rental-app/events"
	"github.com/renthive/rental-app/middlewares"
	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/services"
)

// SetupRouter wires every HTTP surface: public search and auth, the
// authenticated tenant/landlord API, the admin review console, webhooks
// and the realtime websocket endpoint.
func SetupRouter(
	db *gorm.DB,
	cache *services.SearchCache,
	lifecycle *services.BookingLifecycle,
	chats *services.ChatService,
	payments *services.PaymentService,
	gateway services.PaymentGateway,
) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.MetricsMiddleware())
	// registered before any route so every handler chain includes it
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	userCtrl := controllers.NewUserController(db)
	propertyCtrl := controllers.NewPropertyController(db, cache)
	bookingCtrl := controllers.NewBookingController(db, lifecycle)
	paymentCtrl := controllers.NewPaymentController(db, payments, gateway)
	chatCtrl := controllers.NewChatController(chats)
	contractCtrl := controllers.NewContractController(db, lifecycle)
	notificationCtrl := controllers.NewNotificationController(db)
	adminCtrl := controllers.NewAdminController(db, cache)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rate limiter for login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Listing search is open; only approved properties are returned.
	r.GET("/properties", propertyCtrl.SearchProperties)
	r.GET("/properties/:property_id", propertyCtrl.GetPropertyByID)

	// Midtrans server-to-server notification
	r.POST("/payments/callback", paymentCtrl.MidtransCallback)

	// Realtime events (token comes in as a query param on upgrade)
	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware())
	ws.GET("", events.HandleWebSocket)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)
	auth.POST("/logout", userCtrl.Logout)

	// PROPERTIES (landlord)
	landlord := auth.Group("/")
	landlord.Use(middlewares.RequireRole(models.RoleLandlord))
	{
		landlord.POST("/properties", propertyCtrl.CreateProperty)
		landlord.PATCH("/properties/:property_id", propertyCtrl.UpdateProperty)
		landlord.GET("/my-properties", propertyCtrl.GetMyProperties)

		// Rental requests inbox with tab buckets
		landlord.GET("/rental-requests", bookingCtrl.GetRentalRequests)
		landlord.POST("/bookings/:booking_id/approve", bookingCtrl.ApproveBooking)
		landlord.POST("/bookings/:booking_id/reject", bookingCtrl.RejectBooking)
		landlord.POST("/bookings/:booking_id/settle", bookingCtrl.SettleBooking)
	}

	// BOOKINGS (tenant)
	tenant := auth.Group("/")
	tenant.Use(middlewares.RequireRole(models.RoleTenant))
	{
		tenant.POST("/bookings", bookingCtrl.CreateBooking)
		tenant.GET("/my-bookings", bookingCtrl.GetMyBookings)
		tenant.POST("/bookings/:booking_id/sign", bookingCtrl.SignContract)
	}

	// Shared booking surface (both parties)
	auth.GET("/bookings/:booking_id", bookingCtrl.GetBookingByID)
	auth.POST("/bookings/:booking_id/handover", bookingCtrl.Handover)
	auth.GET("/bookings/:booking_id/contract", contractCtrl.GetContract)
	auth.GET("/bookings/:booking_id/history", contractCtrl.GetBookingHistory)
	auth.POST("/bookings/:booking_id/termination", contractCtrl.RequestTermination)
	auth.POST("/bookings/:booking_id/termination/respond", contractCtrl.RespondTermination)

	// PAYMENTS
	auth.POST("/bookings/:booking_id/payments", paymentCtrl.CreateDepositPayment)
	auth.GET("/bookings/:booking_id/payments", paymentCtrl.GetBookingPayments)

	// CHATS
	auth.POST("/chats", chatCtrl.CreateChat)
	auth.GET("/chats", chatCtrl.GetChats)
	auth.GET("/chats/:chat_id", chatCtrl.OpenChat)
	auth.POST("/chats/:chat_id/messages", chatCtrl.SendMessage)
	auth.POST("/chats/:chat_id/read", chatCtrl.MarkRead)

	// NOTIFICATIONS
	auth.GET("/notifications", notificationCtrl.GetNotifications)
	auth.PATCH("/notifications/:notification_id/read", notificationCtrl.MarkNotificationRead)
	auth.PATCH("/notifications", notificationCtrl.MarkAllNotificationsRead)
	auth.DELETE("/notifications/:notification_id", notificationCtrl.DeleteNotification)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := auth.Group("/admin")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", userCtrl.GetAllUsers)
		admin.GET("/properties/pending", adminCtrl.GetPendingProperties)
		admin.POST("/properties/:property_id/review", adminCtrl.ReviewProperty)
		admin.GET("/dashboard", adminCtrl.GetDashboardStats)
	}

	return r
}
