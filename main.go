package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/renthive/rental-app/config"
	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/router"
	"github.com/renthive/rental-app/services"
	"github.com/renthive/rental-app/utils"
	"gorm.io/gorm"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}
	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	go utils.CleanupBlacklist()

	// Redis is optional; with no client the search cache turns itself off.
	cache := services.NewSearchCache(config.InitRedis())

	// Audit trail goes to RabbitMQ when configured, otherwise a no-op.
	audit := services.NewAuditPublisher(os.Getenv("AMQP_URL"), "renthive.audit")
	defer audit.Close()

	lifecycle := services.NewBookingLifecycle(db, audit)
	chats := services.NewChatService(db)
	gateway := services.GetMidtransService()

	payments := services.NewPaymentService(db, lifecycle, gateway)
	payments.StartTimeoutChecker()

	r := router.SetupRouter(db, cache, lifecycle, chats, payments, gateway)

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatalf("Failed to start server: %v", err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.RoomType{},
		&models.Room{},
		&models.Booking{},
		&models.BookingEvent{},
		&models.Contract{},
		&models.TerminationRequest{},
		&models.Payment{},
		&models.Chat{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}
	utils.InfoLogger.Println("Database migration completed")
}
