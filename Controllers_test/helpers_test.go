package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/router"
	"github.com/renthive/rental-app/services"
	"github.com/renthive/rental-app/utils"
)

var seedSeq int

// setupTestDB opens a per-test in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
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
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// stubGateway stands in for Midtrans in HTTP tests.
type stubGateway struct {
	validSignature bool
}

func (g *stubGateway) ChargeQRIS(referenceID string, amount float64) (string, error) {
	return "stub-qr-" + referenceID, nil
}

func (g *stubGateway) CreateRedirect(referenceID string, amount float64, payerName, payerEmail string) (string, error) {
	return "https://pay.example/" + referenceID, nil
}

func (g *stubGateway) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	return g.validSignature
}

// setupRouterForTest wires the full route table against a test database.
func setupRouterForTest(db *gorm.DB, gateway services.PaymentGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	lifecycle := services.NewBookingLifecycle(db, nil)
	chats := services.NewChatService(db)
	payments := services.NewPaymentService(db, lifecycle, gateway)
	cache := services.NewSearchCache(nil)

	return router.SetupRouter(db, cache, lifecycle, chats, payments, gateway)
}

// seedUser inserts a user and returns it together with a bearer token.
func seedUser(t *testing.T, db *gorm.DB, role string) (models.User, string) {
	seedSeq++
	user := models.User{
		Name:     fmt.Sprintf("User %d", seedSeq),
		Email:    fmt.Sprintf("user%d@test.dev", seedSeq),
		Password: "x",
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return user, token
}

// seedApprovedProperty inserts an approved apartment listing.
func seedApprovedProperty(t *testing.T, db *gorm.DB, landlordID uint) models.Property {
	seedSeq++
	property := models.Property{
		LandlordID: landlordID,
		Title:      fmt.Sprintf("Listing %d", seedSeq),
		Type:       models.PropertyTypeApartment,
		Address:    "1 Test Street",
		City:       "Jakarta",
		Price:      1500,
		Deposit:    900,
		Status:     models.PropertyApproved,
	}
	if err := db.Create(&property).Error; err != nil {
		t.Fatalf("failed to seed property: %v", err)
	}
	return property
}

// doRequest performs an authenticated JSON request against the router.
func doRequest(r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of the response envelope.
func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, w.Body.String())
	}
	data, _ := resp["data"].(map[string]interface{})
	return data
}
