package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/services"
	"github.com/renthive/rental-app/utils"
)

type PaymentController struct {
	DB       *gorm.DB
	Payments *services.PaymentService
	Gateway  services.PaymentGateway
}

func NewPaymentController(db *gorm.DB, payments *services.PaymentService, gateway services.PaymentGateway) *PaymentController {
	return &PaymentController{DB: db, Payments: payments, Gateway: gateway}
}

// CreateDepositPayment opens a deposit charge for the booking. Wallet
// settles immediately; qris and bank_transfer stay pending until the
// gateway webhook confirms them.
func (pc *PaymentController) CreateDepositPayment(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var req struct {
		Method string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := pc.Payments.CreateDepositPayment(paramID(c, "booking_id"), userID, c.GetString("role"), req.Method)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownPaymentMethod):
			utils.RespondError(c, http.StatusBadRequest, err)
		default:
			respondLifecycleError(c, err)
		}
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Payment created", payment)
}

// GetBookingPayments lists payments recorded against a booking for either
// party on the contract.
func (pc *PaymentController) GetBookingPayments(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var booking struct {
		ID         uint
		TenantID   uint
		LandlordID uint
	}
	if err := pc.DB.Table("bookings").
		Select("bookings.id, bookings.tenant_id, properties.landlord_id").
		Joins("JOIN properties ON properties.id = bookings.property_id").
		Where("bookings.id = ?", paramID(c, "booking_id")).
		Take(&booking).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if booking.TenantID != userID && booking.LandlordID != userID && c.GetString("role") != models.RoleAdmin {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var payments []map[string]any
	if err := pc.DB.Table("payments").
		Where("booking_id = ?", booking.ID).
		Order("created_at desc").
		Find(&payments).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Booking payments", payments)
}

// MidtransCallback receives the gateway's HTTP notification. The signature
// is verified before any state changes; an unknown order id still returns
// 200 so the gateway stops retrying.
func (pc *PaymentController) MidtransCallback(c *gin.Context) {
	var notif struct {
		OrderID           string `json:"order_id"`
		StatusCode        string `json:"status_code"`
		GrossAmount       string `json:"gross_amount"`
		SignatureKey      string `json:"signature_key"`
		TransactionStatus string `json:"transaction_status"`
		FraudStatus       string `json:"fraud_status"`
	}
	if err := c.ShouldBindJSON(&notif); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !pc.Gateway.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, notif.SignatureKey) {
		utils.ErrorLogger.Printf("midtrans callback signature mismatch for order %s", notif.OrderID)
		utils.RespondError(c, http.StatusForbidden, errors.New("invalid signature"))
		return
	}

	if err := pc.Payments.HandleNotification(notif.OrderID, notif.TransactionStatus, notif.FraudStatus); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, services.ErrPaymentNotPending) {
			utils.RespondJSON(c, http.StatusOK, "Notification ignored", nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification processed", nil)
}
