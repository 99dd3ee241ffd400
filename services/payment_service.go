package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/events"
	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/utils"
)

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
	PaymentStatusExpired = "expired"
)

// Payment methods
const (
	PaymentMethodQris         = "qris"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodWallet       = "wallet"
)

var (
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrPaymentNotPending    = errors.New("payment is not pending")
)

// PaymentService creates escrow charges and applies their settlement to the
// booking lifecycle.
type PaymentService struct {
	db        *gorm.DB
	lifecycle *BookingLifecycle
	gateway   PaymentGateway
}

func NewPaymentService(db *gorm.DB, lifecycle *BookingLifecycle, gateway PaymentGateway) *PaymentService {
	return &PaymentService{db: db, lifecycle: lifecycle, gateway: gateway}
}

// CreateDepositPayment opens an escrow charge for a booking. The amount comes
// from the room type for boarding rooms, from the property otherwise. Wallet
// payments settle immediately (the PAID flow); qris returns a QR string and
// bank transfer a redirect URL.
func (s *PaymentService) CreateDepositPayment(bookingID, payerID uint, role, method string) (*models.Payment, error) {
	var booking models.Booking
	if err := s.db.Preload("Property").Preload("Room.RoomType").Preload("Tenant").First(&booking, bookingID).Error; err != nil {
		return nil, err
	}

	if err := checkParty(&booking, payerID, role); err != nil {
		return nil, err
	}
	// refuse to open a charge the lifecycle would reject on settlement
	if _, _, err := nextState(&booking, role, ActionDeposit); err != nil {
		return nil, err
	}

	purpose := models.PaymentPurposeDeposit
	if role == models.RoleLandlord {
		purpose = models.PaymentPurposeCounterDeposit
	}

	payment := models.Payment{
		BookingID:   booking.ID,
		PayerID:     payerID,
		Purpose:     purpose,
		Amount:      booking.Property.DepositAmount(booking.Room),
		Status:      PaymentStatusPending,
		Method:      method,
		ReferenceID: "PAY-" + uuid.NewString(),
	}

	switch method {
	case PaymentMethodWallet:
		// wallet balance settles without a gateway round trip; the payment
		// row and the escrow transition commit together
		now := time.Now()
		payment.Status = PaymentStatusSuccess
		payment.PaymentTime = &now
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			_, err := s.lifecycle.ApplyDepositTx(tx, booking.ID, payerID, role)
			return err
		})
		if err != nil {
			return nil, err
		}
		events.BroadcastPaymentUpdate(payment)
		return &payment, nil

	case PaymentMethodQris:
		qr, err := s.gateway.ChargeQRIS(payment.ReferenceID, payment.Amount)
		if err != nil {
			return nil, err
		}
		payment.QRCode = qr

	case PaymentMethodBankTransfer:
		url, err := s.gateway.CreateRedirect(payment.ReferenceID, payment.Amount,
			booking.Tenant.Name, booking.Tenant.Email)
		if err != nil {
			return nil, err
		}
		payment.PaymentURL = url

	default:
		return nil, ErrUnknownPaymentMethod
	}

	expiry := time.Now().Add(24 * time.Hour)
	payment.ExpiredAt = &expiry
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}

	events.BroadcastPaymentPending(payment)
	return &payment, nil
}

// HandleNotification applies a verified gateway webhook. Settlement drives
// the booking's deposit transition; failures and expiries only close the
// payment and leave the booking free for a retry.
func (s *PaymentService) HandleNotification(orderID, transactionStatus, fraudStatus string) error {
	var payment models.Payment
	if err := s.db.Where("reference_id = ?", orderID).First(&payment).Error; err != nil {
		return err
	}
	if payment.Status != PaymentStatusPending {
		return ErrPaymentNotPending
	}

	switch transactionStatus {
	case "settlement":
		return s.applySuccess(&payment)
	case "capture":
		if fraudStatus == "accept" {
			return s.applySuccess(&payment)
		}
		return s.close(&payment, PaymentStatusFailed)
	case "expire":
		return s.close(&payment, PaymentStatusExpired)
	case "cancel", "deny":
		return s.close(&payment, PaymentStatusFailed)
	case "pending":
		return nil
	default:
		return fmt.Errorf("unhandled transaction status %q", transactionStatus)
	}
}

func (s *PaymentService) applySuccess(payment *models.Payment) error {
	now := time.Now()
	payment.Status = PaymentStatusSuccess
	payment.PaymentTime = &now

	role := models.RoleTenant
	if payment.Purpose == models.PaymentPurposeCounterDeposit {
		role = models.RoleLandlord
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(payment).Error; err != nil {
			return err
		}
		_, err := s.lifecycle.ApplyDepositTx(tx, payment.BookingID, payment.PayerID, role)
		return err
	})
	if err != nil {
		return err
	}

	events.BroadcastPaymentUpdate(*payment)
	return nil
}

func (s *PaymentService) close(payment *models.Payment, status string) error {
	payment.Status = status
	if err := s.db.Save(payment).Error; err != nil {
		return err
	}
	events.BroadcastPaymentUpdate(*payment)
	return nil
}

// StartTimeoutChecker runs the expiry sweep in the background.
func (s *PaymentService) StartTimeoutChecker() {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		defer ticker.Stop()
		for range ticker.C {
			s.sweepExpired()
		}
	}()
}

// sweepExpired closes pending payments past their expiry and cancels
// bookings whose deposit deadline passed.
func (s *PaymentService) sweepExpired() {
	now := time.Now()

	var stale []models.Payment
	if err := s.db.Where("status = ? AND expired_at IS NOT NULL AND expired_at < ?",
		PaymentStatusPending, now).Find(&stale).Error; err != nil {
		utils.ErrorLogger.Printf("payment sweep query failed: %v", err)
		return
	}
	for i := range stale {
		if err := s.close(&stale[i], PaymentStatusExpired); err != nil {
			utils.ErrorLogger.Printf("failed to expire payment %d: %v", stale[i].ID, err)
		}
	}

	var overdue []models.Booking
	if err := s.db.Where("status = ? AND deposit_deadline IS NOT NULL AND deposit_deadline < ?",
		models.BookingAwaitingDeposit, now).Find(&overdue).Error; err != nil {
		utils.ErrorLogger.Printf("booking sweep query failed: %v", err)
		return
	}
	for _, b := range overdue {
		if _, err := s.lifecycle.Expire(b.ID); err != nil {
			utils.ErrorLogger.Printf("failed to cancel overdue booking %d: %v", b.ID, err)
		}
	}
}
