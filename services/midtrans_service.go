package services

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/renthive/rental-app/utils"
)

// PaymentGateway abstracts the payment provider so the payment service can
// be tested without hitting Midtrans.
type PaymentGateway interface {
	// ChargeQRIS creates a QRIS charge and returns the QR string.
	ChargeQRIS(referenceID string, amount float64) (string, error)
	// CreateRedirect creates a hosted payment page and returns its URL.
	CreateRedirect(referenceID string, amount float64, payerName, payerEmail string) (string, error)
	// VerifySignature checks a webhook notification signature.
	VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool
}

// MidtransService is the Midtrans-backed gateway.
type MidtransService struct {
	serverKey string
	env       midtrans.EnvironmentType
	core      coreapi.Client
	snap      snap.Client
}

var (
	midtransService *MidtransService
	midtransOnce    sync.Once
)

// GetMidtransService returns the singleton gateway configured from the
// environment. Sandbox unless MIDTRANS_ENV=production.
func GetMidtransService() *MidtransService {
	midtransOnce.Do(func() {
		serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
		env := midtrans.Sandbox
		if os.Getenv("MIDTRANS_ENV") == "production" {
			env = midtrans.Production
		}
		if serverKey == "" {
			utils.ErrorLogger.Println("MIDTRANS_SERVER_KEY is empty, charges will fail")
		}

		ms := &MidtransService{serverKey: serverKey, env: env}
		ms.core.New(serverKey, env)
		ms.snap.New(serverKey, env)
		midtransService = ms
	})
	return midtransService
}

func (ms *MidtransService) ChargeQRIS(referenceID string, amount float64) (string, error) {
	req := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeQris,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  referenceID,
			GrossAmt: int64(amount),
		},
	}

	resp, err := ms.core.ChargeTransaction(req)
	if err != nil {
		return "", fmt.Errorf("midtrans charge failed: %w", err)
	}

	if resp.QRString != "" {
		return resp.QRString, nil
	}
	for _, action := range resp.Actions {
		if action.Name == "generate-qr-code" {
			return action.URL, nil
		}
	}
	return "", errors.New("midtrans response carried no QR code")
}

func (ms *MidtransService) CreateRedirect(referenceID string, amount float64, payerName, payerEmail string) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  referenceID,
			GrossAmt: int64(amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: payerName,
			Email: payerEmail,
		},
	}

	resp, err := ms.snap.CreateTransaction(req)
	if err != nil {
		return "", fmt.Errorf("midtrans snap transaction failed: %w", err)
	}
	return resp.RedirectURL, nil
}

// VerifySignature checks the sha512(order_id + status_code + gross_amount +
// server_key) signature Midtrans attaches to webhook notifications.
func (ms *MidtransService) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	payload := orderID + statusCode + grossAmount + ms.serverKey
	sum := sha512.Sum512([]byte(payload))
	return hex.EncodeToString(sum[:]) == signatureKey
}

// CheckStatus asks Midtrans for the current transaction status of a charge.
func (ms *MidtransService) CheckStatus(referenceID string) (string, error) {
	resp, err := ms.core.CheckTransaction(referenceID)
	if err != nil {
		return "", fmt.Errorf("midtrans status check failed: %w", err)
	}
	return resp.TransactionStatus, nil
}
