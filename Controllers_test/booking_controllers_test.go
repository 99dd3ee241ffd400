package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/renthive/rental-app/models"
)

func bookingPayload(propertyID uint) map[string]any {
	return map[string]any{
		"property_id": propertyID,
		"start_date":  time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
		"end_date":    time.Now().AddDate(1, 1, 0).Format(time.RFC3339),
	}
}

func TestBookingRequestToApproval(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, landlordToken := seedUser(t, db, models.RoleLandlord)
	_, tenantToken := seedUser(t, db, models.RoleTenant)
	property := seedApprovedProperty(t, db, landlord.ID)

	w := doRequest(r, "POST", "/api/bookings", tenantToken, bookingPayload(property.ID))
	assert.Equal(t, http.StatusCreated, w.Code)

	var booking models.Booking
	assert.NoError(t, db.First(&booking).Error)
	assert.Equal(t, models.BookingPendingLandlord, booking.Status)

	// Landlord inbox shows it under pending and in all
	w = doRequest(r, "GET", "/api/rental-requests", landlordToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	counts := data["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["all"])
	assert.Equal(t, float64(1), counts["pending"])
	assert.Equal(t, float64(0), counts["approved"])
	assert.Equal(t, float64(0), counts["rejected"])

	w = doRequest(r, "POST", fmt.Sprintf("/api/bookings/%d/approve", booking.ID), landlordToken,
		map[string]string{"signing_method": "digital"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Approving moves the request out of pending; totals are recomputed,
	// not decremented locally.
	w = doRequest(r, "GET", "/api/rental-requests?tab=approved", landlordToken, nil)
	data = decodeData(t, w)
	counts = data["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["all"])
	assert.Equal(t, float64(0), counts["pending"])
	assert.Equal(t, float64(1), counts["approved"])
	requests := data["requests"].([]interface{})
	assert.Len(t, requests, 1)

	var contract models.Contract
	assert.NoError(t, db.Where("booking_id = ?", booking.ID).First(&contract).Error)
	assert.True(t, contract.LandlordSigned)
	assert.False(t, contract.TenantSigned)
}

func TestRejectedBookingLandsInRejectedTab(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, landlordToken := seedUser(t, db, models.RoleLandlord)
	_, tenantToken := seedUser(t, db, models.RoleTenant)
	property := seedApprovedProperty(t, db, landlord.ID)

	w := doRequest(r, "POST", "/api/bookings", tenantToken, bookingPayload(property.ID))
	assert.Equal(t, http.StatusCreated, w.Code)

	var booking models.Booking
	assert.NoError(t, db.First(&booking).Error)

	w = doRequest(r, "POST", fmt.Sprintf("/api/bookings/%d/reject", booking.ID), landlordToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, "GET", "/api/rental-requests?tab=rejected", landlordToken, nil)
	data := decodeData(t, w)
	assert.Len(t, data["requests"].([]interface{}), 1)

	// Terminal: approving afterwards must conflict
	w = doRequest(r, "POST", fmt.Sprintf("/api/bookings/%d/approve", booking.ID), landlordToken,
		map[string]string{"signing_method": "digital"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingDetailExposesAllowedActions(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, landlordToken := seedUser(t, db, models.RoleLandlord)
	tenant, tenantToken := seedUser(t, db, models.RoleTenant)
	property := seedApprovedProperty(t, db, landlord.ID)

	booking := models.Booking{
		TenantID:   tenant.ID,
		PropertyID: property.ID,
		Status:     models.BookingAwaitingDeposit,
		StartDate:  time.Now(),
		EndDate:    time.Now().AddDate(1, 0, 0),
	}
	assert.NoError(t, db.Create(&booking).Error)

	// Tenant sees exactly one action at the deposit step
	w := doRequest(r, "GET", fmt.Sprintf("/api/bookings/%d", booking.ID), tenantToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	actions := data["allowed_actions"].([]interface{})
	assert.Equal(t, []interface{}{"deposit"}, actions)

	// Landlord has nothing to do while waiting on the tenant's deposit
	w = doRequest(r, "GET", fmt.Sprintf("/api/bookings/%d", booking.ID), landlordToken, nil)
	data = decodeData(t, w)
	assert.Empty(t, data["allowed_actions"])
}

func TestStrangerCannotSeeBooking(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, _ := seedUser(t, db, models.RoleLandlord)
	tenant, _ := seedUser(t, db, models.RoleTenant)
	_, strangerToken := seedUser(t, db, models.RoleTenant)
	property := seedApprovedProperty(t, db, landlord.ID)

	booking := models.Booking{
		TenantID:   tenant.ID,
		PropertyID: property.ID,
		Status:     models.BookingPendingLandlord,
		StartDate:  time.Now(),
		EndDate:    time.Now().AddDate(1, 0, 0),
	}
	assert.NoError(t, db.Create(&booking).Error)

	w := doRequest(r, "GET", fmt.Sprintf("/api/bookings/%d", booking.ID), strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, landlordToken := seedUser(t, db, models.RoleLandlord)
	_, tenantToken := seedUser(t, db, models.RoleTenant)
	property := seedApprovedProperty(t, db, landlord.ID)

	// Pending listings cannot be booked
	pending := seedApprovedProperty(t, db, landlord.ID)
	assert.NoError(t, db.Model(&pending).Update("status", models.PropertyPendingReview).Error)
	w := doRequest(r, "POST", "/api/bookings", tenantToken, bookingPayload(pending.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Landlords do not file rental requests
	w = doRequest(r, "POST", "/api/bookings", landlordToken, bookingPayload(property.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Non-boarding bookings reject a room id
	payload := bookingPayload(property.ID)
	payload["room_id"] = 1
	w = doRequest(r, "POST", "/api/bookings", tenantToken, payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandoverFlowOverHTTP(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, landlordToken := seedUser(t, db, models.RoleLandlord)
	tenant, tenantToken := seedUser(t, db, models.RoleTenant)
	property := seedApprovedProperty(t, db, landlord.ID)

	booking := models.Booking{
		TenantID:   tenant.ID,
		PropertyID: property.ID,
		Status:     models.BookingEscrowFundedT,
		StartDate:  time.Now(),
		EndDate:    time.Now().AddDate(1, 0, 0),
	}
	assert.NoError(t, db.Create(&booking).Error)

	w := doRequest(r, "POST", fmt.Sprintf("/api/bookings/%d/handover", booking.ID), landlordToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, "POST", fmt.Sprintf("/api/bookings/%d/handover", booking.ID), tenantToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Booking
	assert.NoError(t, db.First(&updated, booking.ID).Error)
	assert.Equal(t, models.BookingActive, updated.Status)
}
