package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/utils"
)

func setupLifecycleDB(t *testing.T) *gorm.DB {
	utils.InitLogger()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Property{}, &models.RoomType{}, &models.Room{},
		&models.Booking{}, &models.BookingEvent{}, &models.Contract{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

var seedSeq int

func seedBooking(t *testing.T, db *gorm.DB, status models.BookingStatus) models.Booking {
	seedSeq++
	landlord := models.User{Name: "Landlord", Email: fmt.Sprintf("l%d@test.dev", seedSeq), Password: "x", Role: models.RoleLandlord}
	tenant := models.User{Name: "Tenant", Email: fmt.Sprintf("t%d@test.dev", seedSeq), Password: "x", Role: models.RoleTenant}
	assert.NoError(t, db.Create(&landlord).Error)
	assert.NoError(t, db.Create(&tenant).Error)

	property := models.Property{
		LandlordID: landlord.ID,
		Title:      "Riverside Apartment",
		Type:       models.PropertyTypeApartment,
		Address:    "12 Riverside Rd",
		City:       "Jakarta",
		Price:      450,
		Deposit:    900,
		Status:     models.PropertyApproved,
	}
	assert.NoError(t, db.Create(&property).Error)

	booking := models.Booking{
		TenantID:   tenant.ID,
		PropertyID: property.ID,
		Status:     status,
	}
	assert.NoError(t, db.Create(&booking).Error)

	booking.Property = property
	return booking
}

func TestAwaitingDepositTenantSeesExactlyDeposit(t *testing.T) {
	b := models.Booking{Status: models.BookingAwaitingDeposit}
	assert.Equal(t, []BookingAction{ActionDeposit}, AllowedActions(&b, models.RoleTenant))
	assert.Empty(t, AllowedActions(&b, models.RoleLandlord))
}

func TestPendingLandlordActions(t *testing.T) {
	b := models.Booking{Status: models.BookingPendingLandlord}
	assert.ElementsMatch(t, []BookingAction{ActionApprove, ActionReject}, AllowedActions(&b, models.RoleLandlord))
	assert.Empty(t, AllowedActions(&b, models.RoleTenant))
}

func TestTerminalStatesAdmitNoAction(t *testing.T) {
	for _, s := range models.AllStatuses {
		if !s.IsTerminal() {
			continue
		}
		b := models.Booking{Status: s}
		assert.Empty(t, AllowedActions(&b, models.RoleTenant), "status %s", s)
		assert.Empty(t, AllowedActions(&b, models.RoleLandlord), "status %s", s)
	}
}

func TestAllowedActionsTotalOverStatusAndRole(t *testing.T) {
	// every (status, role, flag) combination must yield a defined result
	for _, s := range models.AllStatuses {
		for _, role := range []string{models.RoleTenant, models.RoleLandlord, models.RoleAdmin} {
			for _, funded := range []bool{false, true} {
				b := models.Booking{Status: s, LandlordEscrowFunded: funded}
				assert.NotNil(t, AllowedActions(&b, role))
			}
		}
	}
}

func TestEscrowFundedLandlordActions(t *testing.T) {
	b := models.Booking{Status: models.BookingEscrowFundedT}
	assert.ElementsMatch(t, []BookingAction{ActionDeposit, ActionHandover}, AllowedActions(&b, models.RoleLandlord))

	b.LandlordEscrowFunded = true
	assert.ElementsMatch(t, []BookingAction{ActionHandover}, AllowedActions(&b, models.RoleLandlord))
}

func TestApproveCreatesContractAndEvent(t *testing.T) {
	db := setupLifecycleDB(t)
	booking := seedBooking(t, db, models.BookingPendingLandlord)
	lc := NewBookingLifecycle(db, nil)

	updated, err := lc.Approve(booking.ID, booking.Property.LandlordID, "digital")
	assert.NoError(t, err)
	assert.Equal(t, models.BookingPendingSignature, updated.Status)

	var contract models.Contract
	assert.NoError(t, db.Where("booking_id = ?", booking.ID).First(&contract).Error)
	assert.True(t, contract.LandlordSigned)
	assert.False(t, contract.TenantSigned)
	assert.Contains(t, contract.ContractCode, "CT-")

	var event models.BookingEvent
	assert.NoError(t, db.Where("booking_id = ?", booking.ID).First(&event).Error)
	assert.Equal(t, string(ActionApprove), event.Action)
	assert.Equal(t, models.BookingPendingLandlord, event.FromStatus)
	assert.Equal(t, models.BookingPendingSignature, event.ToStatus)

	var notif models.Notification
	assert.NoError(t, db.Where("user_id = ?", booking.TenantID).First(&notif).Error)
}

func TestRejectIsTerminal(t *testing.T) {
	db := setupLifecycleDB(t)
	booking := seedBooking(t, db, models.BookingPendingLandlord)
	lc := NewBookingLifecycle(db, nil)

	updated, err := lc.Reject(booking.ID, booking.Property.LandlordID)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingRejected, updated.Status)

	_, err = lc.Approve(booking.ID, booking.Property.LandlordID, "digital")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestInvalidActionLeavesStateUntouched(t *testing.T) {
	db := setupLifecycleDB(t)
	booking := seedBooking(t, db, models.BookingPendingLandlord)
	lc := NewBookingLifecycle(db, nil)

	// tenant cannot sign before approval
	_, err := lc.Sign(booking.ID, booking.TenantID, "")
	assert.Error(t, err)

	var reloaded models.Booking
	assert.NoError(t, db.First(&reloaded, booking.ID).Error)
	assert.Equal(t, models.BookingPendingLandlord, reloaded.Status)

	var eventCount int64
	db.Model(&models.BookingEvent{}).Where("booking_id = ?", booking.ID).Count(&eventCount)
	assert.Zero(t, eventCount)
}

func TestStrangerCannotApprove(t *testing.T) {
	db := setupLifecycleDB(t)
	booking := seedBooking(t, db, models.BookingPendingLandlord)
	lc := NewBookingLifecycle(db, nil)

	_, err := lc.Approve(booking.ID, booking.Property.LandlordID+999, "digital")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestFullLifecycleSingleEscrow(t *testing.T) {
	db := setupLifecycleDB(t)
	booking := seedBooking(t, db, models.BookingPendingLandlord)
	lc := NewBookingLifecycle(db, nil)
	landlordID := booking.Property.LandlordID

	b, err := lc.Approve(booking.ID, landlordID, "digital")
	assert.NoError(t, err)
	assert.Equal(t, models.BookingPendingSignature, b.Status)

	b, err = lc.Sign(booking.ID, booking.TenantID, "https://cdn.renthive.dev/contracts/1.pdf")
	assert.NoError(t, err)
	assert.Equal(t, models.BookingAwaitingDeposit, b.Status)
	assert.NotNil(t, b.DepositDeadline)

	b, err = lc.ApplyDeposit(booking.ID, booking.TenantID, models.RoleTenant)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingEscrowFundedT, b.Status)

	b, err = lc.Handover(booking.ID, landlordID, models.RoleLandlord)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingReadyForHandover, b.Status)

	b, err = lc.Handover(booking.ID, booking.TenantID, models.RoleTenant)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingActive, b.Status)

	b, err = lc.Settle(booking.ID, landlordID)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingSettled, b.Status)

	var eventCount int64
	db.Model(&models.BookingEvent{}).Where("booking_id = ?", booking.ID).Count(&eventCount)
	assert.Equal(t, int64(6), eventCount)
}

func TestSignPersistsDepositDeadline(t *testing.T) {
	db := setupLifecycleDB(t)
	booking := seedBooking(t, db, models.BookingPendingSignature)
	lc := NewBookingLifecycle(db, nil)

	_, err := lc.Sign(booking.ID, booking.TenantID, "https://cdn.renthive.dev/contracts/2.pdf")
	assert.NoError(t, err)

	// the sweeper reads the deadline from the database, so the column
	// itself must carry it
	var reloaded models.Booking
	assert.NoError(t, db.First(&reloaded, booking.ID).Error)
	assert.NotNil(t, reloaded.DepositDeadline)
	if reloaded.DepositDeadline != nil {
		assert.WithinDuration(t, time.Now().Add(depositWindow), *reloaded.DepositDeadline, time.Minute)
	}
}

func TestDualEscrowHandover(t *testing.T) {
	db := setupLifecycleDB(t)
	booking := seedBooking(t, db, models.BookingEscrowFundedT)
	lc := NewBookingLifecycle(db, nil)
	landlordID := booking.Property.LandlordID

	b, err := lc.ApplyDeposit(booking.ID, landlordID, models.RoleLandlord)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingEscrowFundedT, b.Status)
	assert.True(t, b.LandlordEscrowFunded)

	// a second counter-escrow is refused
	_, err = lc.ApplyDeposit(booking.ID, landlordID, models.RoleLandlord)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	b, err = lc.Handover(booking.ID, landlordID, models.RoleLandlord)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingReadyForHandover, b.Status)

	b, err = lc.Handover(booking.ID, booking.TenantID, models.RoleTenant)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingDualEscrowFunded, b.Status)
}

func TestExpireCancelsAwaitingDeposit(t *testing.T) {
	db := setupLifecycleDB(t)
	booking := seedBooking(t, db, models.BookingAwaitingDeposit)
	lc := NewBookingLifecycle(db, nil)

	b, err := lc.Expire(booking.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, b.Status)

	// expiry only applies to the deposit window
	active := seedBooking(t, db, models.BookingActive)
	_, err = lc.Expire(active.ID)
	assert.Error(t, err)
}
