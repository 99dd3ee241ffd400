package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/events"
	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/services"
	"github.com/renthive/rental-app/utils"
)

type BookingController struct {
	DB        *gorm.DB
	Lifecycle *services.BookingLifecycle
}

func NewBookingController(db *gorm.DB, lifecycle *services.BookingLifecycle) *BookingController {
	return &BookingController{DB: db, Lifecycle: lifecycle}
}

// CreateBooking files a rental request against an approved listing. Boarding
// requests must name a vacant room.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	tenantID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var req struct {
		PropertyID uint      `json:"property_id" binding:"required"`
		RoomID     *uint     `json:"room_id"`
		StartDate  time.Time `json:"start_date" binding:"required"`
		EndDate    time.Time `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var property models.Property
	if err := bc.DB.First(&property, req.PropertyID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if property.Status != models.PropertyApproved {
		utils.RespondError(c, http.StatusBadRequest, errors.New("property is not open for booking"))
		return
	}
	if property.LandlordID == tenantID {
		utils.RespondError(c, http.StatusBadRequest, errors.New("cannot book your own property"))
		return
	}

	if property.Type == models.PropertyTypeBoarding {
		if req.RoomID == nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("a boarding booking needs a room"))
			return
		}
		var room models.Room
		if err := bc.DB.Preload("RoomType").First(&room, *req.RoomID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		if room.Occupied {
			utils.RespondError(c, http.StatusConflict, errors.New("room is already occupied"))
			return
		}
	} else if req.RoomID != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("room only applies to boarding properties"))
		return
	}

	booking := models.Booking{
		TenantID:   tenantID,
		PropertyID: req.PropertyID,
		RoomID:     req.RoomID,
		Status:     models.BookingPendingLandlord,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	if err := bc.DB.Create(&booking).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	notif := models.Notification{
		UserID:  property.LandlordID,
		Title:   "New rental request",
		Message: fmt.Sprintf("You received a rental request for %q", property.Title),
	}
	if err := bc.DB.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("failed to notify landlord %d: %v", property.LandlordID, err)
	} else {
		events.BroadcastNotification(notif)
	}

	utils.RespondJSON(c, http.StatusCreated, "Booking created", booking)
}

// GetMyBookings lists the tenant's own requests.
func (bc *BookingController) GetMyBookings(c *gin.Context) {
	tenantID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var bookings []models.Booking
	if err := bc.DB.Preload("Property").Preload("Room.RoomType").Preload("Contract").
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "My bookings", bookings)
}

// GetRentalRequests lists bookings against the landlord's properties,
// bucketed into tabs with badge counts. Counts always come from the full
// set, never from local adjustments.
func (bc *BookingController) GetRentalRequests(c *gin.Context) {
	landlordID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var bookings []models.Booking
	if err := bc.DB.Preload("Property").Preload("Tenant").Preload("Room.RoomType").
		Joins("JOIN properties ON properties.id = bookings.property_id").
		Where("properties.landlord_id = ?", landlordID).
		Order("bookings.created_at desc").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	tab := services.RequestTab(c.DefaultQuery("tab", string(services.TabAll)))

	utils.RespondJSON(c, http.StatusOK, "Rental requests", gin.H{
		"requests": services.FilterByTab(bookings, tab),
		"counts":   services.CountRequests(bookings),
	})
}

// GetBookingByID returns the booking snapshot plus the exact action set the
// caller may perform in its current state.
func (bc *BookingController) GetBookingByID(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var booking models.Booking
	if err := bc.DB.Preload("Property").Preload("Tenant").Preload("Room.RoomType").
		Preload("Contract").
		First(&booking, c.Param("booking_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	role := c.GetString("role")
	isTenant := booking.TenantID == userID
	isLandlord := booking.Property.LandlordID == userID
	if !isTenant && !isLandlord && role != models.RoleAdmin {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	actions := []services.BookingAction{}
	if isTenant || isLandlord {
		actions = services.AllowedActions(&booking, role)
	}

	utils.RespondJSON(c, http.StatusOK, "Booking detail", gin.H{
		"booking":         booking,
		"allowed_actions": actions,
	})
}

// ApproveBooking: landlord approves and signs, creating the contract.
func (bc *BookingController) ApproveBooking(c *gin.Context) {
	landlordID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var req struct {
		SigningMethod string `json:"signing_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Lifecycle.Approve(paramID(c, "booking_id"), landlordID, req.SigningMethod)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking approved", booking)
}

// RejectBooking is terminal for the request.
func (bc *BookingController) RejectBooking(c *gin.Context) {
	landlordID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	booking, err := bc.Lifecycle.Reject(paramID(c, "booking_id"), landlordID)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking rejected", booking)
}

// SignContract: tenant countersigns, opening the deposit window.
func (bc *BookingController) SignContract(c *gin.Context) {
	tenantID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var req struct {
		SignedPdfURL string `json:"signed_pdf_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Lifecycle.Sign(paramID(c, "booking_id"), tenantID, req.SignedPdfURL)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Contract signed", booking)
}

// Handover is the landlord's ready mark or the tenant's move-in
// confirmation; the lifecycle decides which applies.
func (bc *BookingController) Handover(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	booking, err := bc.Lifecycle.Handover(paramID(c, "booking_id"), userID, c.GetString("role"))
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Handover recorded", booking)
}

// SettleBooking closes an occupancy booking at contract end.
func (bc *BookingController) SettleBooking(c *gin.Context) {
	landlordID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	booking, err := bc.Lifecycle.Settle(paramID(c, "booking_id"), landlordID)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking settled", booking)
}

func respondLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrNotParticipant), errors.Is(err, services.ErrNoPermission):
		utils.RespondError(c, http.StatusForbidden, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
