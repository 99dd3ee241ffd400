package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/services"
	"github.com/renthive/rental-app/utils"
)

type ContractController struct {
	DB        *gorm.DB
	Lifecycle *services.BookingLifecycle
}

func NewContractController(db *gorm.DB, lifecycle *services.BookingLifecycle) *ContractController {
	return &ContractController{DB: db, Lifecycle: lifecycle}
}

// loadBookingForParty fetches the booking and checks the caller is the
// tenant, the landlord, or an admin.
func (tc *ContractController) loadBookingForParty(c *gin.Context) (*models.Booking, uint, bool) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return nil, 0, false
	}

	var booking models.Booking
	if err := tc.DB.Preload("Property").Preload("Contract").
		First(&booking, c.Param("booking_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return nil, 0, false
	}

	if booking.TenantID != userID && booking.Property.LandlordID != userID &&
		c.GetString("role") != models.RoleAdmin {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return nil, 0, false
	}
	return &booking, userID, true
}

// GetContract returns the contract attached to a booking.
func (tc *ContractController) GetContract(c *gin.Context) {
	booking, _, ok := tc.loadBookingForParty(c)
	if !ok {
		return
	}
	if booking.Contract == nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("no contract for this booking"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Contract", booking.Contract)
}

// GetBookingHistory returns the append-only event trail for a booking,
// oldest first.
func (tc *ContractController) GetBookingHistory(c *gin.Context) {
	booking, _, ok := tc.loadBookingForParty(c)
	if !ok {
		return
	}

	var events []models.BookingEvent
	if err := tc.DB.Where("booking_id = ?", booking.ID).
		Order("id asc").
		Find(&events).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking history", events)
}

// RequestTermination opens an early-termination request on an occupancy
// booking. The booking itself only moves once the counterpart accepts.
func (tc *ContractController) RequestTermination(c *gin.Context) {
	booking, userID, ok := tc.loadBookingForParty(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !booking.Status.IsOccupancy() {
		utils.RespondError(c, http.StatusConflict, services.ErrInvalidTransition)
		return
	}

	var open int64
	tc.DB.Model(&models.TerminationRequest{}).
		Where("booking_id = ? AND status = ?", booking.ID, models.TerminationPending).
		Count(&open)
	if open > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("a termination request is already pending"))
		return
	}

	termination := models.TerminationRequest{
		BookingID:   booking.ID,
		RequestedBy: userID,
		Reason:      req.Reason,
		Status:      models.TerminationPending,
	}
	if err := tc.DB.Create(&termination).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Termination requested", termination)
}

// RespondTermination lets the counterpart accept or decline. Accepting
// terminates the booking through the lifecycle.
func (tc *ContractController) RespondTermination(c *gin.Context) {
	booking, userID, ok := tc.loadBookingForParty(c)
	if !ok {
		return
	}

	var req struct {
		Accept bool `json:"accept"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var termination models.TerminationRequest
	if err := tc.DB.Where("booking_id = ? AND status = ?", booking.ID, models.TerminationPending).
		First(&termination).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if termination.RequestedBy == userID {
		utils.RespondError(c, http.StatusForbidden, errors.New("requester cannot respond to own request"))
		return
	}

	now := time.Now()
	termination.RespondedBy = &userID
	termination.RespondedAt = &now
	if !req.Accept {
		termination.Status = models.TerminationDeclined
		if err := tc.DB.Save(&termination).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Termination declined", termination)
		return
	}

	updated, err := tc.Lifecycle.Terminate(booking.ID, userID, c.GetString("role"), termination.Reason)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	termination.Status = models.TerminationAccepted
	if err := tc.DB.Save(&termination).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Termination accepted", gin.H{
		"booking":     updated,
		"termination": termination,
	})
}
