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

type AdminController struct {
	DB    *gorm.DB
	Cache *services.SearchCache
}

func NewAdminController(db *gorm.DB, cache *services.SearchCache) *AdminController {
	return &AdminController{DB: db, Cache: cache}
}

// GetPendingProperties lists listings waiting for review, oldest first,
// with per-status counts for the review queue header.
func (ac *AdminController) GetPendingProperties(c *gin.Context) {
	var pending []models.Property
	if err := ac.DB.Preload("Landlord").Preload("RoomTypes").
		Where("status = ?", models.PropertyPendingReview).
		Order("created_at asc").
		Find(&pending).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	counts := map[string]int64{}
	for _, status := range []string{models.PropertyPendingReview, models.PropertyApproved, models.PropertyRejected} {
		var n int64
		ac.DB.Model(&models.Property{}).Where("status = ?", status).Count(&n)
		counts[status] = n
	}

	utils.RespondJSON(c, http.StatusOK, "Pending properties", gin.H{
		"properties": pending,
		"counts":     counts,
	})
}

// ReviewProperty approves or rejects a pending listing. A rejection must
// carry a reason so the landlord knows what to fix.
func (ac *AdminController) ReviewProperty(c *gin.Context) {
	adminID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var req struct {
		Approve bool   `json:"approve"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !req.Approve && req.Reason == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("a rejection needs a reason"))
		return
	}

	var property models.Property
	if err := ac.DB.Preload("Landlord").First(&property, c.Param("property_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if property.Status != models.PropertyPendingReview {
		utils.RespondError(c, http.StatusConflict, errors.New("property is not pending review"))
		return
	}

	now := time.Now()
	property.ReviewedBy = &adminID
	property.ReviewedAt = &now
	if req.Approve {
		property.Status = models.PropertyApproved
		property.RejectReason = nil
	} else {
		property.Status = models.PropertyRejected
		property.RejectReason = &req.Reason
	}
	if err := ac.DB.Save(&property).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	ac.Cache.Invalidate(c.Request.Context())

	verdict := "approved"
	if !req.Approve {
		verdict = "rejected"
	}
	notif := models.Notification{
		UserID:  property.LandlordID,
		Title:   "Listing review",
		Message: fmt.Sprintf("Your listing %q was %s", property.Title, verdict),
	}
	if err := ac.DB.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("failed to notify landlord %d: %v", property.LandlordID, err)
	} else {
		events.BroadcastNotification(notif)
	}
	events.BroadcastPropertyReview(property)

	utils.InfoLogger.Printf("admin %d %s property %d", adminID, verdict, property.ID)
	utils.RespondJSON(c, http.StatusOK, "Property reviewed", property)
}

// GetDashboardStats aggregates platform-wide counters for the admin home.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats := gin.H{}

	var users, landlords, tenants int64
	ac.DB.Model(&models.User{}).Count(&users)
	ac.DB.Model(&models.User{}).Where("role = ?", models.RoleLandlord).Count(&landlords)
	ac.DB.Model(&models.User{}).Where("role = ?", models.RoleTenant).Count(&tenants)
	stats["users"] = gin.H{"total": users, "landlords": landlords, "tenants": tenants}

	properties := map[string]int64{}
	for _, status := range []string{models.PropertyPendingReview, models.PropertyApproved, models.PropertyRejected} {
		var n int64
		ac.DB.Model(&models.Property{}).Where("status = ?", status).Count(&n)
		properties[status] = n
	}
	stats["properties"] = properties

	bookings := map[string]int64{}
	for _, status := range models.AllStatuses {
		var n int64
		ac.DB.Model(&models.Booking{}).Where("status = ?", status).Count(&n)
		bookings[string(status)] = n
	}
	stats["bookings"] = bookings

	var volume float64
	ac.DB.Model(&models.Payment{}).
		Where("status = ?", services.PaymentStatusSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&volume)
	stats["payment_volume"] = volume

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}
