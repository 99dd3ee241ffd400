package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/utils"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GetNotifications returns the caller's notifications newest-first with an
// unread count for the badge.
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var notifications []models.Notification
	if err := nc.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(100).
		Find(&notifications).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var unread int64
	nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&unread)

	utils.RespondJSON(c, http.StatusOK, "Notifications", gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkNotificationRead flags one notification as read.
func (nc *NotificationController) MarkNotificationRead(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	result := nc.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", paramID(c, "notification_id"), userID).
		Update("read", true)
	if result.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, gorm.ErrRecordNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification read", nil)
}

// DeleteNotification removes one of the caller's notifications.
func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	result := nc.DB.Where("id = ? AND user_id = ?", paramID(c, "notification_id"), userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, gorm.ErrRecordNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification deleted", nil)
}

// MarkAllNotificationsRead clears the caller's unread badge.
func (nc *NotificationController) MarkAllNotificationsRead(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	if err := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "All notifications read", nil)
}
