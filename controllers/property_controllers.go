package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/services"
	"github.com/renthive/rental-app/utils"
)

type PropertyController struct {
	DB    *gorm.DB
	Cache *services.SearchCache
}

func NewPropertyController(db *gorm.DB, cache *services.SearchCache) *PropertyController {
	return &PropertyController{DB: db, Cache: cache}
}

// CreateProperty registers a listing. It lands in PENDING_REVIEW until an
// admin approves it; boarding houses carry their room types inline.
func (pc *PropertyController) CreateProperty(c *gin.Context) {
	landlordID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	type roomTypeReq struct {
		Name    string   `json:"name" binding:"required"`
		Price   float64  `json:"price" binding:"required"`
		Deposit float64  `json:"deposit" binding:"required"`
		Rooms   []string `json:"rooms"`
	}
	type request struct {
		Title       string        `json:"title" binding:"required"`
		Description string        `json:"description"`
		Type        string        `json:"type" binding:"required"`
		Address     string        `json:"address" binding:"required"`
		City        string        `json:"city" binding:"required"`
		Price       float64       `json:"price"`
		Deposit     float64       `json:"deposit"`
		Bedrooms    int           `json:"bedrooms"`
		Bathrooms   int           `json:"bathrooms"`
		AreaSqM     float64       `json:"area_sqm"`
		ImageUrls   []string      `json:"image_urls"`
		RoomTypes   []roomTypeReq `json:"room_types"`
	}

	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	switch req.Type {
	case models.PropertyTypeApartment, models.PropertyTypeHouse:
		if req.Price <= 0 || req.Deposit <= 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("price and deposit are required"))
			return
		}
	case models.PropertyTypeBoarding:
		if len(req.RoomTypes) == 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("a boarding house needs at least one room type"))
			return
		}
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("unknown property type"))
		return
	}

	images, _ := json.Marshal(req.ImageUrls)
	property := models.Property{
		LandlordID:  landlordID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Address:     req.Address,
		City:        req.City,
		Price:       req.Price,
		Deposit:     req.Deposit,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		AreaSqM:     req.AreaSqM,
		ImageUrls:   string(images),
		Status:      models.PropertyPendingReview,
	}

	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&property).Error; err != nil {
			return err
		}
		for _, rt := range req.RoomTypes {
			roomType := models.RoomType{
				PropertyID: property.ID,
				Name:       rt.Name,
				Price:      rt.Price,
				Deposit:    rt.Deposit,
			}
			if err := tx.Create(&roomType).Error; err != nil {
				return err
			}
			for _, number := range rt.Rooms {
				if err := tx.Create(&models.Room{RoomTypeID: roomType.ID, Number: number}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.Cache.Invalidate(c.Request.Context())
	utils.RespondJSON(c, http.StatusCreated, "Property submitted for review", property)
}

// UpdateProperty lets the owner edit fields; any edit sends the listing back
// to review.
func (pc *PropertyController) UpdateProperty(c *gin.Context) {
	landlordID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var property models.Property
	if err := pc.DB.First(&property, c.Param("property_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if property.LandlordID != landlordID {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Deposit     *float64 `json:"deposit"`
		ImageUrls   []string `json:"image_urls"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Title != nil {
		property.Title = *req.Title
	}
	if req.Description != nil {
		property.Description = *req.Description
	}
	if req.Price != nil {
		property.Price = *req.Price
	}
	if req.Deposit != nil {
		property.Deposit = *req.Deposit
	}
	if req.ImageUrls != nil {
		images, _ := json.Marshal(req.ImageUrls)
		property.ImageUrls = string(images)
	}
	property.Status = models.PropertyPendingReview
	property.RejectReason = nil

	if err := pc.DB.Save(&property).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.Cache.Invalidate(c.Request.Context())
	utils.RespondJSON(c, http.StatusOK, "Property updated", property)
}

// GetMyProperties lists the landlord's own listings with per-status counts.
func (pc *PropertyController) GetMyProperties(c *gin.Context) {
	landlordID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var properties []models.Property
	if err := pc.DB.Preload("RoomTypes.Rooms").
		Where("landlord_id = ?", landlordID).
		Order("created_at desc").
		Find(&properties).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	counts := gin.H{
		models.PropertyPendingReview: 0,
		models.PropertyApproved:      0,
		models.PropertyRejected:      0,
	}
	for _, p := range properties {
		counts[p.Status] = counts[p.Status].(int) + 1
	}

	utils.RespondJSON(c, http.StatusOK, "My properties", gin.H{
		"properties": properties,
		"counts":     counts,
	})
}

// SearchProperties is the public listing search: approved listings only,
// filtered, paginated, served from the Redis cache when warm.
func (pc *PropertyController) SearchProperties(c *gin.Context) {
	cacheKey := pc.Cache.Key(c.Request.URL.Query())
	if payload := pc.Cache.Get(c.Request.Context(), cacheKey); payload != "" {
		c.Data(http.StatusOK, "application/json", []byte(payload))
		return
	}

	query := pc.DB.Model(&models.Property{}).Where("status = ?", models.PropertyApproved)
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	if ptype := c.Query("type"); ptype != "" {
		query = query.Where("type = ?", ptype)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", v)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	requestedPage, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pagination := utils.NewPagination(total, pageSize, requestedPage)

	var properties []models.Property
	if err := query.Preload("RoomTypes").
		Order("created_at desc").
		Limit(pagination.PageSize).
		Offset(pagination.Offset()).
		Find(&properties).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	body := utils.JSONResponse{
		Status:  true,
		Message: "Search results",
		Data: gin.H{
			"properties": properties,
			"pagination": pagination,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.Cache.Set(c.Request.Context(), cacheKey, string(payload))
	c.Data(http.StatusOK, "application/json", payload)
}

// GetPropertyByID returns one listing with its room types.
func (pc *PropertyController) GetPropertyByID(c *gin.Context) {
	var property models.Property
	if err := pc.DB.Preload("RoomTypes.Rooms").Preload("Landlord").
		First(&property, c.Param("property_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Property detail", property)
}
