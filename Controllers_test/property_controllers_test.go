package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renthive/rental-app/models"
)

func TestSearchPagination(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, _ := seedUser(t, db, models.RoleLandlord)
	for i := 0; i < 23; i++ {
		seedApprovedProperty(t, db, landlord.ID)
	}

	w := doRequest(r, "GET", "/properties?page=1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(23), pagination["total_items"])
	assert.Equal(t, float64(3), pagination["total_pages"])
	assert.Len(t, data["properties"].([]interface{}), 10)

	// Last page holds the remainder
	w = doRequest(r, "GET", "/properties?page=3", "", nil)
	data = decodeData(t, w)
	assert.Len(t, data["properties"].([]interface{}), 3)

	// Past the end clamps to the last page instead of returning empty
	w = doRequest(r, "GET", "/properties?page=4", "", nil)
	data = decodeData(t, w)
	pagination = data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["current_page"])
	assert.Len(t, data["properties"].([]interface{}), 3)
}

func TestSearchOnlyReturnsApproved(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, _ := seedUser(t, db, models.RoleLandlord)
	seedApprovedProperty(t, db, landlord.ID)
	hidden := seedApprovedProperty(t, db, landlord.ID)
	assert.NoError(t, db.Model(&hidden).Update("status", models.PropertyPendingReview).Error)

	w := doRequest(r, "GET", "/properties", "", nil)
	data := decodeData(t, w)
	assert.Len(t, data["properties"].([]interface{}), 1)
}

func TestSearchFilters(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, _ := seedUser(t, db, models.RoleLandlord)
	jakarta := seedApprovedProperty(t, db, landlord.ID)
	bandung := seedApprovedProperty(t, db, landlord.ID)
	assert.NoError(t, db.Model(&bandung).Updates(map[string]any{"city": "Bandung", "price": 5000}).Error)

	w := doRequest(r, "GET", "/properties?city=Bandung", "", nil)
	data := decodeData(t, w)
	assert.Len(t, data["properties"].([]interface{}), 1)

	w = doRequest(r, "GET", "/properties?max_price=2000", "", nil)
	data = decodeData(t, w)
	properties := data["properties"].([]interface{})
	assert.Len(t, properties, 1)
	first := properties[0].(map[string]interface{})
	assert.Equal(t, float64(jakarta.ID), first["id"])
}

func TestCreatePropertyGoesToReview(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	_, landlordToken := seedUser(t, db, models.RoleLandlord)
	_, tenantToken := seedUser(t, db, models.RoleTenant)

	payload := map[string]any{
		"title":   "Sunny Apartment",
		"type":    models.PropertyTypeApartment,
		"address": "12 Example Road",
		"city":    "Jakarta",
		"price":   1800,
		"deposit": 1000,
	}

	// Tenants cannot list properties
	w := doRequest(r, "POST", "/api/properties", tenantToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, "POST", "/api/properties", landlordToken, payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	var property models.Property
	assert.NoError(t, db.First(&property).Error)
	assert.Equal(t, models.PropertyPendingReview, property.Status)

	// Not visible in public search until an admin approves it
	w = doRequest(r, "GET", "/properties", "", nil)
	data := decodeData(t, w)
	assert.Empty(t, data["properties"])
}

func TestAdminReviewFlow(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouterForTest(db, &stubGateway{})

	landlord, _ := seedUser(t, db, models.RoleLandlord)
	admin, adminToken := seedUser(t, db, models.RoleAdmin)

	property := seedApprovedProperty(t, db, landlord.ID)
	assert.NoError(t, db.Model(&property).Update("status", models.PropertyPendingReview).Error)

	w := doRequest(r, "GET", "/api/admin/properties/pending", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Len(t, data["properties"].([]interface{}), 1)

	// Rejection without a reason is refused
	w = doRequest(r, "POST", fmt.Sprintf("/api/admin/properties/%d/review", property.ID), adminToken,
		map[string]any{"approve": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, "POST", fmt.Sprintf("/api/admin/properties/%d/review", property.ID), adminToken,
		map[string]any{"approve": true})
	assert.Equal(t, http.StatusOK, w.Code)

	var reviewed models.Property
	assert.NoError(t, db.First(&reviewed, property.ID).Error)
	assert.Equal(t, models.PropertyApproved, reviewed.Status)

	// the verdict records who decided and when
	assert.NotNil(t, reviewed.ReviewedBy)
	if reviewed.ReviewedBy != nil {
		assert.Equal(t, admin.ID, *reviewed.ReviewedBy)
	}
	assert.NotNil(t, reviewed.ReviewedAt)

	// The landlord gets a notification about the verdict
	var notif models.Notification
	assert.NoError(t, db.Where("user_id = ?", landlord.ID).First(&notif).Error)

	// Re-reviewing a decided listing conflicts
	w = doRequest(r, "POST", fmt.Sprintf("/api/admin/properties/%d/review", property.ID), adminToken,
		map[string]any{"approve": true})
	assert.Equal(t, http.StatusConflict, w.Code)
}
