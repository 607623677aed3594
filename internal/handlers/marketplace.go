package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/util"
)

type MarketplaceHandler struct {
	DB *gorm.DB
}

// ListVendors returns approved vendors with active owner accounts.
func (h *MarketplaceHandler) ListVendors(c echo.Context) error {
	page := ParseIntDefault(c.QueryParam("page"), 1)
	size := ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	base := h.DB.Model(&models.Vendor{}).
		Joins("JOIN users ON users.id = vendors.user_id").
		Where("vendors.approved = ? AND users.active = ?", true, true).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var vendors []models.Vendor
	if err := base.Order("vendors.id ASC").Offset(offset).Limit(limit).Find(&vendors).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"vendors":      vendors,
		"vendor_count": total,
		"meta": map[string]any{
			"page":     page,
			"size":     limit,
			"has_next": int64(offset+limit) < total,
		},
	})
}

type categoryWithItems struct {
	models.Category
	FoodItems []models.FoodItem `json:"food_items"`
}

// VendorDetail returns one approved vendor with its menu grouped by
// category, plus weekly and today's opening hours.
func (h *MarketplaceHandler) VendorDetail(c echo.Context) error {
	slug := c.Param("slug")

	var vendor models.Vendor
	err := h.DB.Joins("JOIN users ON users.id = vendors.user_id").
		Where("vendors.slug = ? AND vendors.approved = ? AND users.active = ?", slug, true, true).
		First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "vendor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var categories []models.Category
	if err := h.DB.Where("vendor_id = ?", vendor.ID).Find(&categories).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	menu := make([]categoryWithItems, 0, len(categories))
	for _, cat := range categories {
		var items []models.FoodItem
		if err := h.DB.Where("category_id = ? AND available = ?", cat.ID, true).Find(&items).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		menu = append(menu, categoryWithItems{Category: cat, FoodItems: items})
	}

	var hours []models.OpeningHour
	if err := h.DB.Where("vendor_id = ?", vendor.ID).Order("day, from_hour").Find(&hours).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	today := isoWeekday(time.Now())
	todayHours := make([]models.OpeningHour, 0)
	for _, hour := range hours {
		if hour.Day == today {
			todayHours = append(todayHours, hour)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"vendor":        vendor,
		"categories":    menu,
		"opening_hours": hours,
		"today_hours":   todayHours,
	})
}

// isoWeekday maps Go's Sunday-based weekday to ISO 1..7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
