package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/checkout"
	"github.com/quickbite/marketplace/internal/logging"
	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/mykafka"
)

type VendorHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
}

func (h *VendorHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "vendor_events", fmt.Sprint(event["vendorID"]), event); err != nil {
		logging.FromContext(ctx).With("handler", "vendor").Error("kafka publish failed", "error", err)
	}
}

// vendorOf resolves the vendor record owned by the authenticated user.
func (h *VendorHandler) vendorOf(c echo.Context) (*models.Vendor, error) {
	userID, err := CurrentUserID(c)
	if err != nil {
		return nil, err
	}
	var vendor models.Vendor
	if err := h.DB.Where("user_id = ?", userID).First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusForbidden, "no vendor profile")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return &vendor, nil
}

func (h *VendorHandler) Profile(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var profile models.UserProfile
	if err := h.DB.Where("user_id = ?", vendor.UserID).First(&profile).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{"vendor": vendor, "profile": profile})
}

func (h *VendorHandler) UpdateProfile(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var req struct {
		Name      string  `json:"name"`
		Address   string  `json:"address"`
		Country   string  `json:"country"`
		State     string  `json:"state"`
		City      string  `json:"city"`
		PinCode   string  `json:"pin_code"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name != "" {
		vendor.Name = req.Name
		if err := h.DB.Save(vendor).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	var profile models.UserProfile
	if err := h.DB.Where("user_id = ?", vendor.UserID).First(&profile).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	profile.Address = req.Address
	profile.Country = req.Country
	profile.State = req.State
	profile.City = req.City
	profile.PinCode = req.PinCode
	profile.Latitude = req.Latitude
	profile.Longitude = req.Longitude
	if err := h.DB.Save(&profile).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{"vendor": vendor, "profile": profile})
}

func (h *VendorHandler) ListCategories(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var categories []models.Category
	if err := h.DB.Where("vendor_id = ?", vendor.ID).Find(&categories).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *VendorHandler) AddCategory(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	category := models.Category{
		VendorID:    vendor.ID,
		Name:        req.Name,
		Slug:        Slugify(fmt.Sprintf("%s-%d", req.Name, vendor.ID)),
		Description: req.Description,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	return c.JSON(http.StatusCreated, category)
}

func (h *VendorHandler) UpdateCategory(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.DB.Where("id = ? AND vendor_id = ?", id, vendor.ID).First(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	}

	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name != "" {
		category.Name = req.Name
		category.Slug = Slugify(fmt.Sprintf("%s-%d", req.Name, vendor.ID))
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if err := h.DB.Save(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, category)
}

func (h *VendorHandler) DeleteCategory(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Where("id = ? AND vendor_id = ?", id, vendor.ID).Delete(&models.Category{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *VendorHandler) ItemsByCategory(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	categoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var items []models.FoodItem
	if err := h.DB.Where("vendor_id = ? AND category_id = ?", vendor.ID, categoryID).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

type foodItemRequest struct {
	CategoryID  uint    `json:"category_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Available   *bool   `json:"available"`
}

func (h *VendorHandler) AddFoodItem(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var req foodItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" || req.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "title and positive price are required")
	}

	var category models.Category
	if err := h.DB.Where("id = ? AND vendor_id = ?", req.CategoryID, vendor.ID).First(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "category not found")
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	var description string
	if req.Description != nil {
		description = *req.Description
	}
	item := models.FoodItem{
		VendorID:    vendor.ID,
		CategoryID:  category.ID,
		Title:       req.Title,
		Slug:        Slugify(fmt.Sprintf("%s-%d", req.Title, vendor.ID)),
		Description: description,
		Price:       req.Price,
		Available:   available,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "food_item_created",
		"vendorID": vendor.ID,
		"itemID":   item.ID,
		"title":    item.Title,
	})

	return c.JSON(http.StatusCreated, item)
}

func (h *VendorHandler) UpdateFoodItem(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var item models.FoodItem
	if err := h.DB.Where("id = ? AND vendor_id = ?", id, vendor.ID).First(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "food item not found")
	}

	var req foodItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title != "" {
		item.Title = req.Title
		item.Slug = Slugify(fmt.Sprintf("%s-%d", req.Title, vendor.ID))
	}
	if req.Price > 0 {
		item.Price = req.Price
	}
	if req.CategoryID != 0 {
		item.CategoryID = req.CategoryID
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "food_item_updated",
		"vendorID": vendor.ID,
		"itemID":   item.ID,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *VendorHandler) DeleteFoodItem(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Where("id = ? AND vendor_id = ?", id, vendor.ID).Delete(&models.FoodItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// cart rows referencing the item go with it
	if err := h.DB.Where("food_item_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "food_item_deleted",
		"vendorID": vendor.ID,
		"itemID":   id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *VendorHandler) ListOpeningHours(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var hours []models.OpeningHour
	if err := h.DB.Where("vendor_id = ?", vendor.ID).Order("day, from_hour").Find(&hours).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hours)
}

func (h *VendorHandler) AddOpeningHour(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var req struct {
		Day      int    `json:"day"`
		FromHour string `json:"from_hour"`
		ToHour   string `json:"to_hour"`
		Closed   bool   `json:"closed"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Day < 1 || req.Day > 7 {
		return echo.NewHTTPError(http.StatusBadRequest, "day must be 1..7")
	}

	var existing models.OpeningHour
	err = h.DB.Where("vendor_id = ? AND day = ? AND from_hour = ? AND to_hour = ?",
		vendor.ID, req.Day, req.FromHour, req.ToHour).First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusConflict, Response{
			Status:  "failed",
			Message: req.FromHour + "-" + req.ToHour + " already exists for this day!",
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hour := models.OpeningHour{
		VendorID: vendor.ID,
		Day:      req.Day,
		FromHour: req.FromHour,
		ToHour:   req.ToHour,
		Closed:   req.Closed,
	}
	if err := h.DB.Create(&hour).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	return c.JSON(http.StatusCreated, hour)
}

func (h *VendorHandler) RemoveOpeningHour(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Where("id = ? AND vendor_id = ?", id, vendor.ID).Delete(&models.OpeningHour{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "id": id})
}

// Orders lists confirmed orders that contain this vendor's items.
func (h *VendorHandler) Orders(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var list []models.Order
	err = h.DB.
		Joins("JOIN order_vendors ON order_vendors.order_id = orders.id").
		Where("order_vendors.vendor_id = ? AND orders.is_ordered = ?", vendor.ID, true).
		Order("orders.created_at DESC").
		Find(&list).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{"orders": list})
}

// OrderDetail shows one order scoped to this vendor: only its snapshot
// lines, and totals re-derived for the vendor's share.
func (h *VendorHandler) OrderDetail(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var order models.Order
	err = h.DB.Where("order_number = ? AND is_ordered = ?", c.Param("number"), true).First(&order).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{
			"status":   "failed",
			"redirect": "/api/v1/vendor/orders",
		})
	}

	var snapshots []models.OrderedItem
	if err := h.DB.Where("order_id = ?", order.ID).Find(&snapshots).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	mine := make([]models.OrderedItem, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.VendorID == vendor.ID {
			mine = append(mine, snap)
		}
	}
	if len(mine) == 0 {
		return echo.NewHTTPError(http.StatusForbidden, "order does not involve this vendor")
	}

	rules, err := checkout.ActiveRules(h.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	totals := checkout.TotalsByVendor(snapshots, vendor.ID, rules)

	return c.JSON(http.StatusOK, map[string]any{
		"order":         order,
		"ordered_items": mine,
		"subtotal":      totals.Subtotal,
		"tax_data":      totals.Taxes,
		"grand_total":   totals.GrandTotal,
	})
}

// Dashboard aggregates order count and revenue for the vendor, total
// and current month, via the per-vendor splitter over each order.
func (h *VendorHandler) Dashboard(c echo.Context) error {
	vendor, err := h.vendorOf(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	err = h.DB.
		Joins("JOIN order_vendors ON order_vendors.order_id = orders.id").
		Where("order_vendors.vendor_id = ? AND orders.is_ordered = ?", vendor.ID, true).
		Find(&orders).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rules, err := checkout.ActiveRules(h.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	now := time.Now()
	var totalRevenue, monthRevenue float64
	for _, order := range orders {
		var snapshots []models.OrderedItem
		if err := h.DB.Where("order_id = ?", order.ID).Find(&snapshots).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		totals := checkout.TotalsByVendor(snapshots, vendor.ID, rules)
		totalRevenue += totals.GrandTotal
		if order.CreatedAt.Year() == now.Year() && order.CreatedAt.Month() == now.Month() {
			monthRevenue += totals.GrandTotal
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"order_count":           len(orders),
		"total_revenue":         totalRevenue,
		"current_month_revenue": monthRevenue,
	})
}
