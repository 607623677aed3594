package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/models"
)

// AdminHandler manages tax rules and vendor approval.
type AdminHandler struct {
	DB *gorm.DB
}

func (h *AdminHandler) ListTaxRules(c echo.Context) error {
	var rules []models.TaxRule
	if err := h.DB.Order("id").Find(&rules).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rules)
}

func (h *AdminHandler) CreateTaxRule(c echo.Context) error {
	var req struct {
		TaxType    string  `json:"tax_type"`
		Percentage float64 `json:"percentage"`
		Active     *bool   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.TaxType == "" || req.Percentage < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "tax_type and non-negative percentage are required")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	rule := models.TaxRule{TaxType: req.TaxType, Percentage: req.Percentage, Active: active}
	if err := h.DB.Create(&rule).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, rule)
}

func (h *AdminHandler) UpdateTaxRule(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var rule models.TaxRule
	if err := h.DB.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "tax rule not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req struct {
		TaxType    string   `json:"tax_type"`
		Percentage *float64 `json:"percentage"`
		Active     *bool    `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.TaxType != "" {
		rule.TaxType = req.TaxType
	}
	if req.Percentage != nil {
		rule.Percentage = *req.Percentage
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if err := h.DB.Save(&rule).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rule)
}

func (h *AdminHandler) DeleteTaxRule(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.DB.Delete(&models.TaxRule{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ApproveVendor toggles a vendor into (or out of) marketplace listings.
func (h *AdminHandler) ApproveVendor(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Approved bool `json:"approved"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var vendor models.Vendor
	if err := h.DB.First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "vendor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	vendor.Approved = req.Approved
	if err := h.DB.Save(&vendor).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, vendor)
}
