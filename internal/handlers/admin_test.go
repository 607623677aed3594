package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/testutil"
)

func newAdminEnv(t *testing.T) (*echo.Echo, *gorm.DB, *AdminHandler) {
	t.Helper()
	db := testutil.OpenDB(t)
	return echo.New(), db, &AdminHandler{DB: db}
}

func TestCreateAndUpdateTaxRule(t *testing.T) {
	e, db, handler := newAdminEnv(t)

	c, rec := testutil.JSONRequest(t, e, http.MethodPost, "/api/v1/admin/tax-rules", map[string]any{
		"tax_type": "GST", "percentage": 7.5,
	})
	require.NoError(t, handler.CreateTaxRule(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var rule models.TaxRule
	testutil.DecodeBody(t, rec, &rule)
	require.True(t, rule.Active)
	require.InDelta(t, 7.5, rule.Percentage, 1e-9)

	c, rec = testutil.JSONRequest(t, e, http.MethodPut, "/", map[string]any{"active": false})
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(rule.ID)))
	require.NoError(t, handler.UpdateTaxRule(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.TaxRule
	require.NoError(t, db.First(&stored, rule.ID).Error)
	require.False(t, stored.Active)
	require.InDelta(t, 7.5, stored.Percentage, 1e-9)
}

func TestCreateTaxRuleRejectsNegative(t *testing.T) {
	e, _, handler := newAdminEnv(t)

	c, _ := testutil.JSONRequest(t, e, http.MethodPost, "/", map[string]any{
		"tax_type": "GST", "percentage": -1,
	})
	err := handler.CreateTaxRule(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestDeleteTaxRule(t *testing.T) {
	e, db, handler := newAdminEnv(t)
	rule := models.TaxRule{TaxType: "VAT", Percentage: 20, Active: true}
	require.NoError(t, db.Create(&rule).Error)

	c, rec := testutil.JSONRequest(t, e, http.MethodDelete, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(rule.ID)))
	require.NoError(t, handler.DeleteTaxRule(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	db.Model(&models.TaxRule{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestApproveVendorTogglesListing(t *testing.T) {
	e, db, handler := newAdminEnv(t)
	vendor := seedVendor(t, db, "newbie", "Newbie Noodles", "newbie-noodles", false, true)

	c, rec := testutil.JSONRequest(t, e, http.MethodPut, "/", map[string]any{"approved": true})
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(vendor.ID)))
	require.NoError(t, handler.ApproveVendor(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Vendor
	require.NoError(t, db.First(&stored, vendor.ID).Error)
	require.True(t, stored.Approved)
}

func TestApproveVendorUnknown(t *testing.T) {
	e, _, handler := newAdminEnv(t)

	c, _ := testutil.JSONRequest(t, e, http.MethodPut, "/", map[string]any{"approved": true})
	c.SetParamNames("id")
	c.SetParamValues("999")

	err := handler.ApproveVendor(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}
