package checkout_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quickbite/marketplace/internal/checkout"
	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/testutil"
)

func TestLoadCartLinesDropsRemovedItems(t *testing.T) {
	db := testutil.OpenDB(t)

	user := models.User{Username: "henry", Email: "henry@example.com", Role: models.RoleCustomer, PasswordHash: "x", Active: true}
	require.NoError(t, db.Create(&user).Error)
	owner := models.User{Username: "deli", Email: "deli@example.com", Role: models.RoleVendor, PasswordHash: "x", Active: true}
	require.NoError(t, db.Create(&owner).Error)
	vendor := models.Vendor{UserID: owner.ID, Name: "Deli", Slug: "deli", Approved: true}
	require.NoError(t, db.Create(&vendor).Error)
	category := models.Category{VendorID: vendor.ID, Name: "Sandwiches", Slug: "sandwiches"}
	require.NoError(t, db.Create(&category).Error)

	keep := models.FoodItem{VendorID: vendor.ID, CategoryID: category.ID, Title: "BLT", Slug: "blt", Price: 6.00, Available: true}
	require.NoError(t, db.Create(&keep).Error)
	gone := models.FoodItem{VendorID: vendor.ID, CategoryID: category.ID, Title: "Club", Slug: "club", Price: 8.00, Available: true}
	require.NoError(t, db.Create(&gone).Error)

	require.NoError(t, db.Create(&models.CartItem{UserID: user.ID, FoodItemID: keep.ID, Quantity: 1, CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: user.ID, FoodItemID: gone.ID, Quantity: 2, CreatedAt: time.Now()}).Error)

	require.NoError(t, db.Delete(&models.FoodItem{}, gone.ID).Error)

	items, lines, err := checkout.LoadCartLines(db, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, lines, 1)
	require.Equal(t, keep.ID, lines[0].FoodItemID)

	amounts, err := checkout.CartAmountsFor(db, user.ID)
	require.NoError(t, err)
	require.InDelta(t, 6.00, amounts.Subtotal, 1e-9)
}
