package orders

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/checkout"
	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/testutil"
)

type orderEnv struct {
	e        *echo.Echo
	db       *gorm.DB
	handler  *OrderHandler
	notifier *testutil.Notifier
	user     models.User
}

func newOrderEnv(t *testing.T) *orderEnv {
	t.Helper()
	db := testutil.OpenDB(t)

	user := models.User{
		Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Smith",
		Phone: "123456", Role: models.RoleCustomer, PasswordHash: "x", Active: true,
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.UserProfile{UserID: user.ID, Address: "1 Main St", City: "Springfield"}).Error)

	owner := models.User{Username: "owner", Email: "owner@example.com", Role: models.RoleVendor, PasswordHash: "x", Active: true}
	require.NoError(t, db.Create(&owner).Error)
	vendor := models.Vendor{UserID: owner.ID, Name: "Taco Truck", Slug: "taco-truck", Approved: true}
	require.NoError(t, db.Create(&vendor).Error)
	category := models.Category{VendorID: vendor.ID, Name: "Tacos", Slug: "tacos"}
	require.NoError(t, db.Create(&category).Error)
	food := models.FoodItem{VendorID: vendor.ID, CategoryID: category.ID, Title: "Al Pastor", Slug: "al-pastor", Price: 4.00, Available: true}
	require.NoError(t, db.Create(&food).Error)

	require.NoError(t, db.Create(&models.CartItem{UserID: user.ID, FoodItemID: food.ID, Quantity: 5, CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&models.TaxRule{TaxType: "VAT", Percentage: 5, Active: true}).Error)

	notifier := &testutil.Notifier{}
	handler := &OrderHandler{
		DB:       db,
		Producer: &testutil.Publisher{},
		Recorder: &checkout.Recorder{DB: db, Notifier: notifier},
	}
	return &orderEnv{e: echo.New(), db: db, handler: handler, notifier: notifier, user: user}
}

func (env *orderEnv) placeOrder(t *testing.T) models.Order {
	t.Helper()
	form := map[string]string{
		"first_name":     "Alice",
		"last_name":      "Smith",
		"phone":          "123456",
		"email":          "alice@example.com",
		"address":        "1 Main St",
		"city":           "Springfield",
		"payment_method": "card",
	}
	c, rec := testutil.JSONRequest(t, env.e, http.MethodPost, "/api/v1/orders/place", form)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)
	require.NoError(t, env.handler.PlaceOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, env.db.Where("user_id = ?", env.user.ID).Last(&order).Error)
	return order
}

func TestCheckoutEmptyCartRedirects(t *testing.T) {
	env := newOrderEnv(t)
	require.NoError(t, env.db.Where("user_id = ?", env.user.ID).Delete(&models.CartItem{}).Error)

	c, rec := testutil.JSONRequest(t, env.e, http.MethodGet, "/api/v1/checkout", nil)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)
	require.NoError(t, env.handler.Checkout(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckoutReturnsProfileDefaults(t *testing.T) {
	env := newOrderEnv(t)

	c, rec := testutil.JSONRequest(t, env.e, http.MethodGet, "/api/v1/checkout", nil)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)
	require.NoError(t, env.handler.Checkout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Form struct {
			FirstName string `json:"first_name"`
			Address   string `json:"address"`
		} `json:"form"`
		CartItems []models.CartItem `json:"cart_items"`
	}
	testutil.DecodeBody(t, rec, &resp)
	require.Equal(t, "Alice", resp.Form.FirstName)
	require.Equal(t, "1 Main St", resp.Form.Address)
	require.Len(t, resp.CartItems, 1)
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	env := newOrderEnv(t)

	order := env.placeOrder(t)

	require.NotEmpty(t, order.OrderNumber)
	require.False(t, order.IsOrdered)
	require.InDelta(t, 20.00, order.Subtotal, 1e-9)
	require.InDelta(t, 1.00, order.TotalTax, 1e-9)
	require.InDelta(t, 21.00, order.GrandTotal, 1e-9)
	require.NotEmpty(t, order.TaxData)
	require.NotEmpty(t, order.TotalData)

	// the vendor set is attached at placement
	var count int64
	env.db.Table("order_vendors").Where("order_id = ?", order.ID).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestPlaceOrderMissingFields(t *testing.T) {
	env := newOrderEnv(t)

	c, _ := testutil.JSONRequest(t, env.e, http.MethodPost, "/api/v1/orders/place", map[string]string{"first_name": "Alice"})
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)

	err := env.handler.PlaceOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestPaymentsConfirmsOrder(t *testing.T) {
	env := newOrderEnv(t)
	placed := env.placeOrder(t)

	payload := map[string]string{
		"order_number":   placed.OrderNumber,
		"transaction_id": "tx-42",
		"payment_method": "card",
		"status":         "completed",
	}
	c, rec := testutil.JSONRequest(t, env.e, http.MethodPost, "/api/v1/orders/payments", payload)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)
	require.NoError(t, env.handler.Payments(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var confirmed models.Order
	require.NoError(t, env.db.First(&confirmed, placed.ID).Error)
	require.True(t, confirmed.IsOrdered)
	require.NotNil(t, confirmed.PaymentID)

	var snapshots []models.OrderedItem
	require.NoError(t, env.db.Where("order_id = ?", confirmed.ID).Find(&snapshots).Error)
	require.Len(t, snapshots, 1)
	require.InDelta(t, 4.00, snapshots[0].Price, 1e-9)
	require.InDelta(t, 20.00, snapshots[0].Amount, 1e-9)

	// customer plus one vendor
	require.Len(t, env.notifier.Sent, 2)
}

func TestPaymentsUnknownOrder(t *testing.T) {
	env := newOrderEnv(t)

	payload := map[string]string{"order_number": "nope", "transaction_id": "tx"}
	c, _ := testutil.JSONRequest(t, env.e, http.MethodPost, "/api/v1/orders/payments", payload)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)

	err := env.handler.Payments(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestOrderCompleteLookup(t *testing.T) {
	env := newOrderEnv(t)
	placed := env.placeOrder(t)

	payload := map[string]string{
		"order_number":   placed.OrderNumber,
		"transaction_id": "tx-42",
		"payment_method": "card",
		"status":         "completed",
	}
	c, _ := testutil.JSONRequest(t, env.e, http.MethodPost, "/api/v1/orders/payments", payload)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)
	require.NoError(t, env.handler.Payments(c))

	c, rec := testutil.JSONRequest(t, env.e, http.MethodGet, "/api/v1/orders/complete?order_no="+placed.OrderNumber+"&trans_id=tx-42", nil)
	require.NoError(t, env.handler.OrderComplete(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Subtotal float64 `json:"subtotal"`
	}
	testutil.DecodeBody(t, rec, &resp)
	require.InDelta(t, 20.00, resp.Subtotal, 1e-9)
}

func TestOrderCompleteUnknownFallsBack(t *testing.T) {
	env := newOrderEnv(t)

	c, rec := testutil.JSONRequest(t, env.e, http.MethodGet, "/api/v1/orders/complete?order_no=nope&trans_id=tx", nil)
	require.NoError(t, env.handler.OrderComplete(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMyOrdersOnlyConfirmed(t *testing.T) {
	env := newOrderEnv(t)
	placed := env.placeOrder(t)

	c, rec := testutil.JSONRequest(t, env.e, http.MethodGet, "/api/v1/customer/orders", nil)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)
	require.NoError(t, env.handler.MyOrders(c))

	var resp struct {
		Orders []models.Order `json:"orders"`
	}
	testutil.DecodeBody(t, rec, &resp)
	require.Empty(t, resp.Orders)

	payload := map[string]string{
		"order_number": placed.OrderNumber, "transaction_id": "tx-42",
		"payment_method": "card", "status": "completed",
	}
	c, _ = testutil.JSONRequest(t, env.e, http.MethodPost, "/api/v1/orders/payments", payload)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)
	require.NoError(t, env.handler.Payments(c))

	c, rec = testutil.JSONRequest(t, env.e, http.MethodGet, "/api/v1/customer/orders", nil)
	testutil.AsUser(c, env.user.ID, models.RoleCustomer)
	require.NoError(t, env.handler.MyOrders(c))
	testutil.DecodeBody(t, rec, &resp)
	require.Len(t, resp.Orders, 1)
}
