package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/checkout"
	"github.com/quickbite/marketplace/internal/handlers"
	"github.com/quickbite/marketplace/internal/logging"
	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/mykafka"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
	Recorder *checkout.Recorder
}

type deliveryForm struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Country       string `json:"country"`
	State         string `json:"state"`
	City          string `json:"city"`
	PinCode       string `json:"pin_code"`
	PaymentMethod string `json:"payment_method"`
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(ctx).With("handler", "orders").Error("kafka publish failed", "error", err)
	}
}

// Checkout returns the cart lines together with delivery defaults taken
// from the user's profile. An empty cart refuses checkout and points
// the caller back to the marketplace.
func (h *OrderHandler) Checkout(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	items, _, err := checkout.LoadCartLines(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(items) == 0 {
		return c.JSON(http.StatusConflict, map[string]any{
			"status":   "failed",
			"message":  "your cart is empty",
			"redirect": "/api/v1/marketplace",
		})
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	var profile models.UserProfile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	amounts, err := checkout.CartAmountsFor(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	defaults := deliveryForm{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Email:     user.Email,
		Address:   profile.Address,
		Country:   profile.Country,
		State:     profile.State,
		City:      profile.City,
		PinCode:   profile.PinCode,
	}

	return c.JSON(http.StatusOK, map[string]any{
		"cart_items":   items,
		"form":         defaults,
		"cart_amounts": amounts,
	})
}

// PlaceOrder creates the order row with its computed breakdowns and
// vendor set. The order is not confirmed yet; IsOrdered stays false
// until the payment callback lands.
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	var form deliveryForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if form.FirstName == "" || form.Phone == "" || form.Email == "" || form.Address == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required delivery fields")
	}

	items, lines, err := checkout.LoadCartLines(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(items) == 0 {
		return c.JSON(http.StatusConflict, map[string]any{
			"status":   "failed",
			"message":  "your cart is empty",
			"redirect": "/api/v1/marketplace",
		})
	}

	rules, err := checkout.ActiveRules(h.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	amounts := checkout.AggregateCart(lines, rules)

	taxData, err := json.Marshal(amounts.TaxDict)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	totalData, err := json.Marshal(amounts.ByVendor)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var order models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			UserID:        userID,
			FirstName:     form.FirstName,
			LastName:      form.LastName,
			Phone:         form.Phone,
			Email:         form.Email,
			Address:       form.Address,
			Country:       form.Country,
			State:         form.State,
			City:          form.City,
			PinCode:       form.PinCode,
			Subtotal:      amounts.Subtotal,
			TotalTax:      amounts.TotalTax,
			GrandTotal:    amounts.GrandTotal,
			TaxData:       string(taxData),
			TotalData:     string(totalData),
			PaymentMethod: form.PaymentMethod,
			Status:        "new",
			CreatedAt:     time.Now(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		order.OrderNumber = checkout.OrderNumber(order.ID)
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		seen := map[uint]bool{}
		for _, line := range lines {
			if seen[line.VendorID] {
				continue
			}
			seen[line.VendorID] = true
			var vendor models.Vendor
			if err := tx.First(&vendor, line.VendorID).Error; err != nil {
				return err
			}
			if err := tx.Model(&order).Association("Vendors").Append(&vendor); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, map[string]any{
		"type":        "order_placed",
		"userID":      userID,
		"orderNumber": order.OrderNumber,
		"grandTotal":  order.GrandTotal,
	})

	return c.JSON(http.StatusCreated, map[string]any{
		"order":      order,
		"cart_items": items,
	})
}

// Payments is the payment-gateway callback: it freezes the order.
func (h *OrderHandler) Payments(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		OrderNumber   string `json:"order_number"`
		TransactionID string `json:"transaction_id"`
		PaymentMethod string `json:"payment_method"`
		Status        string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Recorder.ConfirmPayment(c.Request().Context(), userID, req.OrderNumber, checkout.PaymentInfo{
		TransactionID: req.TransactionID,
		Method:        req.PaymentMethod,
		Status:        req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, checkout.ErrEmptyCart):
			return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	h.publish(c, map[string]any{
		"type":        "order_confirmed",
		"userID":      userID,
		"orderNumber": order.OrderNumber,
		"grandTotal":  order.GrandTotal,
	})

	return c.JSON(http.StatusOK, map[string]any{
		"order_number":   order.OrderNumber,
		"transaction_id": req.TransactionID,
	})
}

// OrderComplete shows a confirmed order by number and transaction id.
// Unknown combinations fall back instead of erroring hard.
func (h *OrderHandler) OrderComplete(c echo.Context) error {
	orderNumber := c.QueryParam("order_no")
	transactionID := c.QueryParam("trans_id")

	var order models.Order
	err := h.DB.
		Joins("JOIN payments ON payments.id = orders.payment_id").
		Where("orders.order_number = ? AND payments.transaction_id = ? AND orders.is_ordered = ?", orderNumber, transactionID, true).
		First(&order).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{
			"status":   "failed",
			"redirect": "/",
		})
	}

	items, subtotal, err := h.orderSnapshots(order.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"order":         order,
		"ordered_items": items,
		"subtotal":      subtotal,
		"tax_data":      decodeTaxData(order.TaxData),
	})
}

// MyOrders lists the user's confirmed orders, newest first.
func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	var list []models.Order
	if err := h.DB.Where("user_id = ? AND is_ordered = ?", userID, true).Order("created_at DESC").Find(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{"orders": list})
}

// OrderDetail shows one confirmed order with its frozen snapshots and
// the tax breakdown persisted at confirmation time.
func (h *OrderHandler) OrderDetail(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	var order models.Order
	err = h.DB.Where("user_id = ? AND order_number = ? AND is_ordered = ?", userID, c.Param("number"), true).First(&order).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{
			"status":   "failed",
			"redirect": "/api/v1/customer/orders",
		})
	}

	items, subtotal, err := h.orderSnapshots(order.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"order":         order,
		"ordered_items": items,
		"subtotal":      subtotal,
		"tax_data":      decodeTaxData(order.TaxData),
	})
}

func (h *OrderHandler) orderSnapshots(orderID uint) ([]models.OrderedItem, float64, error) {
	var items []models.OrderedItem
	if err := h.DB.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return items, subtotal, nil
}

// decodeTaxData parses the persisted breakdown; a malformed blob is
// returned raw rather than failing the whole response.
func decodeTaxData(raw string) any {
	var breakdown checkout.TaxBreakdown
	if err := json.Unmarshal([]byte(raw), &breakdown); err != nil {
		return raw
	}
	return breakdown
}
