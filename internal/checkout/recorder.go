package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/notify"
)

var ErrOrderNotFound = errors.New("order not found")

type PaymentInfo struct {
	TransactionID string
	Method        string
	Status        string
}

// Recorder freezes an order's totals at payment confirmation.
type Recorder struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// ConfirmPayment re-aggregates the live cart, persists the payment,
// flips the order to ordered with its serialized breakdowns and creates
// one OrderedItem snapshot per cart line, all inside one transaction.
// Totals computed at checkout-page time are never reused here; if tax
// rules changed since the page was viewed, the confirmed totals follow
// the rules active now.
//
// The cart is left in place after confirmation.
func (r *Recorder) ConfirmPayment(ctx context.Context, userID uint, orderNumber string, info PaymentInfo) (*models.Order, error) {
	var order models.Order
	if err := r.DB.Where("user_id = ? AND order_number = ?", userID, orderNumber).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, lines, err := LoadCartLines(r.DB, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	rules, err := ActiveRules(r.DB)
	if err != nil {
		return nil, err
	}
	amounts := AggregateCart(lines, rules)

	var payment models.Payment
	var snapshots []models.OrderedItem

	txErr := r.DB.Transaction(func(tx *gorm.DB) error {
		payment = models.Payment{
			UserID:        userID,
			TransactionID: info.TransactionID,
			PaymentMethod: info.Method,
			Amount:        amounts.GrandTotal,
			Status:        info.Status,
			CreatedAt:     time.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		taxData, err := json.Marshal(amounts.TaxDict)
		if err != nil {
			return fmt.Errorf("marshal tax data: %w", err)
		}
		totalData, err := json.Marshal(amounts.ByVendor)
		if err != nil {
			return fmt.Errorf("marshal vendor data: %w", err)
		}

		order.PaymentID = &payment.ID
		order.PaymentMethod = info.Method
		order.IsOrdered = true
		order.Subtotal = amounts.Subtotal
		order.TotalTax = amounts.TotalTax
		order.GrandTotal = amounts.GrandTotal
		order.TaxData = string(taxData)
		order.TotalData = string(totalData)
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		snapshots = make([]models.OrderedItem, 0, len(lines))
		for _, line := range lines {
			snap := models.OrderedItem{
				OrderID:    order.ID,
				PaymentID:  payment.ID,
				UserID:     userID,
				FoodItemID: line.FoodItemID,
				VendorID:   line.VendorID,
				Quantity:   line.Quantity,
				Price:      line.Price,
				Amount:     line.Price * float64(line.Quantity),
				CreatedAt:  time.Now(),
			}
			if err := tx.Create(&snap).Error; err != nil {
				return err
			}
			snapshots = append(snapshots, snap)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	r.notifyCustomer(ctx, &order, snapshots)
	r.notifyVendors(ctx, &order, snapshots, rules)

	return &order, nil
}

func (r *Recorder) notifyCustomer(ctx context.Context, order *models.Order, snapshots []models.OrderedItem) {
	var subtotal float64
	for _, item := range snapshots {
		subtotal += item.Price * float64(item.Quantity)
	}
	payload := map[string]interface{}{
		"order_number":      order.OrderNumber,
		"customer_subtotal": subtotal,
		"tax_data":          json.RawMessage(order.TaxData),
		"grand_total":       order.GrandTotal,
	}
	if err := r.Notifier.Send(ctx, "Thank you for ordering with us.", notify.TemplateOrderConfirmation, order.Email, payload); err != nil {
		r.logger().Error("order confirmation notify failed", "order", order.OrderNumber, "error", err)
	}
}

func (r *Recorder) notifyVendors(ctx context.Context, order *models.Order, snapshots []models.OrderedItem, rules []models.TaxRule) {
	seen := map[uint]bool{}
	for _, item := range snapshots {
		if seen[item.VendorID] {
			continue
		}
		seen[item.VendorID] = true

		var vendor models.Vendor
		if err := r.DB.First(&vendor, item.VendorID).Error; err != nil {
			r.logger().Error("vendor lookup failed", "vendor", item.VendorID, "error", err)
			continue
		}
		var owner models.User
		if err := r.DB.First(&owner, vendor.UserID).Error; err != nil {
			r.logger().Error("vendor owner lookup failed", "vendor", vendor.ID, "error", err)
			continue
		}

		totals := TotalsByVendor(snapshots, vendor.ID, rules)
		payload := map[string]interface{}{
			"order_number":       order.OrderNumber,
			"vendor_subtotal":    totals.Subtotal,
			"tax_data":           totals.Taxes,
			"vendor_grand_total": totals.GrandTotal,
		}
		if err := r.Notifier.Send(ctx, "You have received a new order.", notify.TemplateNewOrderReceived, owner.Email, payload); err != nil {
			r.logger().Error("vendor notify failed", "vendor", vendor.ID, "order", order.OrderNumber, "error", err)
		}
	}
}

func (r *Recorder) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
