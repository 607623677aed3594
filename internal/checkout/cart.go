package checkout

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/models"
)

var ErrEmptyCart = errors.New("no items in cart")

// LoadCartLines joins the user's cart with the current food items,
// ordered by creation time. A line whose food item has been removed is
// dropped from the result so a stale cart stays usable.
func LoadCartLines(db *gorm.DB, userID uint) ([]models.CartItem, []PricedLine, error) {
	var items []models.CartItem
	if err := db.Where("user_id = ?", userID).Order("created_at").Find(&items).Error; err != nil {
		return nil, nil, err
	}

	kept := make([]models.CartItem, 0, len(items))
	lines := make([]PricedLine, 0, len(items))
	for _, it := range items {
		var food models.FoodItem
		if err := db.First(&food, it.FoodItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, nil, err
		}
		kept = append(kept, it)
		lines = append(lines, PricedLine{
			FoodItemID: food.ID,
			VendorID:   food.VendorID,
			Price:      food.Price,
			Quantity:   it.Quantity,
		})
	}
	return kept, lines, nil
}

func ActiveRules(db *gorm.DB) ([]models.TaxRule, error) {
	var rules []models.TaxRule
	if err := db.Where("active = ?", true).Order("id").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// CartAmountsFor aggregates the live cart against the currently active
// tax rules. Empty cart yields all zeros.
func CartAmountsFor(db *gorm.DB, userID uint) (CartAmounts, error) {
	_, lines, err := LoadCartLines(db, userID)
	if err != nil {
		return CartAmounts{}, err
	}
	rules, err := ActiveRules(db)
	if err != nil {
		return CartAmounts{}, err
	}
	return AggregateCart(lines, rules), nil
}

// OrderNumber builds a human-readable order number from the row id and
// the current time, e.g. 20260901121530-42.
func OrderNumber(orderID uint) string {
	return fmt.Sprintf("%s-%d", time.Now().Format("20060102150405"), orderID)
}
