package cart

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
	"github.com/quickbite/marketplace/internal/handlers"
	"github.com/quickbite/marketplace/internal/logging"
	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/mykafka"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(ctx).With("handler", "cart").Error("kafka publish failed", "error", err)
	}
}

func (h *CartHandler) counter(userID uint) int64 {
	var count int64
	h.DB.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count)
	return count
}

// GetCart lists the user's cart lines oldest-first together with the
// line counter and aggregated amounts.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	items, lines, err := checkout.LoadCartLines(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rules, err := checkout.ActiveRules(h.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items":        items,
		"cart_counter": h.counter(userID),
		"cart_amounts": checkout.AggregateCart(lines, rules),
	})
}

// AddToCart increments the line for the given food item, creating it
// with quantity 1 when the user has none. One row per (user, item).
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	itemID, err := strconv.Atoi(c.Param("item_id"))
	if err != nil || itemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var food models.FoodItem
	if err := h.DB.First(&food, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "this product does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var item models.CartItem
	tx := h.DB.Where("user_id = ? AND food_item_id = ?", userID, food.ID).First(&item)
	if tx.Error == nil {
		item.Quantity++
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		item = models.CartItem{UserID: userID, FoodItemID: food.ID, Quantity: 1}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else {
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	h.publish(c, map[string]any{
		"type":       "cart_item_added",
		"userID":     userID,
		"foodItemID": food.ID,
		"quantity":   item.Quantity,
	})

	amounts, err := checkout.CartAmountsFor(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"item":         item,
		"qty":          item.Quantity,
		"cart_counter": h.counter(userID),
		"cart_amounts": amounts,
	})
}

// DecreaseCart lowers the line quantity by one; at quantity 1 the row
// is removed rather than left at zero.
func (h *CartHandler) DecreaseCart(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	itemID, err := strconv.Atoi(c.Param("item_id"))
	if err != nil || itemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var item models.CartItem
	if err := h.DB.Where("user_id = ? AND food_item_id = ?", userID, itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "you do not have this item in your cart")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if item.Quantity > 1 {
		item.Quantity--
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else {
		if err := h.DB.Delete(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		item.Quantity = 0
	}

	h.publish(c, map[string]any{
		"type":       "cart_item_decreased",
		"userID":     userID,
		"foodItemID": itemID,
		"quantity":   item.Quantity,
	})

	amounts, err := checkout.CartAmountsFor(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"qty":          item.Quantity,
		"cart_counter": h.counter(userID),
		"cart_amounts": amounts,
	})
}

// DeleteCartItem removes a whole line by its row id.
func (h *CartHandler) DeleteCartItem(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "cart item does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Delete(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":         "cart_item_deleted",
		"userID":       userID,
		"deleted_item": id,
	})

	amounts, err := checkout.CartAmountsFor(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"deleted_item": id,
		"cart_counter": h.counter(userID),
		"cart_amounts": amounts,
	})
}

// GetAmounts exposes the aggregator on its own for checkout pages.
func (h *CartHandler) GetAmounts(c echo.Context) error {
	userID, err := handlers.CurrentUserID(c)
	if err != nil {
		return err
	}

	amounts, err := checkout.CartAmountsFor(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, amounts)
}
