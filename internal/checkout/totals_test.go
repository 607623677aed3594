package checkout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickbite/marketplace/internal/models"
)

func TestAggregateCartEmpty(t *testing.T) {
	amounts := AggregateCart(nil, []models.TaxRule{{TaxType: "VAT", Percentage: 5, Active: true}})

	require.Zero(t, amounts.Subtotal)
	require.Zero(t, amounts.TotalTax)
	require.Zero(t, amounts.GrandTotal)
	require.Empty(t, amounts.TaxDict)
	require.Empty(t, amounts.ByVendor)
}

func TestAggregateCartSingleLine(t *testing.T) {
	lines := []PricedLine{
		{FoodItemID: 1, VendorID: 1, Price: 10.00, Quantity: 3},
	}
	rules := []models.TaxRule{
		{TaxType: "VAT", Percentage: 5, Active: true},
	}

	amounts := AggregateCart(lines, rules)

	require.InDelta(t, 30.00, amounts.Subtotal, 1e-9)
	require.InDelta(t, 1.50, amounts.TotalTax, 1e-9)
	require.InDelta(t, 31.50, amounts.GrandTotal, 1e-9)
	require.InDelta(t, 1.50, amounts.TaxDict["VAT"]["5"], 1e-9)

	vendor := amounts.ByVendor[1]
	require.InDelta(t, 30.00, vendor.Subtotal, 1e-9)
	require.InDelta(t, 31.50, vendor.GrandTotal, 1e-9)
}

func TestAggregateCartTwoVendors(t *testing.T) {
	lines := []PricedLine{
		{FoodItemID: 1, VendorID: 1, Price: 10.00, Quantity: 2},
		{FoodItemID: 2, VendorID: 2, Price: 25.00, Quantity: 2},
	}
	rules := []models.TaxRule{
		{TaxType: "GST", Percentage: 10, Active: true},
	}

	amounts := AggregateCart(lines, rules)

	require.InDelta(t, 70.00, amounts.Subtotal, 1e-9)
	require.InDelta(t, 7.00, amounts.TotalTax, 1e-9)
	require.InDelta(t, 77.00, amounts.GrandTotal, 1e-9)

	require.InDelta(t, 20.00, amounts.ByVendor[1].Subtotal, 1e-9)
	require.InDelta(t, 2.00, amounts.ByVendor[1].Taxes["GST"]["10"], 1e-9)
	require.InDelta(t, 22.00, amounts.ByVendor[1].GrandTotal, 1e-9)

	require.InDelta(t, 50.00, amounts.ByVendor[2].Subtotal, 1e-9)
	require.InDelta(t, 5.00, amounts.ByVendor[2].Taxes["GST"]["10"], 1e-9)
	require.InDelta(t, 55.00, amounts.ByVendor[2].GrandTotal, 1e-9)

	// overall breakdown sums both vendors' tax for the same rule
	require.InDelta(t, 7.00, amounts.TaxDict["GST"]["10"], 1e-9)
}

func TestAggregateCartSkipsInactiveRules(t *testing.T) {
	lines := []PricedLine{
		{FoodItemID: 1, VendorID: 1, Price: 100.00, Quantity: 1},
	}
	rules := []models.TaxRule{
		{TaxType: "VAT", Percentage: 5, Active: true},
		{TaxType: "service", Percentage: 12, Active: false},
	}

	amounts := AggregateCart(lines, rules)

	require.InDelta(t, 5.00, amounts.TotalTax, 1e-9)
	require.NotContains(t, amounts.TaxDict, "service")
}

func TestAggregateCartAppliesRulesIndependently(t *testing.T) {
	lines := []PricedLine{
		{FoodItemID: 1, VendorID: 1, Price: 100.00, Quantity: 1},
	}
	rules := []models.TaxRule{
		{TaxType: "CGST", Percentage: 9, Active: true},
		{TaxType: "SGST", Percentage: 9, Active: true},
	}

	amounts := AggregateCart(lines, rules)

	// both rules apply to the same subtotal, never compounded
	require.InDelta(t, 9.00, amounts.TaxDict["CGST"]["9"], 1e-9)
	require.InDelta(t, 9.00, amounts.TaxDict["SGST"]["9"], 1e-9)
	require.InDelta(t, 118.00, amounts.GrandTotal, 1e-9)
}

func TestAggregateCartRoundsPerVendorStep(t *testing.T) {
	// 33.33 per vendor at 10% rounds to 3.33 each; summing first would
	// give 6.67, per-step rounding gives 6.66.
	lines := []PricedLine{
		{FoodItemID: 1, VendorID: 1, Price: 33.33, Quantity: 1},
		{FoodItemID: 2, VendorID: 2, Price: 33.33, Quantity: 1},
	}
	rules := []models.TaxRule{
		{TaxType: "GST", Percentage: 10, Active: true},
	}

	amounts := AggregateCart(lines, rules)

	require.InDelta(t, 6.66, amounts.TotalTax, 1e-9)
	require.InDelta(t, 73.32, amounts.GrandTotal, 1e-9)
}

func TestTotalsByVendor(t *testing.T) {
	items := []models.OrderedItem{
		{VendorID: 1, Price: 10.00, Quantity: 2, Amount: 20.00},
		{VendorID: 2, Price: 25.00, Quantity: 2, Amount: 50.00},
	}
	rules := []models.TaxRule{
		{TaxType: "GST", Percentage: 10, Active: true},
	}

	totals := TotalsByVendor(items, 2, rules)

	require.InDelta(t, 50.00, totals.Subtotal, 1e-9)
	require.InDelta(t, 5.00, totals.Taxes["GST"]["10"], 1e-9)
	require.InDelta(t, 55.00, totals.GrandTotal, 1e-9)
}

func TestTotalsByVendorUsesFrozenAmounts(t *testing.T) {
	// Amount is the snapshot; the live price column plays no part.
	items := []models.OrderedItem{
		{VendorID: 1, Price: 99.99, Quantity: 1, Amount: 10.00},
	}

	totals := TotalsByVendor(items, 1, nil)

	require.InDelta(t, 10.00, totals.Subtotal, 1e-9)
	require.InDelta(t, 10.00, totals.GrandTotal, 1e-9)
}

func TestTotalsByVendorUsesCurrentRules(t *testing.T) {
	items := []models.OrderedItem{
		{VendorID: 1, Price: 50.00, Quantity: 1, Amount: 50.00},
	}

	active := []models.TaxRule{{TaxType: "VAT", Percentage: 5, Active: true}}
	deactivated := []models.TaxRule{{TaxType: "VAT", Percentage: 5, Active: false}}

	before := TotalsByVendor(items, 1, active)
	after := TotalsByVendor(items, 1, deactivated)

	require.InDelta(t, 52.50, before.GrandTotal, 1e-9)
	require.InDelta(t, 50.00, after.GrandTotal, 1e-9)
	require.Empty(t, after.Taxes)
}

func TestTotalsByVendorNoLinesForVendor(t *testing.T) {
	items := []models.OrderedItem{
		{VendorID: 1, Amount: 20.00},
	}

	totals := TotalsByVendor(items, 7, []models.TaxRule{{TaxType: "VAT", Percentage: 5, Active: true}})

	require.Zero(t, totals.Subtotal)
	require.Zero(t, totals.GrandTotal)
}
