package checkout

import (
	"math"
	"strconv"

	"github.com/quickbite/marketplace/internal/models"
)

// PricedLine is one cart line joined with its food item.
type PricedLine struct {
	FoodItemID uint
	VendorID   uint
	Price      float64
	Quantity   uint
}

// TaxBreakdown maps tax type -> percentage -> computed amount. The
// percentage is kept as its string form so the breakdown survives
// serialization unchanged.
type TaxBreakdown map[string]map[string]float64

type VendorTotals struct {
	Subtotal   float64      `json:"subtotal"`
	Taxes      TaxBreakdown `json:"taxes"`
	GrandTotal float64      `json:"grand_total"`
}

// VendorBreakdown maps vendor id -> that vendor's scoped totals.
type VendorBreakdown map[uint]VendorTotals

type CartAmounts struct {
	Subtotal   float64         `json:"subtotal"`
	TotalTax   float64         `json:"tax"`
	GrandTotal float64         `json:"grand_total"`
	TaxDict    TaxBreakdown    `json:"tax_dict"`
	ByVendor   VendorBreakdown `json:"by_vendor"`
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func pctKey(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// AggregateCart computes subtotal, tax per active rule and grand total
// for a cart. Tax is applied to each vendor-scoped subtotal and then
// summed, rounding to two decimals at every tax-amount step. The
// accumulated rounding of per-step amounts is intentional; nothing is
// re-rounded on the final sum.
func AggregateCart(lines []PricedLine, rules []models.TaxRule) CartAmounts {
	amounts := CartAmounts{
		TaxDict:  TaxBreakdown{},
		ByVendor: VendorBreakdown{},
	}

	vendorSubtotals := map[uint]float64{}
	for _, line := range lines {
		vendorSubtotals[line.VendorID] += line.Price * float64(line.Quantity)
	}

	for vendorID, subtotal := range vendorSubtotals {
		vt := VendorTotals{Subtotal: subtotal, Taxes: TaxBreakdown{}}
		var vendorTax float64
		for _, rule := range rules {
			if !rule.Active {
				continue
			}
			amount := round2(rule.Percentage * subtotal / 100)
			key := pctKey(rule.Percentage)
			vt.Taxes[rule.TaxType] = map[string]float64{key: amount}
			vendorTax += amount

			if amounts.TaxDict[rule.TaxType] == nil {
				amounts.TaxDict[rule.TaxType] = map[string]float64{}
			}
			amounts.TaxDict[rule.TaxType][key] += amount
		}
		vt.GrandTotal = subtotal + vendorTax

		amounts.ByVendor[vendorID] = vt
		amounts.Subtotal += subtotal
		amounts.TotalTax += vendorTax
	}

	amounts.GrandTotal = amounts.Subtotal + amounts.TotalTax
	return amounts
}

// TotalsByVendor re-derives one vendor's share of an order from the
// frozen snapshot amounts. Tax is re-applied from the rules active at
// call time, not the rules the order was placed under; vendor
// dashboards intentionally reflect current rules while the order's own
// persisted breakdown stays frozen.
func TotalsByVendor(items []models.OrderedItem, vendorID uint, rules []models.TaxRule) VendorTotals {
	vt := VendorTotals{Taxes: TaxBreakdown{}}
	for _, item := range items {
		if item.VendorID == vendorID {
			vt.Subtotal += item.Amount
		}
	}

	var tax float64
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		amount := round2(rule.Percentage * vt.Subtotal / 100)
		vt.Taxes[rule.TaxType] = map[string]float64{pctKey(rule.Percentage): amount}
		tax += amount
	}
	vt.GrandTotal = vt.Subtotal + tax
	return vt
}
