package checkout

import (
	"github.com/lfbag/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Totals are the derived checkout amounts.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeTotals adds the flat express fee when delivery is express.
func ComputeTotals(subtotal decimal.Decimal, delivery enums.DeliveryMethod, expressFee decimal.Decimal) Totals {
	fee := decimal.Zero
	if delivery == enums.DeliveryMethodExpress {
		fee = expressFee
	}
	return Totals{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       subtotal.Add(fee),
	}
}
