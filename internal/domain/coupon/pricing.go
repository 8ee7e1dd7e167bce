package coupon

import "math"

// Quote is the priced breakdown of an appointment.
type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// ComputePrice prices an appointment: the consultation fee plus any extra
// service prices, minus the coupon discount. The discount is computed on the
// base fee only, never on added services, and can never exceed the base fee.
// A nil coupon means no discount.
func ComputePrice(baseFee float64, servicePrices []float64, c *Coupon) Quote {
	subtotal := baseFee
	for _, p := range servicePrices {
		subtotal += p
	}

	var discount float64
	if c != nil {
		switch c.DiscountType {
		case DiscountPercentage:
			discount = baseFee * c.Value / 100
			if c.MaxDiscount != nil && discount > *c.MaxDiscount {
				discount = *c.MaxDiscount
			}
		case DiscountFixed:
			discount = c.Value
		}
		if discount > baseFee {
			discount = baseFee
		}
		if discount < 0 {
			discount = 0
		}
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}
	return Quote{
		Subtotal: round2(subtotal),
		Discount: round2(discount),
		Total:    round2(total),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
