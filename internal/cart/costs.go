package cart

import (
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultDeliveryBase      = 100
	DefaultDeliveryThreshold = 6
)

// Pricing holds the delivery tariff. Delivery is Base below Threshold units
// and three times Base from Threshold units on.
type Pricing struct {
	Base      decimal.Decimal
	Threshold int
}

func DefaultPricing() Pricing {
	return Pricing{
		Base:      decimal.NewFromInt(DefaultDeliveryBase),
		Threshold: DefaultDeliveryThreshold,
	}
}

func totalQuantity(items []domain.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func itemsCost(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (p Pricing) delivery(quantity int) decimal.Decimal {
	if quantity < p.Threshold {
		return p.Base
	}
	return p.Base.Mul(decimal.NewFromInt(3))
}

func itemQuantity(items []domain.CartItem, productID string) int {
	for _, item := range items {
		if item.Product.ID == productID {
			return item.Quantity
		}
	}
	return 0
}
