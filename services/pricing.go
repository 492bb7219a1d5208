package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Pricer converts a deposit into an approximate USD volume.
type Pricer interface {
	USDVolume(asset string, amount float64) (float64, error)
}

// StaticPricer is a fixed asset→USD table. Unknown assets use Default.
// It is a placeholder, not a price feed.
type StaticPricer struct {
	Prices  map[string]decimal.Decimal
	Default decimal.Decimal
}

func NewStaticPricer(prices map[string]float64, defaultPrice float64) *StaticPricer {
	p := &StaticPricer{
		Prices:  make(map[string]decimal.Decimal, len(prices)),
		Default: decimal.NewFromFloat(defaultPrice),
	}
	for asset, price := range prices {
		p.Prices[strings.ToUpper(asset)] = decimal.NewFromFloat(price)
	}
	return p
}

func (p *StaticPricer) USDVolume(asset string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("negative amount %v", amount)
	}
	price, ok := p.Prices[strings.ToUpper(asset)]
	if !ok {
		price = p.Default
	}
	usd, _ := decimal.NewFromFloat(amount).Mul(price).Round(2).Float64()
	return usd, nil
}

// ParseAmount reads a gateway decimal string such as "0.0125".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
