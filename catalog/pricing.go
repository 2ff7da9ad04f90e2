package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PricingPolicy 新入库书籍的每日借阅价格
// 已存在书籍的价格不受导入影响
type PricingPolicy struct {
	Default    decimal.Decimal
	ByCategory map[string]decimal.Decimal
}

// NewPricingPolicy 由配置构建定价策略
func NewPricingPolicy(defaultPrice float64, byCategory map[string]float64) PricingPolicy {
	p := PricingPolicy{
		Default:    decimal.NewFromFloat(defaultPrice).Round(2),
		ByCategory: make(map[string]decimal.Decimal, len(byCategory)),
	}
	for category, price := range byCategory {
		p.ByCategory[strings.ToLower(strings.TrimSpace(category))] = decimal.NewFromFloat(price).Round(2)
	}
	return p
}

// PriceFor 按分类取价，未配置的分类使用默认价
func (p PricingPolicy) PriceFor(category string) decimal.Decimal {
	if price, ok := p.ByCategory[strings.ToLower(strings.TrimSpace(category))]; ok {
		return price
	}
	return p.Default
}
