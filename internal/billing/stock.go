package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// StockItem is a catalogued piece as supplied by the stock source.
type StockItem struct {
	ID           int64               `json:"id"`
	ArticleName  string              `json:"article_name"`
	ArticleCode  string              `json:"article_code"`
	Category     string              `json:"category"`
	Material     string              `json:"material"`
	WeightGrams  decimal.NullDecimal `json:"weight_grams"`
	Carat        decimal.NullDecimal `json:"carat"`
	DiamondCarat decimal.NullDecimal `json:"diamond_carat"`
	SellingPrice decimal.NullDecimal `json:"selling_price"`
	Quantity     int                 `json:"quantity"`
	Status       string              `json:"status"`
}

// ItemClass is the pricing category of a stock item.
type ItemClass string

const (
	ClassGoldMetal        ItemClass = "GOLD_METAL"
	ClassSilverMetal      ItemClass = "SILVER_METAL"
	ClassDiamondOnly      ItemClass = "DIAMOND_ONLY"
	ClassMetalPlusDiamond ItemClass = "METAL_PLUS_DIAMOND"
	ClassOther            ItemClass = "OTHER"
)

// Metal identifies which metal bucket a line's metal value belongs to.
type Metal string

const (
	MetalNone   Metal = ""
	MetalGold   Metal = "GOLD"
	MetalSilver Metal = "SILVER"
)

// MetalOf reads the metal from a free-form material such as "Gold+Diamond".
// Gold wins when both metals are named.
func MetalOf(material string) Metal {
	m := strings.ToLower(material)
	switch {
	case strings.Contains(m, "gold"):
		return MetalGold
	case strings.Contains(m, "silver"):
		return MetalSilver
	default:
		return MetalNone
	}
}

// IsMetal reports whether the item carries weight and carat and is gold or silver,
// which makes it eligible for rate-based pricing.
func (s StockItem) IsMetal() bool {
	if _, ok := nullPositive(s.WeightGrams); !ok {
		return false
	}
	if _, ok := nullPositive(s.Carat); !ok {
		return false
	}
	return MetalOf(s.Material) != MetalNone
}

// HasDiamond reports whether a stone weight is recorded.
func (s StockItem) HasDiamond() bool {
	_, ok := nullPositive(s.DiamondCarat)
	return ok
}

// Classify sorts the item into its pricing class.
func Classify(item StockItem) ItemClass {
	metal := item.IsMetal()
	switch {
	case metal && item.HasDiamond():
		return ClassMetalPlusDiamond
	case metal && MetalOf(item.Material) == MetalGold:
		return ClassGoldMetal
	case metal:
		return ClassSilverMetal
	case item.HasDiamond() || strings.Contains(strings.ToLower(item.Material), "diamond"):
		return ClassDiamondOnly
	default:
		return ClassOther
	}
}
