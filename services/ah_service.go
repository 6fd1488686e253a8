package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	messageNotDualListed = "Not an A+H stock"
	messageNoHSharePrice = "A+H stock, but H-share offer price not yet determined"
)

// DetailSource returns the detail record of an offering
type DetailSource interface {
	FetchDetail(ctx context.Context, code string) (*models.IPODetail, error)
}

// PriceSource returns the latest price of a ticker
type PriceSource interface {
	FetchLastPrice(ctx context.Context, ticker string) (float64, error)
}

// AHService compares H-share offer prices with the mainland A-share quote
type AHService struct {
	details    DetailSource
	prices     PriceSource
	cnyHKDRate float64
}

// NewAHService creates an A+H comparison service; cnyHKDRate is HKD per CNY
func NewAHService(details DetailSource, prices PriceSource, cnyHKDRate float64) *AHService {
	return &AHService{
		details:    details,
		prices:     prices,
		cnyHKDRate: cnyHKDRate,
	}
}

// CompareAH returns the A+H comparison for the offering with the given code
func (s *AHService) CompareAH(ctx context.Context, code string) (*models.AHComparison, error) {
	detail, err := s.details.FetchDetail(ctx, code)
	if err != nil {
		return nil, err
	}

	comparison := &models.AHComparison{
		Code:       code,
		Name:       detail.Name,
		IsAHStock:  detail.IsAHStock,
		AShareCode: detail.AShareCode,
		CNYHKDRate: s.cnyHKDRate,
	}
	if !detail.IsAHStock {
		comparison.Message = messageNotDualListed
		return comparison, nil
	}

	hPrice := ParsePriceUpperBound(detail.PriceRange)
	if hPrice <= 0 {
		comparison.Message = messageNoHSharePrice
		return comparison, nil
	}
	comparison.HSharePriceHKD = null.FloatFrom(hPrice)

	ticker := AShareTicker(detail.AShareCode.String)
	aPrice, err := s.prices.FetchLastPrice(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetching A-share quote %s: %w", ticker, err)
	}

	aPriceHKD, discount := ComputeAHDiscount(hPrice, aPrice, s.cnyHKDRate)
	comparison.ASharePriceCNY = null.FloatFrom(aPrice)
	comparison.ASharePriceHKD = null.FloatFrom(aPriceHKD)
	comparison.DiscountPct = null.FloatFrom(discount)

	logrus.WithFields(logrus.Fields{
		"component":    "AHService",
		"code":         code,
		"a_share":      ticker,
		"discount_pct": discount,
	}).Debug("Computed A+H discount")

	return comparison, nil
}

// AShareTicker maps a mainland code to its chart API symbol: Shanghai codes
// start with 6 or 9, everything else trades in Shenzhen.
func AShareTicker(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
		return code + ".SS"
	}
	return code + ".SZ"
}

// ComputeAHDiscount converts the A-share price to HKD and returns it with the
// H-share discount (negative) or premium (positive) in percent, both to 2dp
func ComputeAHDiscount(hPriceHKD, aPriceCNY, cnyHKDRate float64) (float64, float64) {
	aHKD := decimal.NewFromFloat(aPriceCNY).Mul(decimal.NewFromFloat(cnyHKDRate))
	if aHKD.IsZero() {
		return 0, 0
	}
	discount := decimal.NewFromFloat(hPriceHKD).Div(aHKD).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	return aHKD.Round(2).InexactFloat64(), discount.Round(2).InexactFloat64()
}
