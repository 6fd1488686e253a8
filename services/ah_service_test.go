package services

import (
	"context"
	"errors"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dualListedDetail(priceRange, aShareCode string) *models.IPODetail {
	detail := models.NewIPODetail("03750")
	detail.Name = "寧德時代"
	detail.PriceRange = priceRange
	detail.IsAHStock = true
	detail.AShareCode = null.StringFrom(aShareCode)
	return detail
}

func TestCompareAHComputesDiscount(t *testing.T) {
	prices := &fakePriceSource{price: 5.0}
	service := NewAHService(&fakeDetailSource{detail: dualListedDetail("3.85-4.25", "601318")}, prices, 1.12)

	comparison, err := service.CompareAH(context.Background(), "03750")

	require.NoError(t, err)
	assert.Equal(t, null.FloatFrom(4.25), comparison.HSharePriceHKD)
	assert.Equal(t, null.FloatFrom(5.0), comparison.ASharePriceCNY)
	assert.Equal(t, null.FloatFrom(5.6), comparison.ASharePriceHKD)
	assert.Equal(t, null.FloatFrom(-24.11), comparison.DiscountPct)
	assert.Equal(t, 1.12, comparison.CNYHKDRate)
	assert.Empty(t, comparison.Message)
	assert.Equal(t, []string{"601318.SS"}, prices.tickers)
}

func TestCompareAHForNonDualListedOffering(t *testing.T) {
	detail := models.NewIPODetail("02097")
	prices := &fakePriceSource{price: 5.0}
	service := NewAHService(&fakeDetailSource{detail: detail}, prices, 1.08)

	comparison, err := service.CompareAH(context.Background(), "02097")

	require.NoError(t, err)
	assert.False(t, comparison.IsAHStock)
	assert.Equal(t, "Not an A+H stock", comparison.Message)
	assert.False(t, comparison.DiscountPct.Valid)
	assert.Empty(t, prices.tickers)
}

func TestCompareAHWithoutOfferPrice(t *testing.T) {
	prices := &fakePriceSource{price: 5.0}
	service := NewAHService(&fakeDetailSource{detail: dualListedDetail("", "300750")}, prices, 1.08)

	comparison, err := service.CompareAH(context.Background(), "03750")

	require.NoError(t, err)
	assert.True(t, comparison.IsAHStock)
	assert.Equal(t, "A+H stock, but H-share offer price not yet determined", comparison.Message)
	assert.Empty(t, prices.tickers)
}

func TestCompareAHSurfacesQuoteFailure(t *testing.T) {
	prices := &fakePriceSource{err: errors.New("no market price")}
	service := NewAHService(&fakeDetailSource{detail: dualListedDetail("263.00", "300750")}, prices, 1.08)

	comparison, err := service.CompareAH(context.Background(), "03750")

	assert.Nil(t, comparison)
	assert.ErrorContains(t, err, "300750.SZ")
}

func TestCompareAHSurfacesDetailFailure(t *testing.T) {
	service := NewAHService(&fakeDetailSource{err: transportFailure("http://ipo.test")}, &fakePriceSource{}, 1.08)

	_, err := service.CompareAH(context.Background(), "03750")

	assert.Error(t, err)
}

func TestAShareTicker(t *testing.T) {
	assert.Equal(t, "601318.SS", AShareTicker("601318"))
	assert.Equal(t, "900901.SS", AShareTicker("900901"))
	assert.Equal(t, "300750.SZ", AShareTicker("300750"))
	assert.Equal(t, "000333.SZ", AShareTicker(" 000333 "))
}

func TestComputeAHDiscount(t *testing.T) {
	aHKD, discount := ComputeAHDiscount(10, 10, 1)
	assert.Equal(t, 10.0, aHKD)
	assert.Equal(t, 0.0, discount)

	aHKD, discount = ComputeAHDiscount(12, 10, 1.0)
	assert.Equal(t, 10.0, aHKD)
	assert.Equal(t, 20.0, discount)

	aHKD, discount = ComputeAHDiscount(12, 0, 1.08)
	assert.Equal(t, 0.0, aHKD)
	assert.Equal(t, 0.0, discount)
}
