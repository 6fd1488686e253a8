package models

import "github.com/guregu/null/v6"

// IPOListing is one row of the upcoming-offerings table
type IPOListing struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	PriceRange  string      `json:"price_range"`
	LotSize     int         `json:"lot_size"`
	EntryFee    float64     `json:"entry_fee"`
	Deadline    string      `json:"deadline"`
	ListingDate string      `json:"listing_date"`
	IsAHStock   bool        `json:"is_ah_stock"`
	AShareCode  null.String `json:"a_share_code"`
}

// PricingMechanism is the allocation regime inferred from the offering page
type PricingMechanism string

const (
	// PricingMechanismA: the public tranche grows with oversubscription (clawback table present)
	PricingMechanismA PricingMechanism = "A"
	// PricingMechanismB: fixed public/international split
	PricingMechanismB PricingMechanism = "B"
	// PricingMechanismUnknown serialises as null
	PricingMechanismUnknown PricingMechanism = ""
)

// MarshalJSON renders the unknown mechanism as null
func (m PricingMechanism) MarshalJSON() ([]byte, error) {
	if m == PricingMechanismUnknown {
		return []byte("null"), nil
	}
	return []byte(`"` + string(m) + `"`), nil
}

// FundUsage is one slice of the use-of-proceeds chart
type FundUsage struct {
	Purpose string `json:"purpose"`
	Ratio   int    `json:"ratio"`
}

// ClawbackBand maps an oversubscription condition to the public tranche percentage
type ClawbackBand struct {
	Condition string `json:"condition"`
	Ratio     int    `json:"ratio"`
}

// CornerstoneInvestor is one row of the cornerstone table
type CornerstoneInvestor struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

// IPODetail is the full record assembled from the company profile and offering pages
type IPODetail struct {
	IPOListing

	Industry           string   `json:"industry"`
	CompanyIntro       string   `json:"company_intro"`
	MarketCap          string   `json:"market_cap"`
	Sponsors           []string `json:"sponsors"`
	Underwriters       []string `json:"underwriters"`
	GlobalCoordinators []string `json:"global_coordinators"`

	TotalShares  int64      `json:"total_shares"`
	PublicShares int64      `json:"public_shares"`
	PublicRatio  null.Float `json:"public_ratio"`
	IntlShares   int64      `json:"intl_shares"`
	IntlRatio    null.Float `json:"intl_ratio"`

	FundUsage            []FundUsage           `json:"fund_usage"`
	Clawback             []ClawbackBand        `json:"clawback"`
	CornerstoneInvestors []CornerstoneInvestor `json:"cornerstone_investors"`
	HasGreenshoe         bool                  `json:"has_greenshoe"`
	PricingMechanism     PricingMechanism      `json:"pricing_mechanism"`
}

// NewIPODetail returns a detail record with every collection initialised, so
// missing sections serialise as [] rather than null
func NewIPODetail(code string) *IPODetail {
	return &IPODetail{
		IPOListing:           IPOListing{Code: code},
		Sponsors:             []string{},
		Underwriters:         []string{},
		GlobalCoordinators:   []string{},
		FundUsage:            []FundUsage{},
		Clawback:             []ClawbackBand{},
		CornerstoneInvestors: []CornerstoneInvestor{},
	}
}

// HistoricalIPORecord is one row of the listed-offerings table
type HistoricalIPORecord struct {
	Code              string     `json:"code"`
	Name              string     `json:"name"`
	ListingDate       string     `json:"listing_date"`
	OfferPrice        null.Float `json:"offer_price"`
	ListingPrice      null.Float `json:"listing_price"`
	Oversubscription  null.Float `json:"oversubscription"`
	WinRatePct        null.Float `json:"win_rate_pct"`
	FirstDayChangePct null.Float `json:"first_day_change_pct"`
}

// CalendarEntry is an offering inside a subscription round
type CalendarEntry struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	EntryFee    float64 `json:"entry_fee"`
	ListingDate string  `json:"listing_date"`
}

// CalendarRound groups offerings that close on the same day
type CalendarRound struct {
	Deadline string          `json:"deadline"`
	IPOs     []CalendarEntry `json:"ipos"`
}
