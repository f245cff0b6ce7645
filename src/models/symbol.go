package models

import "fmt"

// Market is the short code of a domestic-equity market segment.
type Market string

const (
	MarketPrime    Market = "PR"
	MarketStandard Market = "ST"
	MarketGrowth   Market = "GR"
)

// Source labels used by the JPX listing for the segments we keep.
const (
	SourceLabelPrime    = "プライム（内国株式）"
	SourceLabelStandard = "スタンダード（内国株式）"
	SourceLabelGrowth   = "グロース（内国株式）"
)

// MarketFromSourceLabel maps a JPX segment label to its short code.
// The second result is false for every segment we do not track (ETFs, REITs, foreign listings...).
func MarketFromSourceLabel(label string) (Market, bool) {
	switch label {
	case SourceLabelPrime:
		return MarketPrime, true
	case SourceLabelStandard:
		return MarketStandard, true
	case SourceLabelGrowth:
		return MarketGrowth, true
	}
	return "", false
}

// ParseMarket validates a short market code.
func ParseMarket(s string) (Market, error) {
	switch m := Market(s); m {
	case MarketPrime, MarketStandard, MarketGrowth:
		return m, nil
	}
	return "", fmt.Errorf("unknown market code %q", s)
}

// -----------------------------------------------------------------------------

// Sentinel integers written to storage for unclassified values.
const (
	Sector33Sentinel   = 9999
	Sector17Sentinel   = 99
	ScaleClassSentinel = 9
)

// Classification is an industry or scale code that may be unclassified.
type Classification struct {
	code       int
	classified bool
}

// Unclassified is the zero Classification.
var Unclassified = Classification{}

func Classified(code int) Classification {
	return Classification{code: code, classified: true}
}

// Code returns the numeric code and whether the value is classified.
func (c Classification) Code() (int, bool) {
	return c.code, c.classified
}

func (c Classification) IsClassified() bool {
	return c.classified
}

// Encode returns the storage integer, substituting sentinel when unclassified.
func (c Classification) Encode(sentinel int) int64 {
	if !c.classified {
		return int64(sentinel)
	}
	return int64(c.code)
}

// DecodeClassification is the inverse of Encode.
func DecodeClassification(v int64, sentinel int) Classification {
	if v == int64(sentinel) {
		return Unclassified
	}
	return Classified(int(v))
}

func (c Classification) String() string {
	if !c.classified {
		return "unclassified"
	}
	return fmt.Sprintf("%d", c.code)
}

// MarshalJSON renders unclassified values as null.
func (c Classification) MarshalJSON() ([]byte, error) {
	if !c.classified {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%d", c.code)), nil
}

// -----------------------------------------------------------------------------

// MSymbol is one row of the listed-company master.
type MSymbol struct {
	Code       int            `json:"code"`
	Name       string         `json:"name"`
	Market     Market         `json:"market"`
	Sector33   Classification `json:"type_33"`
	Sector17   Classification `json:"type_17"`
	ScaleClass Classification `json:"type_scale"`
}
