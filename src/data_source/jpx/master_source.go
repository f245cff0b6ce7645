package jpx

import (
	"context"
	"math"
	"strconv"
	"strings"

	"jpx-history/src/helpers"
	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"
)

// Header labels of the JPX listing sheet.
const (
	HeaderDate       = "日付"
	HeaderCode       = "コード"
	HeaderName       = "銘柄名"
	HeaderMarket     = "市場・商品区分"
	HeaderSector33   = "33業種コード"
	HeaderSector33Nm = "33業種区分"
	HeaderSector17   = "17業種コード"
	HeaderSector17Nm = "17業種区分"
	HeaderScale      = "規模コード"
	HeaderScaleNm    = "規模区分"
)

// unclassifiedCell marks a missing classification in the sheet.
const unclassifiedCell = "-"

var requiredHeaders = []string{
	HeaderCode, HeaderName, HeaderMarket, HeaderSector33, HeaderSector17, HeaderScale,
}

// headerSearchRows bounds how far down the sheet the header row may sit.
const headerSearchRows = 10

// -----------------------------------------------------------------------------

// JPXMasterSource downloads and decodes the JPX listed-company sheet.
type JPXMasterSource struct {
	URL     string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewJPXMasterSource(url string, netMgr interfaces.INetworkManager, log *logger.Logger) *JPXMasterSource {
	return &JPXMasterSource{
		URL:     url,
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// FetchMaster returns domestic-equity symbols in sheet order. Deduplication
// and ordering are the caller's job.
func (s *JPXMasterSource) FetchMaster(ctx context.Context) ([]models.MSymbol, error) {
	body, err := s.Network.Get(ctx, s.URL, nil)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("downloaded listing sheet (%d bytes)", len(body))

	rows, err := ReadFirstSheet(body)
	if err != nil {
		return nil, helpers.NewParseError("workbook", s.URL, err)
	}
	return ParseMaster(rows, s.Logger)
}

// -----------------------------------------------------------------------------

// ParseMaster maps sheet rows onto symbols. Rows outside the three domestic
// segments are dropped before any coercion. Descriptive columns are ignored.
func ParseMaster(rows [][]string, log *logger.Logger) ([]models.MSymbol, error) {
	headerRow, cols, err := locateHeader(rows)
	if err != nil {
		return nil, err
	}

	var symbols []models.MSymbol
	skipped := 0
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		cell := func(name string) string {
			idx := cols[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		market, ok := models.MarketFromSourceLabel(cell(HeaderMarket))
		if !ok {
			skipped++
			continue
		}

		rawCode := cell(HeaderCode)
		code, err := parseIntCell(HeaderCode, rawCode)
		if err != nil {
			if isAlphanumericCode(rawCode) {
				log.Warning("skipping alphanumeric code %s (%s)", rawCode, cell(HeaderName))
				skipped++
				continue
			}
			return nil, err
		}

		sector33, err := parseClassification(HeaderSector33, cell(HeaderSector33))
		if err != nil {
			return nil, err
		}
		sector17, err := parseClassification(HeaderSector17, cell(HeaderSector17))
		if err != nil {
			return nil, err
		}
		scale, err := parseClassification(HeaderScale, cell(HeaderScale))
		if err != nil {
			return nil, err
		}

		symbols = append(symbols, models.MSymbol{
			Code:       code,
			Name:       cell(HeaderName),
			Market:     market,
			Sector33:   sector33,
			Sector17:   sector17,
			ScaleClass: scale,
		})
	}

	log.Debug("parsed %d symbols, skipped %d rows", len(symbols), skipped)
	return symbols, nil
}

// -----------------------------------------------------------------------------

func locateHeader(rows [][]string) (int, map[string]int, error) {
	limit := headerSearchRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for r := 0; r < limit; r++ {
		cols := make(map[string]int)
		for i, v := range rows[r] {
			name := strings.TrimSpace(v)
			if _, seen := cols[name]; !seen && name != "" {
				cols[name] = i
			}
		}
		if _, ok := cols[HeaderCode]; !ok {
			continue
		}
		if missing := missingHeader(cols); missing != "" {
			return 0, nil, helpers.NewParseError("header", missing, nil)
		}
		return r, cols, nil
	}
	return 0, nil, helpers.NewParseError("header", HeaderCode, nil)
}

func missingHeader(cols map[string]int) string {
	for _, h := range requiredHeaders {
		if _, ok := cols[h]; !ok {
			return h
		}
	}
	return ""
}

// -----------------------------------------------------------------------------

// parseIntCell accepts plain integers and integral spreadsheet numerics like "1301.0".
func parseIntCell(field, v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, helpers.NewParseError(field, v, err)
	}
	return int(f), nil
}

func parseClassification(field, v string) (models.Classification, error) {
	if v == unclassifiedCell {
		return models.Unclassified, nil
	}
	n, err := parseIntCell(field, v)
	if err != nil {
		return models.Unclassified, err
	}
	return models.Classified(n), nil
}

// isAlphanumericCode matches the newer listing codes such as 130A.
func isAlphanumericCode(v string) bool {
	if v == "" {
		return false
	}
	hasLetter := false
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}
