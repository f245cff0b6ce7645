package yahoo

import (
	"bytes"
	"strings"
	"time"

	"jpx-history/src/helpers"
	"jpx-history/src/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

const (
	// PageDateLayout is the date format of the history table, e.g. 2024年6月14日.
	PageDateLayout = "2006年1月2日"

	// SplitMarker appears in the second cell of stock-split notice rows.
	SplitMarker = "分割"

	// minTables is the table count of a page that still carries prices.
	minTables = 2

	ohlcCells = 5
)

// ParseHistoryPage extracts the price table of one history page. ok is false
// when the page has no more data.
func ParseHistoryPage(body []byte) (rows []models.MHistoryRow, ok bool, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false, helpers.NewParseError("page", "", err)
	}

	tables := doc.Find("table")
	if tables.Length() < minTables {
		return nil, false, nil
	}

	tables.First().Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		// 1. Header row
		if i == 0 {
			return true
		}

		cells := cellTexts(tr)
		if len(cells) == 0 {
			return true
		}

		// 2. Split notices
		if len(cells) >= 2 && strings.Contains(cells[1], SplitMarker) {
			return true
		}

		var row models.MHistoryRow
		row, err = parseRow(cells)
		if err != nil {
			return false
		}
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

// -----------------------------------------------------------------------------

func cellTexts(tr *goquery.Selection) []string {
	cells := tr.ChildrenFiltered("th, td")
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(c.Text()))
	})
	return texts
}

func parseRow(cells []string) (models.MHistoryRow, error) {
	if len(cells) < ohlcCells {
		return models.MHistoryRow{}, helpers.NewParseError("row", strings.Join(cells, " | "), nil)
	}

	date, err := time.ParseInLocation(PageDateLayout, cells[0], models.Tokyo)
	if err != nil {
		return models.MHistoryRow{}, helpers.NewParseError("date", cells[0], err)
	}

	var prices [4]float64
	names := [4]string{"open", "high", "low", "close"}
	for i := range prices {
		if prices[i], err = parseNumber(names[i], cells[i+1]); err != nil {
			return models.MHistoryRow{}, err
		}
	}

	row := models.MHistoryRow{
		Date:  date,
		Open:  prices[0],
		High:  prices[1],
		Low:   prices[2],
		Close: prices[3],
	}

	if len(cells) > ohlcCells && !isBlankCell(cells[ohlcCells]) {
		v, err := parseNumber("volume", cells[ohlcCells])
		if err != nil {
			return models.MHistoryRow{}, err
		}
		row.Volume = &v
	}
	return row, nil
}

// parseNumber strips thousands separators, e.g. "38,814.56".
func parseNumber(field, v string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return 0, helpers.NewParseError(field, v, err)
	}
	f, _ := d.Float64()
	return f, nil
}

func isBlankCell(v string) bool {
	return v == "" || v == "---" || v == "-"
}
