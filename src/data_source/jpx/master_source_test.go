package jpx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"jpx-history/src/helpers"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sheetHeader = []interface{}{
	HeaderDate, HeaderCode, HeaderName, HeaderMarket,
	HeaderSector33, HeaderSector33Nm, HeaderSector17, HeaderSector17Nm, HeaderScale, HeaderScaleNm,
}

func listingRow(code interface{}, name, market string, s33, s17, scale interface{}) []interface{} {
	return []interface{}{20240531, code, name, market, s33, "水産・農林業", s17, "食品", scale, "TOPIX Small 1"}
}

func buildWorkbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

type stubNetwork struct {
	body []byte
	err  error
	urls []string
}

func (s *stubNetwork) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	s.urls = append(s.urls, url)
	return s.body, s.err
}

// -----------------------------------------------------------------------------

func TestFetchMasterFiltersAndMaps(t *testing.T) {
	body := buildWorkbook(t,
		sheetHeader,
		listingRow(1301, "極洋", "プライム（内国株式）", 50, 1, 7),
		listingRow(1305, "ｉＦｒｅｅＥＴＦ　ＴＯＰＩＸ", "ETF・ETN", "-", "-", "-"),
		listingRow(1376, "カネコ種苗", "スタンダード（内国株式）", 50, 1, "-"),
		listingRow(2195, "アミタＨＤ", "グロース（内国株式）", 9050, 10, 7),
		listingRow(7974, "外国株", "プライム（外国株式）", 3650, 9, 1),
	)
	net := &stubNetwork{body: body}
	src := NewJPXMasterSource("https://example.test/data_j.xlsx", net, logger.NewSilentLogger())

	symbols, err := src.FetchMaster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.test/data_j.xlsx"}, net.urls)

	require.Len(t, symbols, 3)
	assert.Equal(t, models.MSymbol{
		Code: 1301, Name: "極洋", Market: models.MarketPrime,
		Sector33: models.Classified(50), Sector17: models.Classified(1), ScaleClass: models.Classified(7),
	}, symbols[0])
	assert.Equal(t, models.MarketStandard, symbols[1].Market)
	assert.False(t, symbols[1].ScaleClass.IsClassified())
	assert.Equal(t, models.MarketGrowth, symbols[2].Market)
	assert.Equal(t, 2195, symbols[2].Code)
}

func TestParseMasterUnclassifiedDash(t *testing.T) {
	rows := [][]string{
		{HeaderCode, HeaderName, HeaderMarket, HeaderSector33, HeaderSector17, HeaderScale},
		{"9999", "テスト", "グロース（内国株式）", "-", "-", "-"},
	}
	symbols, err := ParseMaster(rows, logger.NewSilentLogger())
	require.NoError(t, err)
	require.Len(t, symbols, 1)

	assert.Equal(t, models.Unclassified, symbols[0].Sector33)
	assert.Equal(t, models.Unclassified, symbols[0].Sector17)
	assert.Equal(t, models.Unclassified, symbols[0].ScaleClass)
}

func TestParseMasterSpreadsheetNumerics(t *testing.T) {
	rows := [][]string{
		{HeaderCode, HeaderName, HeaderMarket, HeaderSector33, HeaderSector17, HeaderScale},
		{"1301.0", "極洋", "プライム（内国株式）", "50.0", "1", "7.0"},
	}
	symbols, err := ParseMaster(rows, logger.NewSilentLogger())
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, 1301, symbols[0].Code)
	code, ok := symbols[0].Sector33.Code()
	assert.True(t, ok)
	assert.Equal(t, 50, code)
}

func TestParseMasterSkipsAlphanumericCodes(t *testing.T) {
	rows := [][]string{
		{HeaderCode, HeaderName, HeaderMarket, HeaderSector33, HeaderSector17, HeaderScale},
		{"130A", "Veritas In Silico", "グロース（内国株式）", "5250", "10", "-"},
		{"1301", "極洋", "プライム（内国株式）", "50", "1", "7"},
	}
	symbols, err := ParseMaster(rows, logger.NewSilentLogger())
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, 1301, symbols[0].Code)
}

func TestParseMasterErrors(t *testing.T) {
	cases := []struct {
		name  string
		rows  [][]string
		field string
	}{
		{
			name:  "missing header",
			rows:  [][]string{{HeaderCode, HeaderName, HeaderMarket, HeaderSector33, HeaderSector17}},
			field: "header",
		},
		{
			name:  "no header row",
			rows:  [][]string{{"foo", "bar"}},
			field: "header",
		},
		{
			name: "bad classification",
			rows: [][]string{
				{HeaderCode, HeaderName, HeaderMarket, HeaderSector33, HeaderSector17, HeaderScale},
				{"1301", "極洋", "プライム（内国株式）", "x", "1", "7"},
			},
			field: HeaderSector33,
		},
		{
			name: "bad code",
			rows: [][]string{
				{HeaderCode, HeaderName, HeaderMarket, HeaderSector33, HeaderSector17, HeaderScale},
				{"13.5", "極洋", "プライム（内国株式）", "50", "1", "7"},
			},
			field: HeaderCode,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMaster(tc.rows, logger.NewSilentLogger())
			require.Error(t, err)
			var pe *helpers.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.field, pe.Field)
		})
	}
}

func TestParseMasterIgnoresBadRowsOutsideSegments(t *testing.T) {
	rows := [][]string{
		{HeaderCode, HeaderName, HeaderMarket, HeaderSector33, HeaderSector17, HeaderScale},
		{"????", "REIT", "REIT・ベンチャーファンド・カントリーファンド・インフラファンド", "bad", "bad", "bad"},
		{"1301", "極洋", "プライム（内国株式）", "50", "1", "7"},
	}
	symbols, err := ParseMaster(rows, logger.NewSilentLogger())
	require.NoError(t, err)
	assert.Len(t, symbols, 1)
}

// -----------------------------------------------------------------------------

func TestFetchMasterPropagatesFetchError(t *testing.T) {
	net := &stubNetwork{err: helpers.NewFetchError("https://example.test/data_j.xls", 500, nil)}
	src := NewJPXMasterSource("https://example.test/data_j.xls", net, logger.NewSilentLogger())

	_, err := src.FetchMaster(context.Background())
	assert.True(t, helpers.IsFetchError(err))
}

func TestReadFirstSheetRejectsUnknownFormat(t *testing.T) {
	_, err := ReadFirstSheet([]byte("<html>not a workbook</html>"))
	assert.Error(t, err)
}

func TestReadFirstSheetXLSX(t *testing.T) {
	body := buildWorkbook(t, sheetHeader, listingRow(1301, "極洋", "プライム（内国株式）", 50, 1, 7))
	rows, err := ReadFirstSheet(body)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, HeaderCode, rows[0][1])
	assert.Equal(t, "1301", rows[1][1])
}

// data_j_sample.xls is a BIFF8 workbook laid out like the JPX listing. Codes
// 1301, 1376 and 2195 carry the user-defined number format "0000" and the
// 33-sector code of 1301 a built-in date format; 1305 is a NUMBER record,
// 1332 and 130A are text, 1376 shares a MULRK record with its date. Row 2 is absent.
func readSample(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", "data_j_sample.xls"))
	require.NoError(t, err)
	return body
}

func TestReadFirstSheetXLS(t *testing.T) {
	rows, err := ReadFirstSheet(readSample(t))
	require.NoError(t, err)
	require.Len(t, rows, 8)

	assert.Equal(t, []string{
		HeaderDate, HeaderCode, HeaderName, HeaderMarket,
		HeaderSector33, HeaderSector33Nm, HeaderSector17, HeaderSector17Nm, HeaderScale, HeaderScaleNm,
	}, rows[0])
	assert.Empty(t, rows[1])

	// Formatted numbers come back as stored, not as dates
	assert.Equal(t, []string{"20240531", "1301", "極洋", "プライム（内国株式）", "50", "水産・農林業", "1", "食品", "7", "TOPIX Small 2"}, rows[2])
	assert.Equal(t, "1305", rows[3][1])
	assert.Equal(t, "-", rows[3][4])
	assert.Equal(t, "1332", rows[4][1])
	assert.Equal(t, []string{"20240531", "1376"}, rows[5][:2])
	assert.Equal(t, "130A", rows[6][1])
	assert.Equal(t, "2195", rows[7][1])
}

func TestFetchMasterFromXLS(t *testing.T) {
	net := &stubNetwork{body: readSample(t)}
	src := NewJPXMasterSource("https://example.test/data_j.xls", net, logger.NewSilentLogger())

	symbols, err := src.FetchMaster(context.Background())
	require.NoError(t, err)

	codes := make([]int, len(symbols))
	for i, s := range symbols {
		codes[i] = s.Code
	}
	assert.Equal(t, []int{1301, 1332, 1376, 2195}, codes)

	assert.Equal(t, models.MSymbol{
		Code: 1301, Name: "極洋", Market: models.MarketPrime,
		Sector33: models.Classified(50), Sector17: models.Classified(1), ScaleClass: models.Classified(7),
	}, symbols[0])
	assert.Equal(t, models.MarketStandard, symbols[2].Market)
	assert.False(t, symbols[2].ScaleClass.IsClassified())
	assert.Equal(t, models.MarketGrowth, symbols[3].Market)
	code, _ := symbols[3].Sector33.Code()
	assert.Equal(t, 9050, code)
}
