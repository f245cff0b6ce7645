package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jpx-history/src/config"
	"jpx-history/src/helpers"
	"jpx-history/src/logger"
	"jpx-history/src/models"
	"jpx-history/src/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableHeader = `<tr><th>日付</th><th>始値</th><th>高値</th><th>安値</th><th>終値</th><th>出来高</th><th>調整後終値*</th></tr>`

func historyPage(rows ...string) string {
	return `<html><body><table>` + tableHeader + strings.Join(rows, "") +
		`</table><table><tr><td>ad</td></tr></table></body></html>`
}

func priceRow(date, o, h, l, c, v string) string {
	return fmt.Sprintf(`<tr><th>%s</th><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`, date, o, h, l, c, v, c)
}

// -----------------------------------------------------------------------------

func TestParseHistoryPage(t *testing.T) {
	page := historyPage(
		priceRow("2024年6月14日", "38,814.56", "38,863.07", "38,446.59", "38,814.56", "1,234,500"),
		`<tr><th>2024年6月13日</th><td>分割: 1株 -&gt; 5株</td></tr>`,
		priceRow("2024年6月12日", "3,000", "3,050", "2,990", "3,010", "---"),
	)

	rows, ok, err := ParseHistoryPage([]byte(page))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-06-14", rows[0].Date.Format(models.DateLayout))
	assert.Equal(t, models.Tokyo, rows[0].Date.Location())
	assert.Equal(t, 38814.56, rows[0].Open)
	assert.Equal(t, 38863.07, rows[0].High)
	assert.Equal(t, 38446.59, rows[0].Low)
	require.NotNil(t, rows[0].Volume)
	assert.Equal(t, 1234500.0, *rows[0].Volume)

	assert.Equal(t, 3010.0, rows[1].Close)
	assert.Nil(t, rows[1].Volume)
}

func TestParseHistoryPageWithoutVolumeColumn(t *testing.T) {
	page := `<html><table><tr><th>日付</th><th>始値</th><th>高値</th><th>安値</th><th>終値</th></tr>` +
		`<tr><td>2024年1月4日</td><td>33,193.05</td><td>33,568.04</td><td>32,795.84</td><td>33,288.29</td></tr>` +
		`</table><table></table></html>`

	rows, ok, err := ParseHistoryPage([]byte(page))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Volume)
	assert.Equal(t, 33288.29, rows[0].Close)
}

func TestParseHistoryPageEndOfData(t *testing.T) {
	rows, ok, err := ParseHistoryPage([]byte(`<html><table><tr><td>no data</td></tr></table></html>`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rows)

	_, ok, err = ParseHistoryPage([]byte(`<html><body>nothing</body></html>`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseHistoryPageErrors(t *testing.T) {
	cases := []struct {
		name  string
		row   string
		field string
	}{
		{"bad date", priceRow("June 14", "1", "1", "1", "1", "1"), "date"},
		{"bad price", priceRow("2024年6月14日", "abc", "1", "1", "1", "1"), "open"},
		{"bad volume", priceRow("2024年6月14日", "1", "1", "1", "1", "lots"), "volume"},
		{"short row", `<tr><td>2024年6月14日</td><td>1</td></tr>`, "row"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseHistoryPage([]byte(historyPage(tc.row)))
			var pe *helpers.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.field, pe.Field)
		})
	}
}

// -----------------------------------------------------------------------------

func newSource(t *testing.T, handler http.HandlerFunc) *YahooHistorySource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.NewDefaultConfig()
	cfg.Sources.HistoryBaseURL = srv.URL
	cfg.Network.RequestDelayMs = 0
	cfg.Network.MaxRetries = 0

	log := logger.NewSilentLogger()
	src := NewYahooHistorySource(cfg, network.NewAsyncNetworkManager(cfg.MConfig, log), log)
	src.Now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, models.Tokyo) }
	return src
}

func TestFetchPageBuildsQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		fmt.Fprint(w, historyPage(priceRow("2024年6月14日", "1", "2", "0.5", "1.5", "100")))
	})

	rows, ok, err := src.FetchPage(context.Background(), "7203", "T", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, rows, 1)

	assert.Equal(t, "/quote/7203.T/history", gotPath)
	assert.Equal(t, map[string]string{
		"from":      "20200101",
		"to":        "20240614",
		"timeFrame": "d",
		"page":      "3",
	}, gotQuery)
}

func TestFetchPageNonSuccessIsFetchError(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, _, err := src.FetchPage(context.Background(), "0000", "T", 1)
	var fe *helpers.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
}

func TestFetchPageOmitsFromWithoutBound(t *testing.T) {
	var query string
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprint(w, `<html></html>`)
	})
	src.Config.History.FromDate = ""

	_, ok, err := src.FetchPage(context.Background(), "998407", "O", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, query, "from=")
}
