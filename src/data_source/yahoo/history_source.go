package yahoo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"jpx-history/src/config"
	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"
	"jpx-history/src/utils"
)

const queryDateLayout = "20060102"

// YahooHistorySource fetches one page of daily prices per call.
type YahooHistorySource struct {
	Config  *config.Config
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
	Now     func() time.Time

	calendars map[string]*utils.TradingCalendar
	mu        sync.Mutex
}

// -----------------------------------------------------------------------------

func NewYahooHistorySource(cfg *config.Config, netMgr interfaces.INetworkManager, log *logger.Logger) *YahooHistorySource {
	return &YahooHistorySource{
		Config:    cfg,
		BaseURL:   strings.TrimRight(cfg.Sources.HistoryBaseURL, "/"),
		Network:   netMgr,
		Logger:    log,
		Now:       time.Now,
		calendars: make(map[string]*utils.TradingCalendar),
	}
}

// -----------------------------------------------------------------------------

// Calendar returns the (cached) exchange calendar of a market suffix.
func (s *YahooHistorySource) Calendar(market string) *utils.TradingCalendar {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[market]
	if !ok {
		cal = utils.GetCalendar(market)
		s.calendars[market] = cal
	}
	return cal
}

// LatestSession is the newest session the source can already serve.
func (s *YahooHistorySource) LatestSession(market string) time.Time {
	return s.Calendar(market).LastSession(s.Now())
}

// -----------------------------------------------------------------------------

// PageURL is the history page address without the query string.
func (s *YahooHistorySource) PageURL(code, market string) string {
	return fmt.Sprintf("%s/quote/%s.%s/history", s.BaseURL, code, market)
}

// PageParams returns the query of one page request.
func (s *YahooHistorySource) PageParams(market string, page int) map[string]string {
	params := map[string]string{
		"to":        s.LatestSession(market).Format(queryDateLayout),
		"timeFrame": "d",
		"page":      strconv.Itoa(page),
	}
	if from, ok := s.Config.HistoryLowerBound(s.Now()); ok {
		params["from"] = from.Format(queryDateLayout)
	}
	return params
}

// -----------------------------------------------------------------------------

func (s *YahooHistorySource) FetchPage(ctx context.Context, code, market string, page int) ([]models.MHistoryRow, bool, error) {
	body, err := s.Network.Get(ctx, s.PageURL(code, market), s.PageParams(market, page))
	if err != nil {
		return nil, false, err
	}

	rows, ok, err := ParseHistoryPage(body)
	if err != nil {
		return nil, false, fmt.Errorf("%s.%s page %d: %w", code, market, page, err)
	}
	s.Logger.Debug("%s.%s page %d: %d rows", code, market, page, len(rows))
	return rows, ok, nil
}
