package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/stockbell/internal/api"
	"github.com/shaharia-lab/stockbell/internal/catalog"
	"github.com/shaharia-lab/stockbell/internal/engine"
	"github.com/shaharia-lab/stockbell/internal/metrics"
	"github.com/shaharia-lab/stockbell/internal/service"
	svcmocks "github.com/shaharia-lab/stockbell/internal/service/mocks"
	"github.com/shaharia-lab/stockbell/internal/shop"
	"github.com/shaharia-lab/stockbell/internal/storage"
)

// testHarness bundles the mocks and router used by every test.
type testHarness struct {
	stockSvc     *svcmocks.MockStockService
	watchlistSvc *svcmocks.MockWatchlistService
	monitorSvc   *svcmocks.MockMonitorService
	router       chi.Router
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		stockSvc:     new(svcmocks.MockStockService),
		watchlistSvc: new(svcmocks.MockWatchlistService),
		monitorSvc:   new(svcmocks.MockMonitorService),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := api.New(h.stockSvc, h.watchlistSvc, h.monitorSvc, logger)

	r := chi.NewRouter()
	srv.Mount(r)
	h.router = r
	return h
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func upstream(op string) error {
	return &service.UpstreamError{Op: op, Err: &shop.StatusError{Endpoint: "/seed-shop.php", StatusCode: 503}}
}

// ---------- Shop data ----------

func TestGetStock(t *testing.T) {
	tests := []struct {
		name       string
		view       *service.StockView
		err        error
		wantStatus int
	}{
		{
			name: "success",
			view: &service.StockView{
				ReportID:   "1000",
				ReportedAt: 1000,
				Seeds:      []service.StockItem{{Item: shop.Item{Name: "Mango", Qty: 1}, Tier: 1, Watched: true}},
				Gear:       []service.StockItem{},
			},
			wantStatus: http.StatusOK,
		},
		{name: "shop unavailable", err: upstream("stock"), wantStatus: http.StatusBadGateway},
		{name: "unexpected error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.stockSvc.On("Stock", mock.Anything).Return(tc.view, tc.err)

			w := h.do(httptest.NewRequest(http.MethodGet, "/stock", nil))
			assert.Equal(t, tc.wantStatus, w.Code)

			if tc.wantStatus == http.StatusOK {
				var got map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, "1000", got["report_id"])
				seeds := got["seeds"].([]any)
				require.Len(t, seeds, 1)
				seed := seeds[0].(map[string]any)
				assert.Equal(t, "Mango", seed["name"])
				assert.Equal(t, true, seed["watched"])
			}
		})
	}
}

func TestGetWeather(t *testing.T) {
	h := newHarness(t)
	h.stockSvc.On("Weather", mock.Anything).Return(&service.WeatherView{
		Weather: shop.Weather{Active: true, Name: "Golden"},
		Event:   &catalog.WeatherEvent{Key: "Golden", DisplayName: "Gilded Awakening", Mutation: "Gold", Multiplier: "2x"},
	}, nil)

	w := h.do(httptest.NewRequest(http.MethodGet, "/weather", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Golden", got["name"])
	assert.Equal(t, "Gilded Awakening", got["event"].(map[string]any)["display_name"])
}

func TestGetLastSeen(t *testing.T) {
	h := newHarness(t)
	h.stockSvc.On("LastSeen", mock.Anything).Return(nil, upstream("last-seen"))

	w := h.do(httptest.NewRequest(http.MethodGet, "/last-seen", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "shop last-seen")
}

func TestGetCatalog(t *testing.T) {
	h := newHarness(t)
	h.stockSvc.On("Catalog").Return([]catalog.Seed{{Name: "King Limone", Tier: 1}})

	w := h.do(httptest.NewRequest(http.MethodGet, "/catalog", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"seeds":[{"name":"King Limone","tier":1}]}`, w.Body.String())
}

// ---------- Watchlist ----------

func TestGetWatchlist_EmptyIsArray(t *testing.T) {
	h := newHarness(t)
	h.watchlistSvc.On("List", mock.Anything).Return(nil)

	w := h.do(httptest.NewRequest(http.MethodGet, "/watchlist", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestToggleWatchlist(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		items      []string
		err        error
		callSvc    bool
		wantStatus int
	}{
		{name: "success", body: `{"name":"Mango"}`, items: []string{"Mango"}, callSvc: true, wantStatus: http.StatusOK},
		{name: "invalid json", body: `{bad`, wantStatus: http.StatusBadRequest},
		{
			name:       "blank name",
			body:       `{"name":""}`,
			err:        &service.ValidationError{Field: "name", Message: "item name is required"},
			callSvc:    true,
			wantStatus: http.StatusBadRequest,
		},
		{name: "store failure", body: `{"name":"Mango"}`, err: errors.New("disk full"), callSvc: true, wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			if tc.callSvc {
				var name toggleName
				_ = json.Unmarshal([]byte(tc.body), &name)
				h.watchlistSvc.On("Toggle", mock.Anything, name.Name).Return(tc.items, tc.err)
			}

			req := httptest.NewRequest(http.MethodPost, "/watchlist/toggle", strings.NewReader(tc.body))
			w := h.do(req)
			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"items":["Mango"]}`, w.Body.String())
			}
			h.watchlistSvc.AssertExpectations(t)
		})
	}
}

type toggleName struct {
	Name string `json:"name"`
}

func TestReplaceWatchlist(t *testing.T) {
	h := newHarness(t)
	h.watchlistSvc.On("Replace", mock.Anything, []string{"Mango", "Cocotank"}).Return([]string{"Cocotank", "Mango"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/watchlist", strings.NewReader(`{"items":["Mango","Cocotank"]}`))
	w := h.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":["Cocotank","Mango"]}`, w.Body.String())
}

func TestClearWatchlist(t *testing.T) {
	h := newHarness(t)
	h.watchlistSvc.On("Clear", mock.Anything).Return(nil)

	w := h.do(httptest.NewRequest(http.MethodDelete, "/watchlist", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestAcknowledge(t *testing.T) {
	h := newHarness(t)
	h.watchlistSvc.On("Acknowledge", mock.Anything).Return(&shop.Snapshot{ReportedAt: 1234}, nil)

	w := h.do(httptest.NewRequest(http.MethodPost, "/watchlist/acknowledge", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"report_id":"1234"}`, w.Body.String())
}

func TestAcknowledge_CheckInProgress(t *testing.T) {
	h := newHarness(t)
	h.watchlistSvc.On("Acknowledge", mock.Anything).Return(nil, engine.ErrCheckInProgress)

	w := h.do(httptest.NewRequest(http.MethodPost, "/watchlist/acknowledge", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

// ---------- Engine ----------

func TestGetEngine(t *testing.T) {
	h := newHarness(t)
	next := time.Date(2025, 9, 1, 12, 5, 10, 0, time.UTC)
	h.monitorSvc.On("Status", mock.Anything).Return(service.EngineStatus{
		Status: engine.Status{
			State:            engine.StateIdle,
			Suppressed:       true,
			SuppressedReason: engine.ReasonSinkNotReady,
			LastProcessedID:  "1000",
			WatchlistSize:    2,
		},
		NextCheckAt: &next,
	})

	w := h.do(httptest.NewRequest(http.MethodGet, "/engine", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "idle", got["state"])
	assert.Equal(t, true, got["suppressed"])
	assert.Equal(t, "sink_not_ready", got["suppressed_reason"])
	assert.Equal(t, "2025-09-01T12:05:10Z", got["next_check_at"])
}

func TestRunCheck(t *testing.T) {
	h := newHarness(t)
	h.monitorSvc.On("Check", mock.Anything).
		Return(engine.Outcome{Result: metrics.ResultAlerted, ReportID: "1000", Matches: []string{"Mango"}}, nil).Once()
	h.monitorSvc.On("Check", mock.Anything).
		Return(engine.Outcome{Result: metrics.ResultFailed}, upstream("check")).Once()

	w := h.do(httptest.NewRequest(http.MethodPost, "/engine/check", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var out engine.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, metrics.ResultAlerted, out.Result)
	assert.Equal(t, []string{"Mango"}, out.Matches)

	w = h.do(httptest.NewRequest(http.MethodPost, "/engine/check", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetHistory(t *testing.T) {
	h := newHarness(t)
	h.monitorSvc.On("History", mock.Anything).Return([]string{"1", "2"})

	w := h.do(httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ids":["1","2"]}`, w.Body.String())
}

func TestListNotificationLog(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{"default limit", "", 50},
		{"explicit limit", "?limit=5", 5},
		{"invalid limit falls back", "?limit=abc", 50},
		{"negative limit falls back", "?limit=-3", 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.monitorSvc.On("ListLog", mock.Anything, tc.wantLimit).
				Return([]storage.NotificationLogEntry{{ReportID: "1000", Sink: "websocket", Status: storage.StatusSent}}, nil)

			w := h.do(httptest.NewRequest(http.MethodGet, "/notifications"+tc.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			h.monitorSvc.AssertExpectations(t)
		})
	}

	t.Run("store error", func(t *testing.T) {
		h := newHarness(t)
		h.monitorSvc.On("ListLog", mock.Anything, 50).Return(nil, errors.New("db locked"))

		w := h.do(httptest.NewRequest(http.MethodGet, "/notifications", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "dev", got["version"])
	assert.Equal(t, "stockbell/dev", got["user_agent"])
}
