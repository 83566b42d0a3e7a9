package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/queue"
	"CoinPulse/internal/service/ratelimit"
	"CoinPulse/internal/usecase"
	"CoinPulse/pkg/cache"
	"CoinPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordSignalComputed(tier, regime string)          {}
func (nopMetrics) RecordTaskDropped(tier, reason string)             {}
func (nopMetrics) RecordTaskRetried(tier string)                     {}
func (nopMetrics) RecordQueueDepth(tier string, depth int)           {}
func (nopMetrics) RecordBudgetRemaining(source string, today, m int) {}
func (nopMetrics) RecordAlertEmitted(reason string)                  {}
func (nopMetrics) RecordError(kind string)                           {}
func (nopMetrics) RecordLatency(op string, seconds float64)          {}

type fakeStore struct {
	signals map[string]*models.Signal
}

func (f *fakeStore) Upsert(ctx context.Context, sig *models.Signal) error { return nil }

func (f *fakeStore) GetCurrent(ctx context.Context, assetID string) (*models.Signal, error) {
	return f.signals[assetID], nil
}

func (f *fakeStore) History(ctx context.Context, assetID string, since time.Time, limit int) ([]*models.Signal, error) {
	if sig := f.signals[assetID]; sig != nil {
		return []*models.Signal{sig}, nil
	}
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func testSignal() *models.Signal {
	return &models.Signal{
		AssetID:    "bitcoin",
		Symbol:     "BTC",
		FinalScore: 87,
		Regime:     "volatile",
		Recommendation: models.Recommendation{
			Action:     models.ActionStrongBuy,
			Confidence: models.ConfidenceHigh,
		},
		Timeframe:      models.TimeframeScalping,
		Priority:       "immediate",
		RiskScore:      40,
		LiquidityGrade: models.GradeAPlus,
		DataQuality:    models.QualityGood,
		ComputedAt:     time.Now().UTC(),
	}
}

func newHandler(t *testing.T, store *fakeStore) (*SignalsHandler, *echo.Echo, cache.Service) {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })

	q := queue.New(100, nopMetrics{})
	h := NewSignalsHandler(store, mem, q, ratelimit.NewBudget(), l)

	e := echo.New()
	h.RegisterRoutes(e)
	return h, e, mem
}

func doGet(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetSignalFromStore(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{"bitcoin": testSignal()}}
	_, e, _ := newHandler(t, store)

	rec := doGet(e, "/api/v1/signals/bitcoin")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.Signal `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.AssetID != "bitcoin" || resp.Data.Recommendation.Action != models.ActionStrongBuy {
		t.Fatalf("signal = %+v", resp.Data)
	}
}

func TestGetSignalPrefersCache(t *testing.T) {
	// Store is empty; only the cache knows the asset.
	store := &fakeStore{signals: map[string]*models.Signal{}}
	_, e, mem := newHandler(t, store)

	sig := testSignal()
	sig.FinalScore = 91
	if err := mem.Set(context.Background(), cache.Key(usecase.SignalKeyPrefix, "bitcoin"), sig, time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	rec := doGet(e, "/api/v1/signals/bitcoin")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data models.Signal `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.FinalScore != 91 {
		t.Fatalf("FinalScore = %v, want cached 91", resp.Data.FinalScore)
	}
}

func TestGetSignalUnknownAsset(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{}}
	_, e, _ := newHandler(t, store)

	rec := doGet(e, "/api/v1/signals/nonexistent")
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 payload", resp.Status)
	}
}

func TestGetHistory(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{"bitcoin": testSignal()}}
	_, e, _ := newHandler(t, store)

	rec := doGet(e, "/api/v1/signals/bitcoin/history?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doGet(e, "/api/v1/signals/bitcoin/history?limit=5000")
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for oversized limit", resp.Status)
	}
}

func doPost(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRefreshEnqueues(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{}}
	h, e, _ := newHandler(t, store)

	rec := doPost(e, "/api/v1/signals/bitcoin/refresh", `{"tier":"critical"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status int               `json:"status"`
		Data   map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusAccepted || resp.Data["tier"] != "critical" {
		t.Fatalf("resp = %+v", resp)
	}
	if h.queue.Depths()["critical"] != 1 {
		t.Fatalf("depths = %v, want critical=1", h.queue.Depths())
	}
}

func TestRefreshDefaultsToHighTier(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{}}
	h, e, _ := newHandler(t, store)

	rec := doPost(e, "/api/v1/signals/bitcoin/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if h.queue.Depths()["high"] != 1 {
		t.Fatalf("depths = %v, want high=1", h.queue.Depths())
	}
}

func TestRefreshRejectsUnknownTier(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{}}
	_, e, _ := newHandler(t, store)

	rec := doPost(e, "/api/v1/signals/bitcoin/refresh", `{"tier":"sideways"}`)
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 payload", resp.Status)
	}
}

func TestRefreshForceInvalidatesCache(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{}}
	_, e, mem := newHandler(t, store)

	key := cache.Key(usecase.SignalKeyPrefix, "bitcoin")
	if err := mem.Set(context.Background(), key, testSignal(), time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	rec := doPost(e, "/api/v1/signals/bitcoin/refresh", `{"force":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var cached models.Signal
	if err := mem.Get(context.Background(), key, &cached); err == nil {
		t.Fatalf("cached signal still present after forced refresh")
	}
}

func TestQueueStats(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{}}
	h, e, _ := newHandler(t, store)

	_ = h.queue.Enqueue(&models.QueueTask{AssetID: "x", Tier: models.TierHigh})

	rec := doGet(e, "/api/v1/queue/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Depths   map[string]int `json:"depths"`
			InFlight int            `json:"in_flight"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Depths["high"] != 1 {
		t.Fatalf("depths = %v, want high=1", resp.Data.Depths)
	}
}

func TestHealth(t *testing.T) {
	store := &fakeStore{signals: map[string]*models.Signal{}}
	_, e, _ := newHandler(t, store)
	rec := doGet(e, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
