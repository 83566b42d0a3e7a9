package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	"CoinPulse/internal/queue"
	"CoinPulse/internal/service/providers"
	"CoinPulse/internal/service/ratelimit"
	"CoinPulse/internal/usecase"
	"CoinPulse/pkg/cache"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
)

// SignalsHandler serves the read surface: current signals, signal history
// and queue health. Reads prefer the cache and fall through to the store.
type SignalsHandler struct {
	store  domrepo.SignalStore
	cache  cache.Service
	queue  *queue.Queue
	budget *ratelimit.Budget
	log    *logger.Logger
}

// NewSignalsHandler creates the handler.
func NewSignalsHandler(
	store domrepo.SignalStore,
	c cache.Service,
	q *queue.Queue,
	budget *ratelimit.Budget,
	log *logger.Logger,
) *SignalsHandler {
	return &SignalsHandler{store: store, cache: c, queue: q, budget: budget, log: log}
}

// RegisterRoutes wires the handler into the Echo instance.
func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	v1 := e.Group("/api/v1")
	v1.GET("/signals/:id", h.GetSignal)
	v1.GET("/signals/:id/history", h.GetHistory)
	v1.POST("/signals/:id/refresh", h.Refresh)
	v1.GET("/queue/stats", h.QueueStats)
}

type refreshRequest struct {
	Tier  string `json:"tier" default:"high" validate:"omitempty,oneof=critical high medium low batch"`
	Force bool   `json:"force"`
}

// Health reports process liveness.
func (h *SignalsHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetSignal returns the current signal for an asset.
func (h *SignalsHandler) GetSignal(c echo.Context) error {
	assetID := c.Param("id")
	if assetID == "" {
		return xhttp.BadRequestResponse(c, "asset id required")
	}

	var cached models.Signal
	if err := h.cache.Get(c.Request().Context(), cache.Key(usecase.SignalKeyPrefix, assetID), &cached); err == nil {
		return xhttp.SuccessResponse(c, &cached)
	}

	sig, err := h.store.GetCurrent(c.Request().Context(), assetID)
	if err != nil {
		h.log.Error("get signal failed",
			logger.String("asset", assetID),
			logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if sig == nil {
		return xhttp.NotFoundResponse(c, "asset not scored")
	}
	return xhttp.SuccessResponse(c, sig)
}

// GetHistory returns signals for an asset since a given time, newest
// first. `since` defaults to 24 hours ago, `limit` to 100.
func (h *SignalsHandler) GetHistory(c echo.Context) error {
	assetID := c.Param("id")
	if assetID == "" {
		return xhttp.BadRequestResponse(c, "asset id required")
	}

	since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Now().Add(-24*time.Hour))
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 100)
	if limit < 1 || limit > 1000 {
		return xhttp.BadRequestResponse(c, "limit must be in [1,1000]")
	}

	sigs, err := h.store.History(c.Request().Context(), assetID, since, limit)
	if err != nil {
		h.log.Error("get history failed",
			logger.String("asset", assetID),
			logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, sigs, int64(len(sigs)))
}

// Refresh enqueues an on-demand recompute for an asset. With force set
// the cached signal is invalidated first so the fast path cannot serve a
// stale result.
func (h *SignalsHandler) Refresh(c echo.Context) error {
	assetID := c.Param("id")
	if assetID == "" {
		return xhttp.BadRequestResponse(c, "asset id required")
	}

	var req refreshRequest
	if errs := xhttp.ReadAndValidateRequest(c, &req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}
	tier, ok := models.TierFromString(req.Tier)
	if !ok {
		return xhttp.BadRequestResponse(c, "unknown tier")
	}

	if req.Force {
		if err := h.cache.Delete(c.Request().Context(), cache.Key(usecase.SignalKeyPrefix, assetID)); err != nil {
			h.log.Warn("signal cache invalidation failed",
				logger.String("asset", assetID),
				logger.Error(err))
		}
	}

	if err := h.queue.Enqueue(&models.QueueTask{AssetID: assetID, Tier: tier}); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, "queue full, retry later")
		}
		h.log.Error("refresh enqueue failed",
			logger.String("asset", assetID),
			logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{
		"asset_id": assetID,
		"tier":     tier.String(),
	})
}

// QueueStats reports per-tier queue depth, in-flight count and the market
// source's remaining budget.
func (h *SignalsHandler) QueueStats(c echo.Context) error {
	stats := map[string]interface{}{
		"depths":    h.queue.Depths(),
		"in_flight": h.queue.InFlight(),
		"budget": map[string]interface{}{
			"source":          providers.SourceMarket,
			"remaining_today": h.budget.RemainingToday(providers.SourceMarket),
			"remaining_month": h.budget.RemainingMonth(providers.SourceMarket),
			"near_limit":      h.budget.NearLimit(providers.SourceMarket),
		},
	}
	return xhttp.SuccessResponse(c, stats)
}
