package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cloudpulse/gcp-pulse/app/cache"
	"github.com/cloudpulse/gcp-pulse/app/cfg"
	"github.com/cloudpulse/gcp-pulse/app/sources"
)

func NewHandler(aggregator AggregatorInterface, fetcher FetcherInterface,
	feedCache *cache.Cache, sourceCount int) *Handler {
	return &Handler{
		aggregator:  aggregator,
		fetcher:     fetcher,
		cache:       feedCache,
		sourceCount: sourceCount,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	payload, err := h.cache.GetOrRefresh(c.Request.Context(), h.aggregator.Run)
	if err != nil {
		slog.Error("Feed aggregation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate feeds"})
		return
	}

	c.JSON(http.StatusOK, payload)
}

func (h *Handler) GetIncidents(c *gin.Context) {
	items, err := h.fetcher.FetchIncidents(c.Request.Context())
	if err != nil {
		slog.Error("Incident fetch failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch incidents"})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetIPRanges(c *gin.Context) {
	data, err := h.fetcher.FetchIPRanges(c.Request.Context())
	if err != nil {
		slog.Error("IP ranges fetch failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch IP ranges"})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *Handler) GetGKEFeed(c *gin.Context) {
	channel := c.Query("channel")

	data, err := h.fetcher.FetchGKEFeed(c.Request.Context(), channel)
	if err != nil {
		if errors.Is(err, sources.ErrUnknownChannel) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid channel, expected one of: stable, regular, rapid",
			})
			return
		}
		slog.Error("GKE feed fetch failed", "channel", channel, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch GKE feed"})
		return
	}

	c.Data(http.StatusOK, "text/xml; charset=utf-8", data)
}

// GetClientConfig surfaces runtime configuration the dashboard needs, in
// particular the generative-AI key the browser calls the API with
// directly.
func (h *Handler) GetClientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"genaiApiKey": cfg.Get().GenAIAPIKey,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   h.sourceCount,
		"version":   cfg.Get().Version,
	}

	if age := h.cache.Age(); age > 0 {
		health["cache_age"] = age.String()
	}

	c.JSON(http.StatusOK, health)
}
