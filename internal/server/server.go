package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/spreadlab/claimtrace/config"
	"github.com/spreadlab/claimtrace/internal/lineage"
	"github.com/spreadlab/claimtrace/internal/pipeline"
	"github.com/spreadlab/claimtrace/internal/quota"
	"github.com/spreadlab/claimtrace/models"
	"github.com/spreadlab/claimtrace/provider"
	"github.com/spreadlab/claimtrace/tools/embedding"
	"github.com/spreadlab/claimtrace/tools/extract"
	"github.com/spreadlab/claimtrace/tools/web_search"
)

// Run wires the pipeline dependencies from config and serves the HTTP API.
func Run(cfg *appconfig.Config) error {
	ctx := context.Background()

	llm, err := provider.NewProvider(provider.OpenAI, cfg.LLM)
	if err != nil {
		return err
	}

	searcher, err := newSearcher(cfg.Search)
	if err != nil {
		return err
	}

	client, err := lineage.Conn(ctx,
		cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
		cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout,
	)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	var quotaStore quota.Store
	switch cfg.Quota.Backend {
	case "redis":
		quotaStore = quota.NewRedisStore(client, cfg.Quota.DailyLimit, cfg.Quota.ResetCron)
	default:
		quotaStore = quota.NewMemoryStore(cfg.Quota.DailyLimit, cfg.Quota.ResetCron)
	}

	runner := pipeline.NewRunner(pipeline.Runner{
		Router:           extract.NewDefaultRouter(cfg.Extract, nil),
		Provider:         llm,
		Embedder:         embedding.NewEmbedding(llm),
		Searcher:         searcher,
		Quota:            quotaStore,
		Lineage:          lineage.NewRedisStore(client),
		MaxSearchResults: cfg.Search.MaxResults,
		SearchCache:      gocache.New(cfg.Search.CacheTTL, cfg.Search.CacheTTL/2),
	})

	e := newEcho()
	h := &TraceHandler{Runner: runner, Lineage: lineage.NewRedisStore(client), Quota: quotaStore}
	h.Register(e.Group("/api/v1"))

	return e.Start(cfg.Server.Address)
}

func newSearcher(cfg appconfig.SearchConfig) (web_search.WebSearcher, error) {
	switch web_search.Provider(cfg.Provider) {
	case web_search.BraveProvider:
		return web_search.NewWebSearcher(web_search.BraveProvider, cfg.BraveAPIKey)
	default:
		return web_search.NewWebSearcher(web_search.SerperProvider, cfg.SerperAPIKey)
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

// httpStatusFor maps the pipeline error taxonomy onto stable status codes
// without leaking internals.
func httpStatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusPaymentRequired, "quota exceeded"
	case errors.Is(err, models.ErrUnsupportedInput):
		return http.StatusUnprocessableEntity, "unsupported input"
	case errors.Is(err, models.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, "no claims could be extracted"
	case errors.Is(err, lineage.ErrNotFound):
		return http.StatusNotFound, "lineage record not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
