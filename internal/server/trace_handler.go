package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/spreadlab/claimtrace/internal/lineage"
	"github.com/spreadlab/claimtrace/internal/pipeline"
	"github.com/spreadlab/claimtrace/internal/quota"
)

// TraceHandler exposes the lineage pipeline to the presentation layer.
type TraceHandler struct {
	Runner  *pipeline.Runner
	Lineage lineage.Store
	Quota   quota.Store
}

func (h *TraceHandler) Register(g *echo.Group) {
	g.POST("/trace", h.trace)
	g.GET("/lineage/:id", h.lineage)
	g.GET("/quota/:user", h.quota)
}

type traceRequest struct {
	UserID string `json:"user_id"`
	Input  string `json:"input"`
}

func (h *TraceHandler) trace(c echo.Context) error {
	var req traceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Input = strings.TrimSpace(req.Input)
	if req.UserID == "" || req.Input == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and input are required")
	}

	record, err := h.Runner.Run(c.Request().Context(), req.UserID, req.Input)
	if err != nil {
		code, msg := httpStatusFor(err)
		return echo.NewHTTPError(code, msg)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *TraceHandler) lineage(c echo.Context) error {
	id := c.Param("id")
	primary, err := h.Lineage.GetPrimary(c.Request().Context(), id)
	if err != nil {
		code, msg := httpStatusFor(err)
		return echo.NewHTTPError(code, msg)
	}
	secondaries, err := h.Lineage.ListSecondaries(c.Request().Context(), id)
	if err != nil {
		code, msg := httpStatusFor(err)
		return echo.NewHTTPError(code, msg)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"primary_claim": primary,
		"secondaries":   secondaries,
	})
}

func (h *TraceHandler) quota(c echo.Context) error {
	remaining, err := h.Quota.Remaining(c.Request().Context(), c.Param("user"))
	if err != nil {
		code, msg := httpStatusFor(err)
		return echo.NewHTTPError(code, msg)
	}
	return c.JSON(http.StatusOK, map[string]int{"remaining": remaining})
}
