package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/pipeline/shortage"
	"github.com/andresuchdata/shipment-priority/internal/presenter"
	"github.com/andresuchdata/shipment-priority/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const exportFilename = "shipment_plan.csv"

type PlanHandler struct {
	service          *service.PlannerService
	defaultThreshold int
}

func NewPlanHandler(service *service.PlannerService, defaultThreshold int) *PlanHandler {
	if defaultThreshold < 1 {
		defaultThreshold = presenter.DefaultThreshold
	}
	return &PlanHandler{service: service, defaultThreshold: defaultThreshold}
}

type planQuery struct {
	request   service.PlanRequest
	threshold int
}

type planResponse struct {
	presenter.View
	Window  shortage.Window        `json:"window"`
	Sources []service.SourceStatus `json:"sources"`
}

func (h *PlanHandler) parseQuery(c *gin.Context) (planQuery, error) {
	q := planQuery{threshold: h.defaultThreshold}

	parseDate := func(param string) (*time.Time, error) {
		value := strings.TrimSpace(c.Query(param))
		if value == "" {
			return nil, nil
		}
		t, err := time.Parse(domain.DateLayout, value)
		if err != nil {
			return nil, fmt.Errorf("%s must be YYYY-MM-DD", param)
		}
		return &t, nil
	}

	var err error
	if q.request.From, err = parseDate("from"); err != nil {
		return q, err
	}
	if q.request.To, err = parseDate("to"); err != nil {
		return q, err
	}
	if q.request.From != nil && q.request.To != nil && q.request.To.Before(*q.request.From) {
		return q, errors.New("to must not be before from")
	}

	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil || threshold < 1 {
			return q, errors.New("threshold must be a positive integer")
		}
		q.threshold = threshold
	}

	q.request.ForceRefresh, _ = strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	return q, nil
}

func (h *PlanHandler) plan(c *gin.Context) (*service.PlanResult, planQuery, bool) {
	q, err := h.parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, q, false
	}

	res, err := h.service.Plan(c.Request.Context(), q.request)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		log.Error().Err(err).Msg("plan: run failed")
		c.JSON(status, gin.H{"error": "failed to compute plan", "details": err.Error()})
		return nil, q, false
	}
	return res, q, true
}

// GetQueue returns the full prioritized queue with semaphores and report.
func (h *PlanHandler) GetQueue(c *gin.Context) {
	res, q, ok := h.plan(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, planResponse{
		View:    presenter.Build(res.Result, q.threshold),
		Window:  res.Window,
		Sources: res.Sources,
	})
}

// GetSequence returns only the floor sequence: overall, per part and per day.
func (h *PlanHandler) GetSequence(c *gin.Context) {
	res, _, ok := h.plan(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   res.RunID,
		"status":   res.Status,
		"message":  res.Status.Message(),
		"sequence": presenter.RenderSequence(res.Queue),
		"entries":  presenter.Sequence(res.Queue),
		"parts":    presenter.GroupByPart(res.Queue),
		"days":     presenter.DailySequences(res.Queue),
	})
}

// GetExport streams the queue as CSV.
func (h *PlanHandler) GetExport(c *gin.Context) {
	res, q, ok := h.plan(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := presenter.WriteCSV(&buf, presenter.Rows(res.Queue, q.threshold)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export", "details": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	c.Header("X-Plan-Status", string(res.Status))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GetNonUsable returns the non-usable inventory breakdown, as JSON or CSV (format=csv).
func (h *PlanHandler) GetNonUsable(c *gin.Context) {
	res, _, ok := h.plan(c)
	if !ok {
		return
	}

	if strings.EqualFold(c.Query("format"), "csv") {
		var buf bytes.Buffer
		if err := presenter.WriteNonUsableCSV(&buf, res.NonUsable); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export", "details": err.Error()})
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": res.RunID,
		"items":  res.NonUsable,
		"total":  len(res.NonUsable),
	})
}

// Refresh drops cached sources and recomputes the plan.
func (h *PlanHandler) Refresh(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache", "details": err.Error()})
		return
	}

	q, err := h.parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q.request.ForceRefresh = true

	res, err := h.service.Plan(c.Request.Context(), q.request)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute plan", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, planResponse{
		View:    presenter.Build(res.Result, q.threshold),
		Window:  res.Window,
		Sources: res.Sources,
	})
}
