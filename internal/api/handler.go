// Package api exposes the rebalance engine over HTTP (gin) and a
// websocket progress stream, grounded on the teacher's
// internal/controllers package (logger + repo-backed controller,
// RegisterRoutes on a *gin.RouterGroup, gin.H JSON responses).
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fintual/rebalancer/internal/estimator"
	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/rebalance"
	"github.com/fintual/rebalancer/internal/telemetry"
)

// Handler wires the rebalance engine into gin routes.
type Handler struct {
	logger    *logrus.Logger
	validate  *validator.Validate
	upgrader  websocket.Upgrader
	estimator estimator.Estimator
}

// NewHandler constructs a Handler. est may be nil, in which case every
// call falls back to rebalance.Rebalance's own default
// (estimator.Synthetic); pass a cache-backed estimator to reuse (μ, Σ)
// across calls for the same ticker set.
func NewHandler(logger *logrus.Logger, est estimator.Estimator) *Handler {
	return &Handler{
		logger:    logger,
		validate:  validator.New(),
		estimator: est,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes mounts the engine's endpoints under group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/health", h.Health)
	group.POST("/rebalance", h.Rebalance)
	group.GET("/rebalance/stream", h.RebalanceStream)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Rebalance handles POST /v1/rebalance: validate the request body,
// convert it to domain types, run the engine, translate its error
// taxonomy into HTTP status codes.
func (h *Handler) Rebalance(c *gin.Context) {
	var req RebalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portfolio, err := req.Portfolio.ToPortfolio()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	strategyLabel := req.Strategy
	start := time.Now()
	result, err := rebalance.Rebalance(portfolio, req.StrategyConfig(), req.Constraints(), h.estimator)
	telemetry.RebalanceDuration.WithLabelValues(strategyLabel).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.RebalanceCalls.WithLabelValues(strategyLabel, "error").Inc()
		status := statusForError(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	outcome := "ok"
	if len(result.Warnings) > 0 {
		outcome = "warning"
	}
	telemetry.RebalanceCalls.WithLabelValues(strategyLabel, outcome).Inc()
	for _, t := range result.Trades {
		telemetry.TradesEmitted.WithLabelValues(string(t.Action)).Inc()
	}
	if iterations, ok := result.Metrics["iterations"].(int); ok {
		telemetry.OptimizerIterations.Observe(float64(iterations))
	}

	c.JSON(http.StatusOK, FromResult(result))
}

// progressEvent is one message on the /rebalance/stream websocket,
// mirroring the CVaRRebalanceStrategy state machine from spec.md
// §4.10 so a client can render progress for a long-running call.
type progressEvent struct {
	State string `json:"state"`
}

// RebalanceStream handles GET /v1/rebalance/stream: upgrades to a
// websocket, reads a request from the first text message, and writes
// the state names for the requested strategy (Init, Estimating and
// Optimizing for cvar only, GeneratingTrades, ApplyingConstraints)
// before running the engine synchronously; then it writes Done and
// the result. The events do not follow the engine's actual progress,
// and the Fallback state is never reported.
func (h *Handler) RebalanceStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("api: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var req RebalanceRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeProgress(conn, progressEvent{State: "Error"})
		return
	}

	h.writeProgress(conn, progressEvent{State: "Init"})
	portfolio, err := req.Portfolio.ToPortfolio()
	if err != nil {
		h.writeProgress(conn, progressEvent{State: "Error"})
		return
	}

	if req.Strategy == "cvar" {
		h.writeProgress(conn, progressEvent{State: "Estimating"})
		h.writeProgress(conn, progressEvent{State: "Optimizing"})
	}
	h.writeProgress(conn, progressEvent{State: "GeneratingTrades"})
	h.writeProgress(conn, progressEvent{State: "ApplyingConstraints"})

	result, err := rebalance.Rebalance(portfolio, req.StrategyConfig(), req.Constraints(), h.estimator)
	if err != nil {
		h.writeProgress(conn, progressEvent{State: "Error"})
		return
	}

	h.writeProgress(conn, progressEvent{State: "Done"})
	if err := conn.WriteJSON(FromResult(result)); err != nil {
		h.logger.Warnf("api: websocket write failed: %v", err)
	}
}

func (h *Handler) writeProgress(conn *websocket.Conn, ev progressEvent) {
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Warnf("api: websocket progress write failed: %v", err)
	}
}

// statusForError maps the closed error taxonomy (spec.md §7) to HTTP
// status codes. Fatal kinds map to 4xx rather than 500s, since every
// fatal kind traces back to the submitted portfolio or estimator
// input: EmptyPortfolio, InvalidTargets and InsufficientScenarios to
// 400, every other kind to 422. Errors outside the taxonomy are 500s.
func statusForError(err error) int {
	kind, ok := model.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case model.KindEmptyPortfolio, model.KindInvalidTargets, model.KindInsufficientScenarios:
		return http.StatusBadRequest
	case model.KindInvalidCovariance, model.KindPrecisionOverflow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusUnprocessableEntity
	}
}
