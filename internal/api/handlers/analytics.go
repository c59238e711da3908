package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"github.com/jstittsworth/hoops-analytics/internal/services"
	"github.com/jstittsworth/hoops-analytics/pkg/logger"
	"github.com/jstittsworth/hoops-analytics/pkg/utils"
	"github.com/sirupsen/logrus"
)

// AnalyticsHandler serves scoring, per-player analytics, recommendations and trades.
type AnalyticsHandler struct {
	service *services.AnalyticsService
	logger  *logrus.Logger
}

func NewAnalyticsHandler(service *services.AnalyticsService, log *logrus.Logger) *AnalyticsHandler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &AnalyticsHandler{service: service, logger: log}
}

// Selector names the owner and weight set a request is computed under.
type Selector struct {
	OwnerID     string `json:"owner_id" form:"owner"`
	WeightSetID uint   `json:"weight_set_id" form:"weight_set_id"`
}

type PreviewRequest struct {
	Selector
	Line    analytics.StatLine        `json:"line"`
	Weights *analytics.ScoringWeights `json:"weights"`
}

// PreviewScore handles POST /scoring/preview
func (h *AnalyticsHandler) PreviewScore(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	preview, err := h.service.PreviewScore(c.Request.Context(), req.Line, req.OwnerID, req.WeightSetID, req.Weights)
	if err != nil {
		respondError(c, h.logger, err, "Failed to score stat line")
		return
	}
	utils.SendSuccess(c, preview)
}

type analyticsQuery struct {
	Selector
	Date string `form:"date"`
}

// GetPlayerAnalytics handles GET /players/:id/analytics
func (h *AnalyticsHandler) GetPlayerAnalytics(c *gin.Context) {
	playerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || playerID == 0 {
		utils.SendValidationError(c, "Invalid player ID", c.Param("id"))
		return
	}

	var q analyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.SendValidationError(c, "Invalid query", err.Error())
		return
	}
	date, err := parseDate(q.Date)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", q.Date)
		return
	}

	result, cached, err := h.service.PlayerAnalytics(c.Request.Context(), uint(playerID), date, q.OwnerID, q.WeightSetID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to compute player analytics")
		return
	}
	utils.SendSuccessWithMeta(c, result, &utils.Meta{Cached: cached})
}

type RecomputeBody struct {
	Selector
	Date      string `json:"date"`
	PlayerIDs []uint `json:"player_ids"`
}

// Recompute handles POST /analytics/recompute
func (h *AnalyticsHandler) Recompute(c *gin.Context) {
	var body RecomputeBody
	if err := bindOptionalJSON(c, &body); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", body.Date)
		return
	}

	report, err := h.service.Recompute(c.Request.Context(), services.RecomputeRequest{
		Date:        date,
		OwnerID:     body.OwnerID,
		WeightSetID: body.WeightSetID,
		PlayerIDs:   body.PlayerIDs,
	})
	if err != nil {
		respondError(c, h.logger, err, "Analytics recompute failed")
		return
	}
	utils.SendSuccessWithMeta(c, report, &utils.Meta{BatchID: report.BatchID})
}

// GetRecommendations handles GET /recommendations
func (h *AnalyticsHandler) GetRecommendations(c *gin.Context) {
	var q analyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.SendValidationError(c, "Invalid query", err.Error())
		return
	}
	date, err := parseDate(q.Date)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", q.Date)
		return
	}

	recs, cached, err := h.service.Recommendations(c.Request.Context(), date, q.OwnerID, q.WeightSetID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load recommendations")
		return
	}
	utils.SendSuccessWithMeta(c, recs, &utils.Meta{Total: int64(len(recs)), Cached: cached})
}

type GenerateBody struct {
	Selector
	Date  string `json:"date"`
	Limit int    `json:"limit"`
}

// GenerateRecommendations handles POST /recommendations/generate
func (h *AnalyticsHandler) GenerateRecommendations(c *gin.Context) {
	var body GenerateBody
	if err := bindOptionalJSON(c, &body); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", body.Date)
		return
	}

	report, err := h.service.GenerateRecommendations(c.Request.Context(), services.RecommendationRequest{
		Date:        date,
		OwnerID:     body.OwnerID,
		WeightSetID: body.WeightSetID,
		Limit:       body.Limit,
	})
	if err != nil {
		respondError(c, h.logger, err, "Recommendation generation failed")
		return
	}
	utils.SendSuccessWithMeta(c, report, &utils.Meta{Total: int64(len(report.Recommendations)), BatchID: report.BatchID})
}

type TradeBody struct {
	Selector
	Date    string `json:"date"`
	Give    []uint `json:"give"`
	Receive []uint `json:"receive"`
}

// EvaluateTrade handles POST /trades/evaluate
func (h *AnalyticsHandler) EvaluateTrade(c *gin.Context) {
	var body TradeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", body.Date)
		return
	}

	eval, err := h.service.EvaluateTrade(c.Request.Context(), services.TradeRequest{
		Date:        date,
		OwnerID:     body.OwnerID,
		WeightSetID: body.WeightSetID,
		Give:        body.Give,
		Receive:     body.Receive,
	})
	if err != nil {
		respondError(c, h.logger, err, "Trade evaluation failed")
		return
	}
	utils.SendSuccess(c, eval)
}

// bindOptionalJSON binds a body when one was sent. Batch triggers accept
// an empty POST.
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dest)
}
