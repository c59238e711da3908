package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"github.com/jstittsworth/hoops-analytics/internal/services"
	"github.com/jstittsworth/hoops-analytics/pkg/logger"
	"github.com/jstittsworth/hoops-analytics/pkg/utils"
	"github.com/sirupsen/logrus"
)

// WeightsHandler manages per-owner scoring weight sets.
type WeightsHandler struct {
	store  *services.Store
	logger *logrus.Logger
}

func NewWeightsHandler(store *services.Store, log *logrus.Logger) *WeightsHandler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &WeightsHandler{store: store, logger: log}
}

// ListWeights handles GET /scoring/weights/:owner
func (h *WeightsHandler) ListWeights(c *gin.Context) {
	sets, err := h.store.ListWeights(c.Request.Context(), c.Param("owner"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to list weight sets")
		return
	}
	utils.SendSuccessWithMeta(c, sets, &utils.Meta{Total: int64(len(sets))})
}

type CreateWeightsBody struct {
	Name              string   `json:"name" binding:"required"`
	Points            *float64 `json:"points"`
	Rebounds          *float64 `json:"rebounds"`
	Assists           *float64 `json:"assists"`
	Steals            *float64 `json:"steals"`
	Blocks            *float64 `json:"blocks"`
	ThreePointersMade *float64 `json:"three_pointers_made"`
	Turnovers         *float64 `json:"turnovers"`
	IsDefault         bool     `json:"is_default"`
}

// weights fills omitted categories from the built-in set.
func (b CreateWeightsBody) weights() analytics.ScoringWeights {
	w := analytics.DefaultScoringWeights()
	w.Name = b.Name
	w.IsDefault = b.IsDefault
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{b.Points, &w.Points},
		{b.Rebounds, &w.Rebounds},
		{b.Assists, &w.Assists},
		{b.Steals, &w.Steals},
		{b.Blocks, &w.Blocks},
		{b.ThreePointersMade, &w.ThreePointersMade},
		{b.Turnovers, &w.Turnovers},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return w
}

// CreateWeights handles POST /scoring/weights/:owner
func (h *WeightsHandler) CreateWeights(c *gin.Context) {
	var body CreateWeightsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	row, err := h.store.CreateWeights(c.Request.Context(), c.Param("owner"), body.weights())
	if err != nil {
		respondError(c, h.logger, err, "Failed to create weight set")
		return
	}
	utils.SendSuccess(c, row)
}

type SetDefaultBody struct {
	WeightSetID uint `json:"weight_set_id" binding:"required"`
}

// SetDefault handles PUT /scoring/weights/:owner/default
func (h *WeightsHandler) SetDefault(c *gin.Context) {
	var body SetDefaultBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	owner := c.Param("owner")
	if err := h.store.SetDefaultWeights(c.Request.Context(), owner, body.WeightSetID); err != nil {
		respondError(c, h.logger, err, "Failed to set default weight set")
		return
	}
	utils.SendSuccess(c, gin.H{"owner_id": owner, "weight_set_id": body.WeightSetID})
}
