package routes

import (
	"net/http"

	"Nestegg/internal/contracts"
	"Nestegg/internal/domain/goal"
	appErrors "Nestegg/internal/errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateMatchingRule(c *gin.Context) {
	var body contracts.MatchingRuleCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	actorID, err := h.GetActorIDFromContext(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	req := goal.CreateMatchingRuleRequest{
		GoalId:         goalID,
		Type:           goal.MatchingRuleType(body.Type),
		MatchRatio:     body.MatchRatio,
		MaxMatchAmount: body.MaxMatchAmount,
		ExpiresAt:      body.ExpiresAt,
		CreatedBy:      actorID,
	}

	ctx := c.Request.Context()
	rule, err := h.GoalService.CreateMatchingRule(ctx, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contracts.MatchingRuleResponse{Rule: rule})
}

func (h *Handler) UpdateMatchingRule(c *gin.Context) {
	var body contracts.MatchingRuleUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	req := goal.UpdateMatchingRuleRequest{
		MatchRatio:     body.MatchRatio,
		MaxMatchAmount: body.MaxMatchAmount,
		Active:         body.Active,
		ExpiresAt:      body.ExpiresAt,
	}
	if body.Type != nil {
		ruleType := goal.MatchingRuleType(*body.Type)
		req.Type = &ruleType
	}

	ctx := c.Request.Context()
	rule, err := h.GoalService.UpdateMatchingRule(ctx, goalID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MatchingRuleResponse{Rule: rule})
}

func (h *Handler) GetMatchingRule(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	rule, err := h.GoalService.GetMatchingRule(ctx, goalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MatchingRuleResponse{Rule: rule})
}

func (h *Handler) DeactivateMatchingRule(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.GoalService.DeactivateMatchingRule(ctx, goalID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Matching rule deactivated"})
}
