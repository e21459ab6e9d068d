package routes

import (
	"net/http"

	"Nestegg/internal/contracts"
	"Nestegg/internal/domain/goal"
	appErrors "Nestegg/internal/errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateChallenge(c *gin.Context) {
	var body contracts.ChallengeCreateRequest
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

	req := goal.CreateChallengeRequest{
		GoalId:       goalID,
		Description:  body.Description,
		TargetAmount: body.TargetAmount,
		BonusAmount:  body.BonusAmount,
		StartDate:    body.StartDate,
		EndDate:      body.EndDate,
		CreatedBy:    actorID,
	}

	ctx := c.Request.Context()
	challenge, err := h.GoalService.CreateChallenge(ctx, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contracts.ChallengeResponse{Challenge: challenge})
}

func (h *Handler) ListChallenges(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	challenges, err := h.GoalService.ListChallenges(ctx, goalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.ChallengeListResponse{Challenges: challenges, Total: len(challenges)})
}

func (h *Handler) CancelChallenge(c *gin.Context) {
	challengeID, err := h.parseIDParam(c, "challenge_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.GoalService.CancelChallenge(ctx, challengeID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Challenge cancelled"})
}
