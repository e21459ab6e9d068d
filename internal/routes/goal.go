package routes

import (
	"net/http"

	"Nestegg/internal/contracts"
	"Nestegg/internal/domain/goal"
	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/pkg"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateGoal(c *gin.Context) {
	var body contracts.GoalCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	actorID, err := h.GetActorIDFromContext(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	dependentID, err := pkg.ParseULID(body.DependentID)
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("dependent_id", "invalid format"))
		return
	}

	mode := goal.AutoTransferNone
	if body.AutoTransferMode != "" {
		mode = goal.AutoTransferMode(body.AutoTransferMode)
	}

	req := goal.CreateGoalRequest{
		DependentId:       dependentID,
		Name:              body.Name,
		Description:       body.Description,
		Category:          body.Category,
		TargetAmount:      body.TargetAmount,
		Priority:          body.Priority,
		AutoTransferMode:  mode,
		AutoTransferParam: body.AutoTransferParam,
		TargetDate:        body.TargetDate,
		CreatedBy:         actorID,
	}

	ctx := c.Request.Context()
	created, err := h.GoalService.CreateGoal(ctx, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contracts.GoalResponse{Goal: created})
}

func (h *Handler) UpdateGoal(c *gin.Context) {
	var body contracts.GoalUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	req := goal.UpdateGoalRequest{
		Name:              body.Name,
		Description:       body.Description,
		Category:          body.Category,
		TargetAmount:      body.TargetAmount,
		Priority:          body.Priority,
		AutoTransferParam: body.AutoTransferParam,
		TargetDate:        body.TargetDate,
	}
	if body.AutoTransferMode != nil {
		mode := goal.AutoTransferMode(*body.AutoTransferMode)
		req.AutoTransferMode = &mode
	}

	ctx := c.Request.Context()
	if err := h.GoalService.UpdateGoal(ctx, goalID, &req); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Goal updated"})
}

func (h *Handler) ListGoals(c *gin.Context) {
	dependentIDRaw := c.Query("dependent_id")
	if dependentIDRaw == "" {
		h.respondError(c, appErrors.NewValidationError("dependent_id", "is required"))
		return
	}

	dependentID, err := pkg.ParseULID(dependentIDRaw)
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("dependent_id", "invalid format"))
		return
	}

	var filters goal.GoalFilters
	if statusRaw := c.Query("status"); statusRaw != "" {
		status := goal.GoalStatus(statusRaw)
		filters.Status = &status
	}

	pagination := h.parsePagination(c)

	ctx := c.Request.Context()
	goals, total, err := h.GoalService.GetGoalsByDependentID(ctx, dependentID, &filters, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := pkg.NewPaginatedResponse(goals, pagination.Page, pagination.Limit, total)
	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetGoal(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	detail, err := h.GoalService.GetGoalDetail(ctx, goalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.GoalDetailResponse{Detail: detail})
}

func (h *Handler) DeleteGoal(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.GoalService.DeleteGoal(ctx, goalID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Goal removed"})
}

func (h *Handler) PauseGoal(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.GoalService.PauseGoal(ctx, goalID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Goal paused"})
}

func (h *Handler) ResumeGoal(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.GoalService.ResumeGoal(ctx, goalID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Goal resumed"})
}

func (h *Handler) MarkGoalPurchased(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.GoalService.MarkPurchased(ctx, goalID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Goal marked as purchased"})
}

func (h *Handler) CancelGoal(c *gin.Context) {
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

	ctx := c.Request.Context()
	if err := h.GoalService.CancelGoal(ctx, goalID, actorID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Goal cancelled, balance returned"})
}

func (h *Handler) ContributeToGoal(c *gin.Context) {
	var body contracts.GoalContributionRequest
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

	ctx := c.Request.Context()
	event, err := h.GoalService.Contribute(ctx, goalID, body.Amount, body.Description, actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.ContributionResultResponse{Event: event})
}

func (h *Handler) WithdrawFromGoal(c *gin.Context) {
	var body contracts.GoalWithdrawRequest
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

	ctx := c.Request.Context()
	withdrawal, err := h.GoalService.Withdraw(ctx, goalID, body.Amount, body.Reason, actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.ContributionResponse{Contribution: withdrawal})
}

func (h *Handler) GetGoalContributions(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	pagination := h.parsePagination(c)

	ctx := c.Request.Context()
	contributions, total, err := h.GoalService.GetContributions(ctx, goalID, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := pkg.NewPaginatedResponse(contributions, pagination.Page, pagination.Limit, total)
	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetGoalProgress(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	progress, err := h.GoalService.GetProgress(ctx, goalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.GoalProgressResponse{Progress: progress})
}

func (h *Handler) GetGoalMilestones(c *gin.Context) {
	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	milestones, err := h.GoalService.GetMilestones(ctx, goalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MilestoneListResponse{Milestones: milestones, Total: len(milestones)})
}

func (h *Handler) SetMilestoneBonus(c *gin.Context) {
	var body contracts.MilestoneBonusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	goalID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.GoalService.SetMilestoneBonus(ctx, goalID, body.Percent, body.BonusAmount, body.CelebrationText); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Milestone bonus updated"})
}
