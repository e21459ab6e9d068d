package routes

import (
	"net/http"

	"Nestegg/internal/contracts"
	"Nestegg/internal/domain/dependent"
	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/pkg"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateDependent(c *gin.Context) {
	var body contracts.DependentCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	familyID, err := pkg.ParseULID(body.FamilyID)
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("family_id", "invalid format"))
		return
	}

	req := dependent.CreateRequest{
		FamilyId:       familyID,
		Name:           body.Name,
		InitialBalance: body.InitialBalance,
	}

	ctx := c.Request.Context()
	created, err := h.DependentService.CreateDependent(ctx, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contracts.DependentResponse{Dependent: created})
}

func (h *Handler) GetDependent(c *gin.Context) {
	dependentID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	dep, err := h.DependentService.GetDependentByID(ctx, dependentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.DependentResponse{Dependent: dep})
}

func (h *Handler) ListDependents(c *gin.Context) {
	familyIDRaw := c.Query("family_id")
	if familyIDRaw == "" {
		h.respondError(c, appErrors.NewValidationError("family_id", "is required"))
		return
	}

	familyID, err := pkg.ParseULID(familyIDRaw)
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("family_id", "invalid format"))
		return
	}

	pagination := h.parsePagination(c)

	ctx := c.Request.Context()
	dependents, total, err := h.DependentService.GetDependentsByFamilyID(ctx, familyID, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := pkg.NewPaginatedResponse(dependents, pagination.Page, pagination.Limit, total)
	c.JSON(http.StatusOK, response)
}

func (h *Handler) RenameDependent(c *gin.Context) {
	var body contracts.DependentRenameRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	dependentID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.DependentService.RenameDependent(ctx, dependentID, body.Name); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Dependent renamed"})
}

// CreditAllowance credits spendable balance and then runs the scheduled
// transfers against the credited amount. The two steps are separate
// transactions: a failed transfer batch never rolls back the allowance.
func (h *Handler) CreditAllowance(c *gin.Context) {
	var body contracts.AllowanceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	dependentID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.DependentService.CreditAllowance(ctx, dependentID, body.Amount); err != nil {
		h.respondError(c, err)
		return
	}

	events, err := h.GoalService.ProcessAutoTransfers(ctx, dependentID, body.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.AutoTransferResultResponse{Events: events, Total: len(events)})
}

func (h *Handler) DeleteDependent(c *gin.Context) {
	dependentID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.DependentService.DeleteDependent(ctx, dependentID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Dependent removed"})
}
