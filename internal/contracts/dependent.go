package contracts

import (
	domainDependent "Nestegg/internal/domain/dependent"
)

type DependentCreateRequest struct {
	FamilyID       string  `json:"family_id" binding:"required"`
	Name           string  `json:"name" binding:"required,max=100"`
	InitialBalance float64 `json:"initial_balance" binding:"gte=0"`
}

type DependentRenameRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type AllowanceRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type DependentResponse struct {
	Dependent *domainDependent.Dependent `json:"dependent"`
}
