package main

import (
	appfx "Nestegg/internal/fx"

	"go.uber.org/fx"
)

// @title Nestegg API
// @version 1.0
// @description Savings goal engine for family allowance accounts.
// @BasePath /api
func main() {
	fx.New(
		appfx.AppModule,
	).Run()
}
