// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/Conte777/ClipFlow/config"
	"github.com/Conte777/ClipFlow/internal/domain"
	"github.com/Conte777/ClipFlow/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, telegram bot)
		infrastructure.Module,

		// Domain (download pipeline)
		domain.Module,
	)
}
