// Package domain contains all domain modules
package domain

import (
	"go.uber.org/fx"

	"github.com/Conte777/ClipFlow/internal/domain/download"
)

// Module aggregates all domain modules for fx dependency injection
var Module = fx.Module("domain",
	download.Module,
)
