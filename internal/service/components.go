// File: internal/service/components.go
package service

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/orchestrator"
)

// Components holds everything one run needs, so the command only has to call
// Pipeline.Run and Shutdown.
type Components struct {
	Launcher schemas.Launcher
	Oracle   schemas.LLMClient
	Solver   schemas.CaptchaSolver
	Pipeline *orchestrator.Pipeline

	logger *zap.Logger
}

// Shutdown releases the oracle transport. The browser is owned by the run
// and closed when it ends.
func (c *Components) Shutdown() {
	if c == nil || c.Oracle == nil {
		return
	}
	if err := c.Oracle.Close(); err != nil && c.logger != nil {
		c.logger.Warn("Failed to close oracle client.", zap.Error(err))
	}
}
