package observability

import (
	"log/slog"

	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// ServiceName tags every log line emitted by the process logger.
const ServiceName = "hazard-hotspots"

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT via the
// shared logging setup and makes it the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", ServiceName)
	slog.SetDefault(logger)
	return logger
}
