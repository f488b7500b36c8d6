// Package metrics provides a reference Metrics collaborator (§6) that
// writes every tracked event through the gateway's structured Logger,
// suitable for deployments without a dedicated metrics backend.
package metrics

import (
	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
	"github.com/harrylevesque/wssgateway/internal/logging"
)

// LogMetrics tracks events as structured log lines.
type LogMetrics struct {
	logger *logging.Logger
}

// NewLogMetrics wraps an existing Logger.
func NewLogMetrics(logger *logging.Logger) *LogMetrics {
	return &LogMetrics{logger: logger}
}

// Track implements gatewaycore.Metrics.
func (m *LogMetrics) Track(event string, properties map[string]any, measurements map[string]float64, tags gatewaycore.MetricsTagOverrides) {
	fields := logging.Fields{
		"sessionId":  tags.SessionID,
		"userId":     tags.UserID,
		"authUserId": tags.AuthUserID,
	}
	for k, v := range properties {
		fields[k] = v
	}
	for k, v := range measurements {
		fields[k] = v
	}
	m.logger.InfoFields("metric:"+event, fields)
}
