package config

import (
	"fmt"

	"github.com/SAP-F-2025/assessment-review/internal/utils"
	"github.com/SAP-F-2025/assessment-review/internal/viewer"
)

const (
	TransportGoChannel = "gochannel"
	TransportNone      = "none"
)

// ViewerConfig holds configuration for the viewer bridge
type ViewerConfig struct {
	Transport   string `env:"VIEWER_TRANSPORT" envDefault:"gochannel"` // gochannel or none
	TopicPrefix string `env:"VIEWER_TOPIC_PREFIX" envDefault:"viewer."`
	Buffer      int64  `env:"VIEWER_BUFFER" envDefault:"64"`
}

// Enabled reports whether a bridge should be started.
func (c *ViewerConfig) Enabled() bool {
	return c.Transport != TransportNone
}

// BridgeConfig returns the bridge settings for this configuration.
func (c *ViewerConfig) BridgeConfig(logger utils.Logger) viewer.Config {
	return viewer.Config{TopicPrefix: c.TopicPrefix, Logger: logger}
}

// CreateTransport creates the viewer transport based on configuration. A nil
// transport with a nil error means the bridge is disabled.
func (c *ViewerConfig) CreateTransport(logger utils.Logger) (viewer.Transport, error) {
	switch c.Transport {
	case TransportGoChannel, "":
		logger.Info("Creating in-process viewer transport",
			"buffer", c.Buffer,
			"prefix", c.TopicPrefix)
		return viewer.NewGoChannelTransport(c.Buffer, false, logger), nil
	case TransportNone:
		logger.Info("Viewer bridge disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown viewer transport %q", c.Transport)
	}
}
