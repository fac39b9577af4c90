// internal/messenger/builder.go
package messenger

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/coolboard-agent/internal/config"
)

// Build selects the transport named in the broker section.
func Build(cfg *config.Config, logger *log.Entry) (*Client, error) {
	b := cfg.Broker

	var t Transport
	switch b.Transport {
	case config.TransportMQTT:
		t = NewMQTT(b.URL, b.QoS)
	case config.TransportAMQP:
		t = NewAMQP(b.URL, b.Exchange)
	default:
		return nil, fmt.Errorf("broker: unsupported transport %q", b.Transport)
	}

	return New(t, Options{
		BoardID:        cfg.Agent.BoardID,
		TelemetryTopic: b.TelemetryTopic,
		ConfigTopic:    b.ConfigTopic,
		Listen:         time.Duration(b.ListenMs) * time.Millisecond,
	}, logger.WithField("transport", b.Transport)), nil
}
