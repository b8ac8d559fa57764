// Package telemetry publishes controller status snapshots to an MQTT
// broker so the robot can be monitored off-board. Telemetry is optional:
// when no broker is configured the controller runs without it.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cybercrawl/go-spider/internal/log"
)

const (
	// StatusTopic carries periodic status snapshots.
	StatusTopic = "spider/status"

	connectTimeout = 5 * time.Second
)

// Publisher pushes JSON status snapshots to a broker at a fixed cadence.
type Publisher struct {
	client   mqtt.Client
	topic    string
	interval time.Duration
}

// New connects to the broker. The broker URL uses paho's form, e.g.
// "tcp://192.168.1.10:1883".
func New(broker, clientID string, interval time.Duration) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout)

	opts.OnConnect = func(mqtt.Client) {
		log.Info("telemetry connected", "broker", broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("telemetry connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}

	return &Publisher{client: client, topic: StatusTopic, interval: interval}, nil
}

// Run publishes snapshots from statusFn until the context is canceled.
// Publish failures are logged and skipped; the broker being down must not
// affect the robot.
func (p *Publisher) Run(ctx context.Context, statusFn func() interface{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publish(statusFn())
		}
	}
}

func (p *Publisher) publish(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Warn("telemetry marshal failed", "error", err)
		return
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if token.WaitTimeout(time.Second) && token.Error() != nil {
		log.Warn("telemetry publish failed", "error", token.Error())
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
