// Package mqtt mirrors session stream events to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/metrics"
)

const publishTimeout = 2 * time.Second

type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	// Topics limits which stream topics are mirrored. Empty mirrors all of them.
	Topics []string
}

// client is the part of paho.Client the bridge uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	IsConnected() bool
}

// Bridge publishes stream events to <prefix>/<session_id>/<topic>. It implements
// port.StreamPublisher; broker errors are logged and never reach the caller.
type Bridge struct {
	client client
	conn   paho.Client
	prefix string
	qos    byte
	topics map[string]bool
	logger *zap.Logger
}

// Connect dials the broker with auto-reconnect enabled.
func Connect(cfg Config, logger *zap.Logger) (*Bridge, error) {
	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(paho.Client) {
		logger.Info("mqtt connection established", zap.String("broker", broker))
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost, will auto-reconnect", zap.Error(err))
	}

	conn := paho.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	b := NewBridge(conn, cfg, logger)
	b.conn = conn
	return b, nil
}

func NewBridge(c client, cfg Config, logger *zap.Logger) *Bridge {
	var topics map[string]bool
	if len(cfg.Topics) > 0 {
		topics = make(map[string]bool, len(cfg.Topics))
		for _, t := range cfg.Topics {
			topics[strings.TrimSpace(t)] = true
		}
	}
	return &Bridge{
		client: c,
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:    cfg.QoS,
		topics: topics,
		logger: logger,
	}
}

// Topic returns the MQTT topic for a session stream topic.
func (b *Bridge) Topic(sessionID, topic string) string {
	return fmt.Sprintf("%s/%s/%s", b.prefix, sessionID, topic)
}

func (b *Bridge) Publish(_ context.Context, sessionID, topic string, payload any) {
	if b.topics != nil && !b.topics[topic] {
		return
	}
	if !b.client.IsConnected() {
		metrics.StreamEventsTotal.WithLabelValues(topic, "bridge_unreachable").Inc()
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to marshal stream event", zap.String("topic", topic), zap.Error(err))
		return
	}

	mqttTopic := b.Topic(sessionID, topic)
	token := b.client.Publish(mqttTopic, b.qos, false, data)
	go b.watch(token, mqttTopic, topic)
}

func (b *Bridge) watch(token paho.Token, mqttTopic, topic string) {
	if !token.WaitTimeout(publishTimeout) {
		metrics.StreamEventsTotal.WithLabelValues(topic, "bridge_error").Inc()
		b.logger.Warn("mqtt publish timeout", zap.String("topic", mqttTopic))
		return
	}
	if err := token.Error(); err != nil {
		metrics.StreamEventsTotal.WithLabelValues(topic, "bridge_error").Inc()
		b.logger.Warn("mqtt publish failed", zap.String("topic", mqttTopic), zap.Error(err))
		return
	}
	metrics.StreamEventsTotal.WithLabelValues(topic, "bridged").Inc()
}

func (b *Bridge) Close() {
	if b.conn != nil && b.conn.IsConnected() {
		b.conn.Disconnect(250)
		b.logger.Info("mqtt disconnected")
	}
}
