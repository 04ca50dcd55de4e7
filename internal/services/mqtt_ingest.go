package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dimaspram/riverwatch/internal/config"
)

// MQTTIngestSource subscribes to the readings topic and feeds device payloads
// into the same ingest pipeline as the HTTP endpoint. Topic layout is
// riverwatch/<identifier>/readings; the payload is the JSON ingest body.
type MQTTIngestSource struct {
	client   mqtt.Client
	topic    string
	ingestor *Ingestor
}

func NewMQTTIngestSource(cfg *config.Config, ingestor *Ingestor) (*MQTTIngestSource, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetUsername(cfg.MQTTUsername)
	opts.SetPassword(cfg.MQTTPassword)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			slog.Warn("MQTT broker not ready, retrying", "broker", cfg.MQTTBrokerURL, "error", token.Error())
			return token.Error()
		}
		return nil
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker: %w", err)
	}

	slog.Info("Connected to MQTT broker", "broker", cfg.MQTTBrokerURL)
	return &MQTTIngestSource{
		client:   client,
		topic:    cfg.MQTTTopic,
		ingestor: ingestor,
	}, nil
}

// Start subscribes and blocks until the context is cancelled.
func (s *MQTTIngestSource) Start(ctx context.Context) {
	token := s.client.Subscribe(s.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg)
	})
	if token.Wait() && token.Error() != nil {
		slog.Error("MQTT subscribe failed", "topic", s.topic, "error", token.Error())
		return
	}
	slog.Info("Subscribed to MQTT readings topic", "topic", s.topic)

	<-ctx.Done()
	s.client.Unsubscribe(s.topic).Wait()
	s.client.Disconnect(250)
	slog.Info("MQTT ingestion stopped")
}

func (s *MQTTIngestSource) handle(msg mqtt.Message) {
	var p IngestPayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		slog.Warn("Invalid JSON on readings topic", "topic", msg.Topic(), "error", err)
		return
	}
	p.Source = "mqtt"
	if p.Identifier == "" {
		p.Identifier = identifierFromTopic(msg.Topic())
	}

	if _, _, err := s.ingestor.Ingest(p); err != nil {
		slog.Error("MQTT ingest failed", "topic", msg.Topic(), "error", err)
	}
}

// identifierFromTopic extracts <identifier> from riverwatch/<identifier>/readings.
func identifierFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
