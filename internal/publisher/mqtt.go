package publisher

import (
	"fmt"
	"time"

	"heating_controller/internal/config"
	"heating_controller/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTTPublisher publishes retained JSON messages to a broker.
type MQTTPublisher struct {
	client paho.Client
	prefix string
}

// NewMQTTPublisher connects to cfg.Broker.
func NewMQTTPublisher(cfg config.MQTT) (*MQTTPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTPublisher{client: client, prefix: cfg.TopicPrefix}, nil
}

// New returns an MQTT publisher when a broker is configured, Nop otherwise.
func New(cfg config.MQTT) (Publisher, error) {
	if cfg.Broker == "" {
		return Nop{}, nil
	}
	p, err := NewMQTTPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *MQTTPublisher) PublishReading(r models.TemperatureReading) error {
	payload, err := FormatReading(r)
	if err != nil {
		return fmt.Errorf("format reading: %w", err)
	}
	return p.publish(ReadingTopic(p.prefix, r.Key), payload)
}

func (p *MQTTPublisher) PublishState(s models.StateRecord) error {
	payload, err := FormatState(s)
	if err != nil {
		return fmt.Errorf("format state: %w", err)
	}
	return p.publish(StateTopic(p.prefix, s.Key), payload)
}

// publish sends with QoS 1, retained, so late subscribers see the last value.
func (p *MQTTPublisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
