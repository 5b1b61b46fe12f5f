package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// bufferCapacity bounds the number of messages held while offline.
const bufferCapacity = 256

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Logger      zerolog.Logger
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	prefix string
	log    zerolog.Logger

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // true after the first successful connect
}

// NewRealPublisher creates a publisher for the given broker. A broker that
// is unreachable at startup is not fatal; paho keeps retrying in the
// background and messages are buffered until it succeeds.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker required")
	}
	p := &RealPublisher{
		prefix: o.TopicPrefix,
		log:    o.Logger,
		buf:    newRingBuffer(bufferCapacity, o.Logger),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(SystemTopic(o.TopicPrefix), string(willPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn().Err(err).Msg("mqtt connection lost")
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		p.log.Warn().Str("broker", o.Broker).Msg("mqtt connect pending, buffering until broker is reachable")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// onConnect runs on every (re)connection in its own goroutine.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	dropped := p.buf.dropped
	p.buf.dropped = 0
	pending := p.buf.drainAll()
	p.mu.Unlock()

	p.log.Info().Bool("reconnect", reconnect).Int("buffered", len(pending)).Int("dropped", dropped).Msg("mqtt connected")

	if reconnect {
		payload, err := FormatSystemPayload(SystemEvent{
			Timestamp: time.Now(),
			Event:     "RECONNECTED",
		})
		if err == nil {
			c.Publish(SystemTopic(p.prefix), 1, true, payload)
		}
	}
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishLED sends an LED configure result. QoS 0, not retained.
func (p *RealPublisher) PublishLED(event LEDEvent) error {
	payload, err := FormatLEDPayload(event)
	if err != nil {
		return fmt.Errorf("format led payload: %w", err)
	}
	return p.publish(LEDTopic(p.prefix, event.Channel), 0, false, payload)
}

// PublishButton sends a button transition. QoS 0, not retained.
func (p *RealPublisher) PublishButton(event ButtonEvent) error {
	payload, err := FormatButtonPayload(event)
	if err != nil {
		return fmt.Errorf("format button payload: %w", err)
	}
	return p.publish(ButtonTopic(p.prefix, event.Name), 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(SystemTopic(p.prefix), 1, event.Retained, payload)
}

// IsConnected reports whether the connection to the broker is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
