// Package events publishes committed contact changes to an MQTT broker.
//
// Each change is sent as JSON to "{TopicPrefix}/contacts/{type}", where type
// is one of created, updated or deleted.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/telemetry"
)

const (
	DefaultTopicPrefix = "contacts-app"
	DefaultQueueSize   = 256

	connectTimeout = 30 * time.Second
	publishTimeout = 5 * time.Second
	closeTimeout   = 5 * time.Second
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("event publisher closed")
)

type Config struct {
	// Broker is the MQTT broker URL, e.g. "tcp://localhost:1883".
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	// QueueSize bounds the events waiting to be sent. Defaults to DefaultQueueSize.
	QueueSize int
	// PublishTimeout bounds the wait for one broker acknowledgement.
	PublishTimeout time.Duration
	Logger         *slog.Logger
	Metrics        *telemetry.Metrics
}

// client is the part of paho.Client the publisher needs.
type client interface {
	Connect() paho.Token
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
}

// Publisher queues events and sends them from a single goroutine, so callers
// never wait on the broker. Close stops the sender.
type Publisher struct {
	cfg     Config
	client  client
	log     *slog.Logger
	metrics *telemetry.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan domain.ContactEvent
	done   chan struct{}
}

// New builds a publisher backed by a paho client and starts its sender.
// Call Connect to establish the first connection.
func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("broker URL is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "contacts-server"
	}

	var p *Publisher
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(2 * time.Minute).
		SetKeepAlive(60 * time.Second).
		SetCleanSession(true).
		SetOnConnectHandler(func(paho.Client) {
			p.log.Info("connected to MQTT broker", "broker", cfg.Broker)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Error("MQTT connection lost", "error", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	p = newPublisher(cfg, paho.NewClient(opts))
	return p, nil
}

func newPublisher(cfg Config, c client) *Publisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = publishTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Publisher{
		cfg:     cfg,
		client:  c,
		log:     cfg.Logger.WithGroup("mqtt"),
		metrics: cfg.Metrics,
		queue:   make(chan domain.ContactEvent, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	go p.run()

	return p
}

func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}

	return nil
}

// Topic returns the topic events of type t are published on.
func (p *Publisher) Topic(t domain.EventType) string {
	return p.cfg.TopicPrefix + "/contacts/" + string(t)
}

// Publish queues ev without blocking. A full queue drops the event.
func (p *Publisher) Publish(_ context.Context, ev domain.ContactEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- ev:
		return nil
	default:
		p.metrics.IncEvent(string(ev.Type), "dropped")
		return ErrQueueFull
	}
}

func (p *Publisher) run() {
	defer close(p.done)

	for ev := range p.queue {
		if err := p.send(ev); err != nil {
			p.log.Warn("contact event not delivered", "type", ev.Type, "contact_id", ev.Contact.ID, "error", err)
		}
	}
}

// send delivers one event. Without an open connection the event is counted
// as failed instead of waiting for paho to reconnect.
func (p *Publisher) send(ev domain.ContactEvent) (err error) {
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		p.metrics.IncEvent(string(ev.Type), status)
	}()

	topic := p.Topic(ev.Type)
	if !p.client.IsConnectionOpen() {
		return fmt.Errorf("not connected, skipping %s", topic)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(p.cfg.PublishTimeout) {
		return fmt.Errorf("timeout publishing to %s", topic)
	}
	if err = token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.log.Debug("published contact event", "topic", topic, "contact_id", ev.Contact.ID)
	return nil
}

// Close stops accepting events, waits a bounded time for queued ones and
// disconnects. It is safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(closeTimeout):
		p.log.Warn("closing with undelivered contact events", "pending", len(p.queue))
	}

	p.client.Disconnect(250)
}
