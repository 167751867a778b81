package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config configures a RealPublisher.
type Config struct {
	Broker      string
	ClientID    string
	Button      string        // button name used in topics
	BufferSize  int           // messages kept while disconnected
	QueueSize   int           // messages waiting for the sender goroutine
	SendTimeout time.Duration // per-message broker acknowledgement wait
	Logger      logrus.FieldLogger
}

var errQueueFull = errors.New("send queue full")

// RealPublisher publishes to an actual MQTT broker. Publish only enqueues;
// a single sender goroutine talks to the broker, so callers never wait on
// the network. Messages that cannot be sent are buffered and replayed after
// reconnecting.
type RealPublisher struct {
	client      paho.Client
	topic       string
	topicSystem string
	timeout     time.Duration
	log         logrus.FieldLogger

	queue chan bufferedMsg
	done  chan struct{}

	mu     sync.Mutex
	closed bool
	buffer *ringBuffer
}

// willPayload is published by the broker on our behalf if the connection
// drops without a clean disconnect.
func willPayload() []byte {
	payload, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "LWT"})
	return payload
}

// NewRealPublisher creates a publisher for the given broker and starts
// connecting in the background. Publishing before the first connection
// succeeds buffers messages.
func NewRealPublisher(cfg Config) *RealPublisher {
	p := newRealPublisher(cfg)

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(p.topicSystem, willPayload(), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warnf("connection lost: %v", err)
		})

	p.start(paho.NewClient(opts))
	p.client.Connect()

	return p
}

func newRealPublisher(cfg Config) *RealPublisher {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 100
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = 5 * time.Second
	}

	return &RealPublisher{
		topic:       Topic(cfg.Button),
		topicSystem: TopicSystem(cfg.Button),
		timeout:     cfg.SendTimeout,
		log:         log,
		queue:       make(chan bufferedMsg, cfg.QueueSize),
		done:        make(chan struct{}),
		buffer:      newRingBuffer(cfg.BufferSize, log),
	}
}

func (p *RealPublisher) start(c paho.Client) {
	p.client = c
	go p.run()
}

// run delivers queued messages until the queue is closed.
func (p *RealPublisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		p.deliver(msg)
	}
}

func (p *RealPublisher) deliver(msg bufferedMsg) {
	if !p.client.IsConnectionOpen() {
		p.bufferMsg(msg)
		return
	}
	if err := p.send(msg); err != nil {
		p.log.Warnf("%v, buffering", err)
		p.bufferMsg(msg)
	}
}

func (p *RealPublisher) bufferMsg(msg bufferedMsg) {
	p.mu.Lock()
	p.buffer.push(msg)
	p.mu.Unlock()
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	p.log.Infof("connected, replaying %d buffered messages", len(pending))
	for _, msg := range pending {
		if err := p.send(msg); err != nil {
			p.log.Errorf("replay to %s: %v", msg.topic, err)
		}
	}
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends a button event to the MQTT broker.
func (p *RealPublisher) Publish(event ButtonEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return errors.Wrap(err, "format payload")
	}

	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: p.topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return errors.Wrap(err, "format system payload")
	}

	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(bufferedMsg{topic: p.topicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// publish hands msg to the sender goroutine without blocking. When the
// queue is full the message goes straight to the reconnect buffer.
func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.Errorf("publish to %s: publisher closed", msg.topic)
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		p.buffer.push(msg)
		return errors.Wrapf(errQueueFull, "publish to %s", msg.topic)
	}
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	return waitToken(token, p.timeout, msg.topic)
}

func waitToken(token paho.Token, timeout time.Duration, topic string) error {
	if !token.WaitTimeout(timeout) {
		return errors.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}
	return nil
}

// Close stops accepting messages, gives the sender up to one send timeout
// to flush what is queued, then disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(p.timeout):
		p.log.Warnf("send queue not drained after %s", p.timeout)
	}

	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
