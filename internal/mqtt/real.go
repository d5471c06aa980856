package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/led-blinker/internal/logic"
)

// bufferCapacity bounds how many outbound messages are kept while disconnected.
const bufferCapacity = 256

// ClientOptions configures RealClient.
type ClientOptions struct {
	Broker   string
	ClientID string
	// InboxSize is the capacity of the Commands channel. Commands that
	// arrive while it is full are dropped and logged.
	InboxSize int
}

// RealClient publishes to and receives commands from an actual MQTT broker.
type RealClient struct {
	client paho.Client
	inbox  chan Inbound

	mu  sync.Mutex
	buf *outbox
}

// NewRealClient creates a client connected to the given broker. It
// subscribes to TopicCommands on every (re)connect and replays messages
// buffered while the connection was down.
func NewRealClient(o ClientOptions) (*RealClient, error) {
	if o.InboxSize <= 0 {
		o.InboxSize = 32
	}
	c := &RealClient{
		inbox: make(chan Inbound, o.InboxSize),
		buf:   newOutbox(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, FormatWillPayload(time.Now()), 1, true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("mqtt: connection lost")
		})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// ConnectRetry keeps trying in the background; publishes are buffered.
		log.Warn().Str("broker", o.Broker).Msg("mqtt: broker not reachable yet, buffering")
		return c, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return c, nil
}

func (c *RealClient) onConnect(client paho.Client) {
	log.Info().Msg("mqtt: connected")
	token := client.Subscribe(TopicCommands, 1, c.onMessage)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Error().Err(token.Error()).Msg("mqtt: subscribe failed")
		}
	}()

	c.mu.Lock()
	pending := c.buf.drainAll()
	c.mu.Unlock()
	if len(pending) == 0 {
		return
	}
	go func() {
		log.Info().Int("count", len(pending)).Msg("mqtt: replaying buffered messages")
		for _, m := range pending {
			client.Publish(m.topic, m.qos, m.retained, m.payload)
		}
	}()
}

func (c *RealClient) onMessage(_ paho.Client, msg paho.Message) {
	cmd, err := DecodeCommand(msg.Payload())
	select {
	case c.inbox <- Inbound{Cmd: cmd, Err: err}:
	default:
		log.Warn().Str("opcode", string(cmd.Opcode)).Uint32("seq", cmd.Seq).Msg("mqtt: command inbox full, dropping")
	}
}

// Commands returns the channel decoded commands are delivered on.
func (c *RealClient) Commands() <-chan Inbound {
	return c.inbox
}

// IsConnected reports whether the client currently has a broker connection.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// publish sends msg, or buffers it and returns ErrBuffered while the
// connection is down.
func (c *RealClient) publish(msg bufferedMsg) error {
	if !c.client.IsConnectionOpen() {
		c.mu.Lock()
		c.buf.push(msg)
		c.mu.Unlock()
		return ErrBuffered
	}

	token := c.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// PublishTelemetry sends a telemetry sample. QoS 0, not retained.
func (c *RealClient) PublishTelemetry(t Telemetry) error {
	payload, err := FormatTelemetryPayload(t)
	if err != nil {
		return fmt.Errorf("format telemetry payload: %w", err)
	}
	return c.publish(bufferedMsg{topic: TopicTelemetry, payload: payload, prio: priorityTelemetry, key: t.Channel})
}

// PublishEvent sends a blinker event.
func (c *RealClient) PublishEvent(ts time.Time, event logic.Event) error {
	payload, err := FormatEventPayload(ts, event)
	if err != nil {
		return fmt.Errorf("format event payload: %w", err)
	}
	return c.publish(bufferedMsg{topic: TopicEvents, payload: payload, prio: priorityEvent})
}

// PublishResponse sends a command acknowledgement. QoS 1 so the sender sees it.
func (c *RealClient) PublishResponse(r Response) error {
	payload, err := FormatResponsePayload(r)
	if err != nil {
		return fmt.Errorf("format response payload: %w", err)
	}
	return c.publish(bufferedMsg{topic: TopicResponses, payload: payload, qos: 1, prio: priorityCritical})
}

// PublishSystem sends a system lifecycle event.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return c.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained, prio: priorityCritical})
}

// Close disconnects from the broker. Messages still buffered are discarded.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
