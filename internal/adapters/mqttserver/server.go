// Package mqttserver is the daemon side MQTT connection.
package mqttserver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikey-austin/raumbridge/internal/adapters/mqtttls"
	"go.uber.org/zap"
)

// Will is the last-will message the broker publishes if the connection drops.
// The payload must not be empty.
type Will struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// Options configures the MQTT server client.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSCA     string
	TLSCert   string
	TLSKey    string
	Timeout   time.Duration
	Will      *Will
	Logger    *zap.Logger
	Debug     bool
}

type subscription struct {
	qos     byte
	handler paho.MessageHandler
}

// Client wraps an MQTT connection for daemon modules. Subscriptions are
// restored after an automatic reconnect.
type Client struct {
	client paho.Client
	log    *zap.Logger
	debug  bool

	mu   sync.Mutex
	subs map[string]subscription
}

// NewClient connects to MQTT.
func NewClient(opts Options) (*Client, error) {
	if opts.BrokerURL == "" {
		return nil, errors.New("broker url required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &Client{log: opts.Logger, debug: opts.Debug, subs: map[string]subscription{}}

	clientOpts := paho.NewClientOptions().AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetConnectTimeout(opts.Timeout)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.log.Warn("mqtt connection lost", zap.Error(err))
	})
	clientOpts.SetOnConnectHandler(c.resubscribe)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}
	if opts.Will != nil && opts.Will.Topic != "" {
		if len(opts.Will.Payload) == 0 {
			return nil, fmt.Errorf("will %s: payload required", opts.Will.Topic)
		}
		clientOpts.SetBinaryWill(opts.Will.Topic, opts.Will.Payload, 1, opts.Will.Retained)
	}

	tlsConfig, err := mqtttls.Load(opts.TLSCA, opts.TLSCert, opts.TLSKey)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		clientOpts.SetTLSConfig(tlsConfig)
	}

	c.client = paho.NewClient(clientOpts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return c, nil
}

// Publish publishes a message.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if c.debug {
		c.log.Debug("mqtt publish", zap.String("topic", topic), zap.Int("bytes", len(payload)), zap.String("payload", truncatePayload(payload)))
	}
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Subscribe subscribes to a topic.
func (c *Client) Subscribe(topic string, qos byte, handler paho.MessageHandler) error {
	if c.debug {
		c.log.Debug("mqtt subscribe", zap.String("topic", topic))
		inner := handler
		handler = func(client paho.Client, msg paho.Message) {
			c.log.Debug("mqtt message", zap.String("topic", msg.Topic()), zap.Int("bytes", len(msg.Payload())), zap.String("payload", truncatePayload(msg.Payload())))
			inner(client, msg)
		}
	}
	token := c.client.Subscribe(topic, qos, handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()
	return nil
}

// Unsubscribe unsubscribes from a topic.
func (c *Client) Unsubscribe(topic string) error {
	if c.debug {
		c.log.Debug("mqtt unsubscribe", zap.String("topic", topic))
	}
	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()
	token := c.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

// Close disconnects, waiting up to quiesce for in-flight work.
func (c *Client) Close(quiesce time.Duration) {
	c.client.Disconnect(uint(quiesce.Milliseconds()))
}

func (c *Client) resubscribe(client paho.Client) {
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for topic, sub := range c.subs {
		subs[topic] = sub
	}
	c.mu.Unlock()
	for topic, sub := range subs {
		token := client.Subscribe(topic, sub.qos, sub.handler)
		if token.Wait() && token.Error() != nil {
			c.log.Warn("mqtt resubscribe failed", zap.String("topic", topic), zap.Error(token.Error()))
		}
	}
}

func truncatePayload(payload []byte) string {
	const max = 2048
	if len(payload) <= max {
		return string(payload)
	}
	return string(payload[:max]) + "..."
}
