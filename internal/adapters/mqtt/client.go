// Package mqtt is the bridgectl side of the command protocol.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikey-austin/raumbridge/internal/adapters/mqtttls"
	"github.com/mikey-austin/raumbridge/internal/ports"
	"github.com/mikey-austin/raumbridge/pkg/brain"
)

// ErrReplyTimeout is returned when no reply arrives in time.
var ErrReplyTimeout = errors.New("timeout waiting for reply")

// Options configures the MQTT client.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSCA     string
	TLSCert   string
	TLSKey    string
	TopicBase string
	Timeout   time.Duration
}

var _ ports.Broker = (*Client)(nil)

// Client is an MQTT adapter implementing the Broker port.
type Client struct {
	client     paho.Client
	replyTopic string
	topicBase  string
	timeout    time.Duration

	mu            sync.Mutex
	replyHandlers map[string]chan brain.ReplyEnvelope
}

// NewClient creates and connects an MQTT client.
func NewClient(opts Options) (*Client, error) {
	if opts.BrokerURL == "" {
		return nil, errors.New("broker url required")
	}
	if opts.TopicBase == "" {
		opts.TopicBase = brain.BaseTopic
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}

	c := &Client{
		replyTopic:    brain.TopicReply(opts.TopicBase, opts.ClientID),
		topicBase:     opts.TopicBase,
		timeout:       opts.Timeout,
		replyHandlers: map[string]chan brain.ReplyEnvelope{},
	}

	clientOpts := paho.NewClientOptions().AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetConnectTimeout(opts.Timeout)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetOnConnectHandler(func(client paho.Client) {
		client.Subscribe(c.replyTopic, 1, c.handleReply).Wait()
	})

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
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
	if token := c.client.Subscribe(c.replyTopic, 1, c.handleReply); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return c, nil
}

// ReplyTopic returns the topic used for replies.
func (c *Client) ReplyTopic() string {
	return c.replyTopic
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

// PublishCommand publishes a command and waits for its reply.
func (c *Client) PublishCommand(ctx context.Context, nodeID string, cmd brain.CommandEnvelope) (brain.ReplyEnvelope, error) {
	req, err := json.Marshal(cmd)
	if err != nil {
		return brain.ReplyEnvelope{}, fmt.Errorf("marshal command: %w", err)
	}

	replyCh := make(chan brain.ReplyEnvelope, 1)
	c.mu.Lock()
	c.replyHandlers[cmd.ID] = replyCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.replyHandlers, cmd.ID)
		c.mu.Unlock()
	}()

	topic := brain.TopicCommands(c.topicBase, nodeID)
	if token := c.client.Publish(topic, 1, false, req); token.Wait() && token.Error() != nil {
		return brain.ReplyEnvelope{}, token.Error()
	}
	return c.awaitReply(ctx, replyCh)
}

func (c *Client) awaitReply(ctx context.Context, replyCh <-chan brain.ReplyEnvelope) (brain.ReplyEnvelope, error) {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return brain.ReplyEnvelope{}, ctx.Err()
	case reply := <-replyCh:
		return reply, nil
	case <-timer.C:
		return brain.ReplyEnvelope{}, ErrReplyTimeout
	}
}

// ListPresence collects retained presence messages of online nodes.
func (c *Client) ListPresence(ctx context.Context) ([]brain.Presence, error) {
	collect := make(map[string]brain.Presence)
	var lock sync.Mutex

	handler := func(_ paho.Client, msg paho.Message) {
		if len(msg.Payload()) == 0 {
			return
		}
		var presence brain.Presence
		if err := json.Unmarshal(msg.Payload(), &presence); err != nil || !presence.Online {
			return
		}
		lock.Lock()
		collect[presence.NodeID] = presence
		lock.Unlock()
	}

	topic := fmt.Sprintf("%s/node/+/presence", c.topicBase)
	if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	defer c.client.Unsubscribe(topic).Wait()

	wait := time.NewTimer(250 * time.Millisecond)
	select {
	case <-ctx.Done():
		wait.Stop()
	case <-wait.C:
	}

	lock.Lock()
	defer lock.Unlock()
	out := make([]brain.Presence, 0, len(collect))
	for _, presence := range collect {
		out = append(out, presence)
	}
	return out, nil
}

// WatchNotifications streams component notifications from a bridge node
// until ctx is done.
func (c *Client) WatchNotifications(ctx context.Context, nodeID string) (<-chan brain.Notification, <-chan error) {
	notes := make(chan brain.Notification, 32)
	errCh := make(chan error, 1)

	var closed bool
	var lock sync.Mutex
	handler := func(_ paho.Client, msg paho.Message) {
		var note brain.Notification
		if err := json.Unmarshal(msg.Payload(), &note); err != nil {
			return
		}
		lock.Lock()
		defer lock.Unlock()
		if closed {
			return
		}
		select {
		case notes <- note:
		default:
		}
	}

	topic := brain.TopicEvents(c.topicBase, nodeID)
	if token := c.client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		errCh <- token.Error()
		close(errCh)
		close(notes)
		return notes, errCh
	}

	go func() {
		<-ctx.Done()
		c.client.Unsubscribe(topic).Wait()
		lock.Lock()
		closed = true
		close(notes)
		close(errCh)
		lock.Unlock()
	}()
	return notes, errCh
}

func (c *Client) handleReply(_ paho.Client, msg paho.Message) {
	var reply brain.ReplyEnvelope
	if err := json.Unmarshal(msg.Payload(), &reply); err != nil {
		return
	}

	c.mu.Lock()
	ch, ok := c.replyHandlers[reply.ID]
	c.mu.Unlock()
	if !ok {
		return
	}

	select {
	case ch <- reply:
	default:
	}
}
