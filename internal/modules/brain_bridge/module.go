// Package brainbridge exposes the player core to the remote-control brain
// over the MQTT command protocol.
package brainbridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikey-austin/raumbridge/internal/player"
	"github.com/mikey-austin/raumbridge/pkg/brain"
	"go.uber.org/zap"
)

// mqttClient abstracts MQTT operations.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler paho.MessageHandler) error
	Unsubscribe(topic string) error
}

// Player is the part of the player core the bridge drives.
type Player interface {
	OnButtonPressed(ctx context.Context, b player.Button, deviceID string) error
	SetComponent(ctx context.Context, deviceID string, comp player.Component, raw any) error
	GetComponent(deviceID string, comp player.Component) any
	GetVolume(ctx context.Context, deviceID string) (int, error)
	Browse(ctx context.Context, deviceID string, dir player.Directory, params player.BrowseParams) (player.Page, error)
	Action(ctx context.Context, deviceID string, dir player.Directory, actionID string)
	DiscoverDevices(ctx context.Context) ([]player.Device, error)
	PlayURI(ctx context.Context, deviceID, uri string) error
}

var _ Player = (*player.Controller)(nil)

// Config configures the bridge node.
type Config struct {
	NodeID         string
	TopicBase      string
	Name           string
	CommandTimeout time.Duration
}

// Module serves brain commands and forwards component notifications.
type Module struct {
	log      *zap.Logger
	client   mqttClient
	player   Player
	outbox   player.Outbox
	config   Config
	cmdTopic string
	evtTopic string
}

// NewModule creates the bridge module. Notifications queued on outbox are
// published once Run has subscribed.
func NewModule(log *zap.Logger, client mqttClient, p Player, outbox player.Outbox, cfg Config) (*Module, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if client == nil {
		return nil, errors.New("mqtt client required")
	}
	if p == nil {
		return nil, errors.New("player required")
	}
	if strings.TrimSpace(cfg.NodeID) == "" {
		return nil, errors.New("bridge node_id required")
	}
	if strings.TrimSpace(cfg.TopicBase) == "" {
		cfg.TopicBase = brain.BaseTopic
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "Raumfeld"
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 15 * time.Second
	}
	return &Module{
		log:      log,
		client:   client,
		player:   p,
		outbox:   outbox,
		config:   cfg,
		cmdTopic: brain.TopicCommands(cfg.TopicBase, cfg.NodeID),
		evtTopic: brain.TopicEvents(cfg.TopicBase, cfg.NodeID),
	}, nil
}

// Run subscribes to the command topic, announces presence and serves until
// ctx is done. Presence is cleared on the way out.
func (m *Module) Run(ctx context.Context) error {
	handler := func(_ paho.Client, msg paho.Message) {
		payload := msg.Payload()
		go m.handleMessage(ctx, payload)
	}
	if err := m.client.Subscribe(m.cmdTopic, 1, handler); err != nil {
		return err
	}
	defer m.client.Unsubscribe(m.cmdTopic)

	if m.outbox != nil {
		m.outbox.Install(m.notify)
	}
	if err := m.publishPresence(); err != nil {
		return err
	}
	m.log.Info("bridge node online", zap.String("node", m.config.NodeID), zap.String("topic", m.cmdTopic))

	<-ctx.Done()
	if err := m.client.Publish(brain.TopicPresence(m.config.TopicBase, m.config.NodeID), 1, true, nil); err != nil {
		m.log.Debug("clear presence failed", zap.Error(err))
	}
	return nil
}

func (m *Module) publishPresence() error {
	presence := brain.Presence{
		NodeID: m.config.NodeID,
		Kind:   "bridge",
		Name:   m.config.Name,
		Caps: map[string]any{
			"commands":   commandTypes,
			"buttons":    buttonNames(),
			"components": componentNames(),
		},
		Online: true,
		TS:     time.Now().Unix(),
	}
	payload, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	return m.client.Publish(brain.TopicPresence(m.config.TopicBase, m.config.NodeID), 1, true, payload)
}

// notify publishes one component change on the event topic.
func (m *Module) notify(_ context.Context, n player.Notification) error {
	payload, err := json.Marshal(brain.Notification{
		DeviceID:  n.DeviceID,
		Component: string(n.Component),
		Value:     n.Value,
		TS:        time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return m.client.Publish(m.evtTopic, 0, false, payload)
}

func (m *Module) handleMessage(ctx context.Context, payload []byte) {
	var cmd brain.CommandEnvelope
	if err := json.Unmarshal(payload, &cmd); err != nil {
		m.log.Warn("invalid command", zap.Error(err))
		return
	}

	var reply brain.ReplyEnvelope
	if err := brain.ValidateCommandEnvelope(cmd); err != nil {
		reply = errorReply(cmd, brain.CodeInvalid, err.Error())
	} else {
		cmdCtx, cancel := context.WithTimeout(ctx, m.config.CommandTimeout)
		reply = m.dispatch(cmdCtx, cmd)
		cancel()
	}

	if cmd.ReplyTo == "" {
		return
	}
	out, err := json.Marshal(reply)
	if err != nil {
		m.log.Error("marshal reply", zap.Error(err))
		return
	}
	if err := m.client.Publish(cmd.ReplyTo, 1, false, out); err != nil {
		m.log.Error("publish reply", zap.String("reply_to", cmd.ReplyTo), zap.Error(err))
	}
}

func buttonNames() []string {
	out := make([]string, 0, len(player.Buttons))
	for _, b := range player.Buttons {
		out = append(out, string(b))
	}
	return out
}

func componentNames() []string {
	out := make([]string, 0, len(player.Components))
	for _, c := range player.Components {
		out = append(out, string(c))
	}
	return out
}
