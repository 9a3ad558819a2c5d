package core

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mikey-austin/raumbridge/internal/ports"
	"github.com/mikey-austin/raumbridge/pkg/brain"
)

// Service orchestrates bridgectl use cases.
type Service struct {
	Broker   ports.Broker
	Resolver Resolver
	Clock    ports.Clock
	IDGen    ports.IDGen
	Config   Config
}

// Target names the bridge node and the device a command addresses.
type Target struct {
	Node   string
	Device string
}

// ListNodes returns bridge presence entries.
func (s Service) ListNodes(ctx context.Context) (NodesResult, error) {
	nodes, err := s.Broker.ListPresence(ctx)
	if err != nil {
		return NodesResult{}, WrapError(ExitRuntime, "list nodes", err)
	}
	return NodesResult{Nodes: filterPresenceByKind(nodes, bridgeKind)}, nil
}

// Press sends a button press.
func (s Service) Press(ctx context.Context, target Target, button string) error {
	node, device, err := s.resolve(ctx, target)
	if err != nil {
		return err
	}
	if strings.TrimSpace(button) == "" {
		return &CLIError{Code: ExitUsage, Msg: "button required"}
	}
	_, err = s.request(ctx, node, brain.TypeButtonPress, brain.ButtonPressBody{DeviceID: device, Button: button})
	return err
}

// Set writes a component value. The value is sent as a bool or number when
// it parses as one.
func (s Service) Set(ctx context.Context, target Target, component string, value string) error {
	node, device, err := s.resolve(ctx, target)
	if err != nil {
		return err
	}
	_, err = s.request(ctx, node, brain.TypeComponentSet, brain.ComponentSetBody{
		DeviceID:  device,
		Component: component,
		Value:     parseValue(value),
	})
	return err
}

// Get reads a component value.
func (s Service) Get(ctx context.Context, target Target, component string) (ComponentResult, error) {
	node, device, err := s.resolve(ctx, target)
	if err != nil {
		return ComponentResult{}, err
	}
	reply, err := s.request(ctx, node, brain.TypeComponentGet, brain.ComponentGetBody{DeviceID: device, Component: component})
	if err != nil {
		return ComponentResult{}, err
	}
	var out brain.ComponentReply
	if err := decodeBody(reply, &out); err != nil {
		return ComponentResult{}, err
	}
	return ComponentResult{Component: out}, nil
}

// Volume reads the live renderer volume.
func (s Service) Volume(ctx context.Context, target Target) (VolumeResult, error) {
	node, device, err := s.resolve(ctx, target)
	if err != nil {
		return VolumeResult{}, err
	}
	reply, err := s.request(ctx, node, brain.TypeVolumeGet, brain.VolumeGetBody{DeviceID: device})
	if err != nil {
		return VolumeResult{}, err
	}
	var out brain.VolumeReply
	if err := decodeBody(reply, &out); err != nil {
		return VolumeResult{}, err
	}
	return VolumeResult{Volume: out}, nil
}

// BrowseOptions selects the directory and page window.
type BrowseOptions struct {
	Queue      bool
	Identifier string
	Offset     int
	Limit      int
}

// Browse lists one page of the root or queue directory.
func (s Service) Browse(ctx context.Context, target Target, opts BrowseOptions) (BrowseResult, error) {
	node, device, err := s.resolve(ctx, target)
	if err != nil {
		return BrowseResult{}, err
	}
	if opts.Offset < 0 || opts.Limit < 0 {
		return BrowseResult{}, &CLIError{Code: ExitUsage, Msg: "offset and limit must not be negative"}
	}
	reply, err := s.request(ctx, node, brain.TypeBrowseList, brain.BrowseListBody{
		DeviceID:         device,
		Directory:        directory(opts.Queue),
		BrowseIdentifier: opts.Identifier,
		Offset:           opts.Offset,
		Limit:            opts.Limit,
	})
	if err != nil {
		return BrowseResult{}, err
	}
	var page brain.BrowsePage
	if err := decodeBody(reply, &page); err != nil {
		return BrowseResult{}, err
	}
	return BrowseResult{DeviceID: device, Page: page}, nil
}

// Action selects a browse entry.
func (s Service) Action(ctx context.Context, target Target, queue bool, identifier string) error {
	node, device, err := s.resolve(ctx, target)
	if err != nil {
		return err
	}
	_, err = s.request(ctx, node, brain.TypeBrowseAction, brain.BrowseActionBody{
		DeviceID:         device,
		Directory:        directory(queue),
		ActionIdentifier: identifier,
	})
	return err
}

// Discover re-enumerates the rooms on the bridge.
func (s Service) Discover(ctx context.Context, node string) (DevicesResult, error) {
	nodeID, err := s.Resolver.ResolveNode(ctx, node)
	if err != nil {
		return DevicesResult{}, err
	}
	reply, err := s.request(ctx, nodeID, brain.TypeDevicesDiscover, struct{}{})
	if err != nil {
		return DevicesResult{}, err
	}
	var out brain.DevicesReply
	if err := decodeBody(reply, &out); err != nil {
		return DevicesResult{}, err
	}
	return DevicesResult{Devices: out.Devices}, nil
}

// PlayURI plays an arbitrary stream URI on a room.
func (s Service) PlayURI(ctx context.Context, target Target, uri string) error {
	node, device, err := s.resolve(ctx, target)
	if err != nil {
		return err
	}
	if strings.TrimSpace(uri) == "" {
		return &CLIError{Code: ExitUsage, Msg: "uri required"}
	}
	_, err = s.request(ctx, node, brain.TypePlayURI, brain.PlayURIBody{DeviceID: device, URI: uri})
	return err
}

// Watch streams notifications from the bridge, optionally for one device.
func (s Service) Watch(ctx context.Context, node string, device string) (<-chan NotificationResult, <-chan error, error) {
	nodeID, err := s.Resolver.ResolveNode(ctx, node)
	if err != nil {
		return nil, nil, err
	}
	if device != "" {
		if device, err = s.Resolver.ResolveDevice(device); err != nil {
			return nil, nil, err
		}
	}
	notes, errs := s.Broker.WatchNotifications(ctx, nodeID)
	out := make(chan NotificationResult)
	go func() {
		defer close(out)
		for note := range notes {
			if device != "" && note.DeviceID != device {
				continue
			}
			select {
			case out <- NotificationResult{Notification: note}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errs, nil
}

func (s Service) resolve(ctx context.Context, target Target) (string, string, error) {
	device, err := s.Resolver.ResolveDevice(target.Device)
	if err != nil {
		return "", "", err
	}
	node, err := s.Resolver.ResolveNode(ctx, target.Node)
	if err != nil {
		return "", "", err
	}
	return node, device, nil
}

func (s Service) request(ctx context.Context, nodeID string, cmdType string, body any) (brain.ReplyEnvelope, error) {
	cmd, err := brain.NewCommand(cmdType, body)
	if err != nil {
		return brain.ReplyEnvelope{}, WrapError(ExitRuntime, "build command", err)
	}
	cmd = s.decorateCommand(cmd)
	reply, err := s.Broker.PublishCommand(ctx, nodeID, cmd)
	if err != nil {
		return brain.ReplyEnvelope{}, WrapError(ExitRuntime, "publish command", err)
	}
	if reply.Err != nil {
		return brain.ReplyEnvelope{}, ErrorForReplyCode(reply.Err.Code, reply.Err.Message)
	}
	return reply, nil
}

func (s Service) decorateCommand(cmd brain.CommandEnvelope) brain.CommandEnvelope {
	cmd.ID = s.IDGen.NewID()
	cmd.TS = s.Clock.NowUnix()
	cmd.From = s.Config.Identity
	cmd.ReplyTo = s.Broker.ReplyTopic()
	return cmd
}

func decodeBody(reply brain.ReplyEnvelope, out any) error {
	if len(reply.Body) == 0 {
		return &CLIError{Code: ExitRuntime, Msg: "empty reply body"}
	}
	if err := json.Unmarshal(reply.Body, out); err != nil {
		return WrapError(ExitRuntime, "decode reply", err)
	}
	return nil
}

func directory(queue bool) string {
	if queue {
		return "PLAYER_QUEUE_DIRECTORY"
	}
	return "PLAYER_ROOT_DIRECTORY"
}

// parseValue turns CLI text into the JSON type the bridge expects.
func parseValue(raw string) any {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "true", "on":
		return true
	case "false", "off":
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}
