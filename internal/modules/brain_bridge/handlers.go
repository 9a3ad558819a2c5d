package brainbridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mikey-austin/raumbridge/internal/player"
	"github.com/mikey-austin/raumbridge/pkg/brain"
)

var commandTypes = []string{
	brain.TypeButtonPress,
	brain.TypeComponentSet,
	brain.TypeComponentGet,
	brain.TypeVolumeGet,
	brain.TypeBrowseList,
	brain.TypeBrowseAction,
	brain.TypeDevicesDiscover,
	brain.TypePlayURI,
}

func (m *Module) dispatch(ctx context.Context, cmd brain.CommandEnvelope) brain.ReplyEnvelope {
	reply := brain.ReplyEnvelope{
		ID:   cmd.ID,
		Type: "ack",
		OK:   true,
		TS:   time.Now().Unix(),
	}

	switch cmd.Type {
	case brain.TypeButtonPress:
		return m.buttonPress(ctx, cmd, reply)
	case brain.TypeComponentSet:
		return m.componentSet(ctx, cmd, reply)
	case brain.TypeComponentGet:
		return m.componentGet(cmd, reply)
	case brain.TypeVolumeGet:
		return m.volumeGet(ctx, cmd, reply)
	case brain.TypeBrowseList:
		return m.browseList(ctx, cmd, reply)
	case brain.TypeBrowseAction:
		return m.browseAction(ctx, cmd, reply)
	case brain.TypeDevicesDiscover:
		return m.devicesDiscover(ctx, cmd, reply)
	case brain.TypePlayURI:
		return m.playURI(ctx, cmd, reply)
	default:
		return errorReply(cmd, brain.CodeInvalid, "unsupported command")
	}
}

func (m *Module) buttonPress(ctx context.Context, cmd brain.CommandEnvelope, reply brain.ReplyEnvelope) brain.ReplyEnvelope {
	var body brain.ButtonPressBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, brain.CodeInvalid, "invalid body")
	}
	if strings.TrimSpace(body.DeviceID) == "" {
		return errorReply(cmd, brain.CodeInvalid, "deviceId required")
	}
	button, err := player.ParseButton(body.Button)
	if err != nil {
		return failReply(cmd, err)
	}
	if err := m.player.OnButtonPressed(ctx, button, body.DeviceID); err != nil {
		return failReply(cmd, err)
	}
	return reply
}

func (m *Module) componentSet(ctx context.Context, cmd brain.CommandEnvelope, reply brain.ReplyEnvelope) brain.ReplyEnvelope {
	var body brain.ComponentSetBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, brain.CodeInvalid, "invalid body")
	}
	if strings.TrimSpace(body.DeviceID) == "" {
		return errorReply(cmd, brain.CodeInvalid, "deviceId required")
	}
	comp, err := player.ParseComponent(body.Component)
	if err != nil {
		return failReply(cmd, err)
	}
	if err := m.player.SetComponent(ctx, body.DeviceID, comp, body.Value); err != nil {
		return failReply(cmd, err)
	}
	return reply
}

func (m *Module) componentGet(cmd brain.CommandEnvelope, reply brain.ReplyEnvelope) brain.ReplyEnvelope {
	var body brain.ComponentGetBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, brain.CodeInvalid, "invalid body")
	}
	comp, err := player.ParseComponent(body.Component)
	if err != nil {
		return failReply(cmd, err)
	}
	return withBody(cmd, reply, brain.ComponentReply{
		DeviceID:  body.DeviceID,
		Component: string(comp),
		Value:     m.player.GetComponent(body.DeviceID, comp),
	})
}

func (m *Module) volumeGet(ctx context.Context, cmd brain.CommandEnvelope, reply brain.ReplyEnvelope) brain.ReplyEnvelope {
	var body brain.VolumeGetBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, brain.CodeInvalid, "invalid body")
	}
	volume, err := m.player.GetVolume(ctx, body.DeviceID)
	if err != nil {
		return failReply(cmd, err)
	}
	return withBody(cmd, reply, brain.VolumeReply{DeviceID: body.DeviceID, Volume: volume})
}

func (m *Module) browseList(ctx context.Context, cmd brain.CommandEnvelope, reply brain.ReplyEnvelope) brain.ReplyEnvelope {
	var body brain.BrowseListBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, brain.CodeInvalid, "invalid body")
	}
	dir, err := player.ParseDirectory(body.Directory)
	if err != nil {
		return failReply(cmd, err)
	}
	page, err := m.player.Browse(ctx, body.DeviceID, dir, player.BrowseParams{
		BrowseIdentifier: body.BrowseIdentifier,
		Offset:           body.Offset,
		Limit:            body.Limit,
	})
	if err != nil {
		return failReply(cmd, err)
	}
	return withBody(cmd, reply, toBrowsePage(page))
}

func (m *Module) browseAction(ctx context.Context, cmd brain.CommandEnvelope, reply brain.ReplyEnvelope) brain.ReplyEnvelope {
	var body brain.BrowseActionBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, brain.CodeInvalid, "invalid body")
	}
	dir, err := player.ParseDirectory(body.Directory)
	if err != nil {
		return failReply(cmd, err)
	}
	m.player.Action(ctx, body.DeviceID, dir, body.ActionIdentifier)
	return reply
}

func (m *Module) devicesDiscover(ctx context.Context, cmd brain.CommandEnvelope, reply brain.ReplyEnvelope) brain.ReplyEnvelope {
	devices, err := m.player.DiscoverDevices(ctx)
	if err != nil {
		return failReply(cmd, err)
	}
	out := brain.DevicesReply{Devices: make([]brain.Device, 0, len(devices))}
	for _, d := range devices {
		out.Devices = append(out.Devices, brain.Device{ID: d.ID, Name: d.Name, Reachable: d.Reachable})
	}
	return withBody(cmd, reply, out)
}

func (m *Module) playURI(ctx context.Context, cmd brain.CommandEnvelope, reply brain.ReplyEnvelope) brain.ReplyEnvelope {
	var body brain.PlayURIBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, brain.CodeInvalid, "invalid body")
	}
	if strings.TrimSpace(body.URI) == "" {
		return errorReply(cmd, brain.CodeInvalid, "uri required")
	}
	if err := m.player.PlayURI(ctx, body.DeviceID, body.URI); err != nil {
		return failReply(cmd, err)
	}
	return reply
}

func toBrowsePage(page player.Page) brain.BrowsePage {
	out := brain.BrowsePage{
		Title:              page.Title,
		TotalMatchingItems: page.TotalMatchingItems,
		Offset:             page.Offset,
		Limit:              page.Limit,
		Next:               page.Next,
		Previous:           page.Previous,
		Entries:            make([]brain.ListEntry, 0, len(page.Entries)),
	}
	for _, b := range page.Buttons {
		out.Buttons = append(out.Buttons, brain.ListButton{
			Title:            b.Title,
			IconName:         b.IconName,
			Inverse:          b.Inverse,
			ActionIdentifier: b.ActionIdentifier,
		})
	}
	for _, e := range page.Entries {
		entry := brain.ListEntry{Type: string(e.Type)}
		switch e.Type {
		case player.EntryItem:
			entry.Title = e.Item.Title
			entry.ThumbnailURI = e.Item.ThumbnailURI
			entry.BrowseIdentifier = e.Item.BrowseIdentifier
			entry.ActionIdentifier = e.Item.ActionIdentifier
		case player.EntryHeader:
			entry.Title = e.Title
		case player.EntryTiles:
			for _, tile := range e.Tiles {
				entry.Tiles = append(entry.Tiles, brain.ListTile{
					Title:            tile.Title,
					ThumbnailURI:     tile.ThumbnailURI,
					ActionIdentifier: tile.ActionIdentifier,
				})
			}
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

// errorCode maps player errors to reply codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, player.ErrDeviceNotFound):
		return brain.CodeNotFound
	case errors.Is(err, player.ErrCatalogUnavailable):
		return brain.CodeUnavailable
	case errors.Is(err, player.ErrUnknownButton),
		errors.Is(err, player.ErrUnknownCommand),
		errors.Is(err, player.ErrUnknownComponent),
		errors.Is(err, player.ErrUnknownDirectory),
		errors.Is(err, player.ErrInvalidValue),
		errors.Is(err, player.ErrReadOnly):
		return brain.CodeInvalid
	default:
		return brain.CodeInternal
	}
}

func failReply(cmd brain.CommandEnvelope, err error) brain.ReplyEnvelope {
	return errorReply(cmd, errorCode(err), err.Error())
}

func withBody(cmd brain.CommandEnvelope, reply brain.ReplyEnvelope, body any) brain.ReplyEnvelope {
	payload, err := json.Marshal(body)
	if err != nil {
		return errorReply(cmd, brain.CodeInternal, "marshal reply body")
	}
	reply.Body = payload
	return reply
}

func errorReply(cmd brain.CommandEnvelope, code string, message string) brain.ReplyEnvelope {
	return brain.ReplyEnvelope{
		ID:   cmd.ID,
		Type: "error",
		OK:   false,
		TS:   time.Now().Unix(),
		Err: &brain.ReplyError{
			Code:    code,
			Message: message,
		},
	}
}
