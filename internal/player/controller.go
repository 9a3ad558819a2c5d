package player

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Config holds the tunables of the player controller.
type Config struct {
	VolumeStep int
	VolumeMax  int
	QueueSize  int
}

// DefaultConfig returns the stock player tunables.
func DefaultConfig() Config {
	return Config{VolumeStep: 4, VolumeMax: 65, QueueSize: 10000}
}

// Controller turns brain input into synchronizer calls and keeps the
// component values the brain reads back.
type Controller struct {
	log          *zap.Logger
	synchronizer *Synchronizer
	browser      *Browser
	cfg          Config
}

// NewController wires a controller to s and attaches it as the sink for
// renderer events.
func NewController(log *zap.Logger, s *Synchronizer, cfg Config) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.VolumeStep <= 0 {
		cfg.VolumeStep = def.VolumeStep
	}
	if cfg.VolumeMax <= 0 {
		cfg.VolumeMax = def.VolumeMax
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	c := &Controller{
		log:          log,
		synchronizer: s,
		browser:      NewBrowser(log, s, s, cfg.QueueSize),
		cfg:          cfg,
	}
	s.Attach(c)
	return c
}

// Synchronizer returns the underlying synchronizer.
func (c *Controller) Synchronizer() *Synchronizer {
	return c.synchronizer
}

// UpdateComponent records and notifies a value derived from renderer events.
func (c *Controller) UpdateComponent(deviceID string, comp Component, value any) {
	c.log.Debug("update component",
		zap.String("device", deviceID),
		zap.String("component", string(comp)),
		zap.Any("value", value),
	)
	c.synchronizer.Publish(deviceID, comp, value)
}

// OnButtonPressed handles a button press. Unknown buttons are ignored; only a
// failed volume read is returned.
func (c *Controller) OnButtonPressed(ctx context.Context, b Button, deviceID string) error {
	c.log.Debug("button pressed", zap.String("device", deviceID), zap.String("button", string(b)))
	switch b {
	case ButtonPlay:
		c.synchronizer.UpdateState(ctx, deviceID, b.Command(), true)
		c.synchronizer.Publish(deviceID, ComponentPlay, true)
	case ButtonPlayToggle:
		playing := c.boolState(deviceID, ComponentPlay)
		c.synchronizer.UpdateState(ctx, deviceID, b.Command(), !playing)
		c.synchronizer.Publish(deviceID, ComponentPlay, !playing)
	case ButtonPause:
		c.synchronizer.UpdateState(ctx, deviceID, b.Command(), true)
		c.synchronizer.Publish(deviceID, ComponentPlay, false)
	case ButtonVolumeUp, ButtonVolumeDown:
		current, err := c.synchronizer.GetVolume(ctx, deviceID)
		if err != nil {
			return fmt.Errorf("%s: %w", b, err)
		}
		volume := VolumeDown(current, c.cfg.VolumeStep)
		if b == ButtonVolumeUp {
			volume = VolumeUp(current, c.cfg.VolumeStep, c.cfg.VolumeMax)
		}
		c.synchronizer.UpdateState(ctx, deviceID, CmdVolume, volume)
		c.synchronizer.Publish(deviceID, ComponentVolume, volume)
	case ButtonMuteToggle:
		muted := c.boolState(deviceID, ComponentMute)
		c.synchronizer.UpdateState(ctx, deviceID, b.Command(), !muted)
		c.synchronizer.Publish(deviceID, ComponentMute, !muted)
	case ButtonNextTrack, ButtonPreviousTrack:
		c.synchronizer.UpdateState(ctx, deviceID, b.Command(), true)
		c.synchronizer.Publish(deviceID, ComponentTitle, string(b))
	case ButtonPowerOn, ButtonPowerOff,
		ButtonShuffleToggle, ButtonRepeatToggle, ButtonClearQueue:
		c.synchronizer.UpdateState(ctx, deviceID, b.Command(), true)
	default:
		c.log.Debug("unhandled button", zap.String("button", string(b)))
	}
	return nil
}

// VolumeUp raises current by step unless that would exceed max.
func VolumeUp(current, step, max int) int {
	if current+step > max {
		return current
	}
	return current + step
}

// VolumeDown lowers current by step unless current is below step.
func VolumeDown(current, step int) int {
	if current < step {
		return current
	}
	return current - step
}

func (c *Controller) boolState(deviceID string, comp Component) bool {
	v, _ := c.synchronizer.GetState(deviceID, comp)
	b, _ := v.(bool)
	return b
}

// SetComponent applies a brain-side switch or slider change.
func (c *Controller) SetComponent(ctx context.Context, deviceID string, comp Component, raw any) error {
	if comp.Kind() == KindSensor {
		return fmt.Errorf("%w: %s", ErrReadOnly, comp)
	}
	value, err := comp.Coerce(raw)
	if err != nil {
		return err
	}
	c.log.Info("set component",
		zap.String("device", deviceID),
		zap.String("component", string(comp)),
		zap.Any("value", value),
	)
	c.synchronizer.Publish(deviceID, comp, value)
	if cmd, ok := comp.command(); ok {
		c.synchronizer.UpdateState(ctx, deviceID, cmd, value)
	}
	return nil
}

// GetComponent returns the last known value or the component's zero value.
func (c *Controller) GetComponent(deviceID string, comp Component) any {
	if v, ok := c.synchronizer.GetState(deviceID, comp); ok {
		return v
	}
	return comp.Zero()
}

// GetVolume reads the live renderer volume.
func (c *Controller) GetVolume(ctx context.Context, deviceID string) (int, error) {
	return c.synchronizer.GetVolume(ctx, deviceID)
}

// Browse lists a directory page for the brain.
func (c *Controller) Browse(ctx context.Context, deviceID string, dir Directory, params BrowseParams) (Page, error) {
	page, err := c.browser.Browse(ctx, deviceID, dir, params)
	if err != nil {
		c.log.Warn("browse failed",
			zap.String("device", deviceID),
			zap.String("directory", string(dir)),
			zap.String("browse_id", params.BrowseIdentifier),
			zap.Error(err),
		)
		return Page{}, err
	}
	return page, nil
}

// Action handles selection of an entry in either directory.
func (c *Controller) Action(ctx context.Context, deviceID string, dir Directory, actionID string) {
	c.log.Debug("list action", zap.String("device", deviceID), zap.String("directory", dir.Label()))
	c.browser.Action(ctx, deviceID, actionID)
}

// DiscoverDevices re-enumerates the rooms.
func (c *Controller) DiscoverDevices(ctx context.Context) ([]Device, error) {
	return c.synchronizer.DiscoverDevices(ctx)
}

// PlayURI plays an arbitrary URI on the room renderer.
func (c *Controller) PlayURI(ctx context.Context, deviceID, uri string) error {
	return c.synchronizer.LoadURI(ctx, deviceID, uri)
}
