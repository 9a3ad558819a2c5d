package player

import (
	"fmt"
	"strings"
)

// Command is a control key applied to a room renderer.
type Command string

const (
	CmdPlay          Command = "PLAY"
	CmdPause         Command = "PAUSE"
	CmdPlaying       Command = "PLAYING"
	CmdPlayToggle    Command = "PLAY TOGGLE"
	CmdMute          Command = "MUTE"
	CmdMuteToggle    Command = "MUTE TOGGLE"
	CmdShuffle       Command = "SHUFFLE"
	CmdShuffleToggle Command = "SHUFFLE TOGGLE"
	CmdRepeat        Command = "REPEAT"
	CmdRepeatToggle  Command = "REPEAT TOGGLE"
	CmdVolume        Command = "VOLUME"
	CmdVolumeUp      Command = "VOLUME UP"
	CmdVolumeDown    Command = "VOLUME DOWN"
	CmdNext          Command = "NEXT"
	CmdNextTrack     Command = "NEXT TRACK"
	CmdPrevious      Command = "PREVIOUS"
	CmdPreviousTrack Command = "PREVIOUS TRACK"
	CmdClearQueue    Command = "CLEAR QUEUE"
	CmdPowerOn       Command = "POWER ON"
	CmdPowerOff      Command = "POWER OFF"
)

var commands = []Command{
	CmdPlay, CmdPause, CmdPlaying, CmdPlayToggle,
	CmdMute, CmdMuteToggle, CmdShuffle, CmdShuffleToggle,
	CmdRepeat, CmdRepeatToggle, CmdVolume, CmdVolumeUp, CmdVolumeDown,
	CmdNext, CmdNextTrack, CmdPrevious, CmdPreviousTrack,
	CmdClearQueue, CmdPowerOn, CmdPowerOff,
}

// ParseCommand maps a literal key to a Command.
func ParseCommand(name string) (Command, error) {
	c := Command(normalizeName(name))
	for _, known := range commands {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Button is a hard or soft button on the remote.
type Button string

const (
	ButtonPlay          Button = "PLAY"
	ButtonPlayToggle    Button = "PLAY TOGGLE"
	ButtonPause         Button = "PAUSE"
	ButtonVolumeUp      Button = "VOLUME UP"
	ButtonVolumeDown    Button = "VOLUME DOWN"
	ButtonMuteToggle    Button = "MUTE TOGGLE"
	ButtonNextTrack     Button = "NEXT TRACK"
	ButtonPreviousTrack Button = "PREVIOUS TRACK"
	ButtonShuffleToggle Button = "SHUFFLE TOGGLE"
	ButtonRepeatToggle  Button = "REPEAT TOGGLE"
	ButtonClearQueue    Button = "CLEAR QUEUE"
	ButtonPowerOn       Button = "POWER ON"
	ButtonPowerOff      Button = "POWER OFF"
)

// Buttons lists the buttons registered with the brain.
var Buttons = []Button{
	ButtonPlay, ButtonPlayToggle, ButtonPause,
	ButtonVolumeUp, ButtonVolumeDown, ButtonMuteToggle,
	ButtonNextTrack, ButtonPreviousTrack,
	ButtonShuffleToggle, ButtonRepeatToggle, ButtonClearQueue,
	ButtonPowerOn, ButtonPowerOff,
}

// ParseButton maps a literal button name to a Button.
func ParseButton(name string) (Button, error) {
	b := Button(normalizeName(name))
	for _, known := range Buttons {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownButton, name)
}

// Command returns the renderer command carrying the button's name.
func (b Button) Command() Command {
	return Command(b)
}

func normalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.Join(strings.Fields(name), " ")
}
