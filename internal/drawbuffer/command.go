// Package drawbuffer records draw commands for deferred, in-order replay.
//
// The buffer never touches the device while recording. FlushTo replays the
// recorded commands against a Target in the order they were recorded and
// leaves the buffer empty.
package drawbuffer

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdDraw    CommandType = iota // Draw vertices with a state snapshot
	CmdSetClip                    // Set the device clip
	CmdClear                      // Clear a rectangle of a render target
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdDraw:    "Draw",
	CmdSetClip: "SetClip",
	CmdClear:   "Clear",
}

// String returns the command type name.
func (t CommandType) String() string {
	if int(t) < len(commandTypeNames) {
		return commandTypeNames[t]
	}
	return "Unknown"
}

// Command is a recorded operation.
type Command interface {
	Type() CommandType
}

// DrawCommand draws Call with a snapshot of the state at record time.
type DrawCommand struct {
	State device.DrawState
	Call  *device.DrawCall
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// SetClipCommand changes the device clip.
type SetClipCommand struct {
	Clip device.Clip
}

// Type implements Command.
func (SetClipCommand) Type() CommandType { return CmdSetClip }

// ClearCommand clears Rect of Target.
type ClearCommand struct {
	Target device.RenderTarget
	Rect   geom.IRect
	Color  gputypes.Color
}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }
