package drawbuffer

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// Target receives replayed commands. device.Device satisfies it.
type Target interface {
	SetClip(clip device.Clip) error
	Clear(rt device.RenderTarget, rect geom.IRect, color gputypes.Color) error
	Draw(state *device.DrawState, call *device.DrawCall) error
}

// State is the buffer's recording state.
type State uint8

const (
	// Idle means no commands are held.
	Idle State = iota
	// Recording means at least one command waits for a flush.
	Recording
)

// String returns the state name.
func (s State) String() string {
	if s == Recording {
		return "Recording"
	}
	return "Idle"
}

// Stats counts commands over the buffer's lifetime.
type Stats struct {
	Recorded uint64
	Replayed uint64
	Flushes  uint64
}

// Buffer is a deferred command buffer. It is not safe for concurrent use.
type Buffer struct {
	cmds         []Command
	lastClip     device.Clip
	clipRecorded bool
	replaying    bool
	stats        Stats
	logger       *slog.Logger
}

// New creates an empty buffer. A nil logger disables logging.
func New(logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Buffer{logger: logger}
}

// Draw records call with a snapshot of state. Both are deep-copied.
func (b *Buffer) Draw(state *device.DrawState, call *device.DrawCall) {
	snap := *state
	if state.ColorFilter != nil {
		cf := *state.ColorFilter
		snap.ColorFilter = &cf
	}
	b.push(DrawCommand{State: snap, Call: call.Clone()})
}

// SetClip records a clip change. Nothing is recorded when clip equals the
// last recorded clip, except for the first clip after a reset.
func (b *Buffer) SetClip(clip device.Clip) {
	if b.clipRecorded && clip == b.lastClip {
		return
	}
	b.lastClip = clip
	b.clipRecorded = true
	b.push(SetClipCommand{Clip: clip})
}

// Clear records a clear of rect in rt.
func (b *Buffer) Clear(rt device.RenderTarget, rect geom.IRect, color gputypes.Color) {
	b.push(ClearCommand{Target: rt, Rect: rect, Color: color})
}

func (b *Buffer) push(cmd Command) {
	b.cmds = append(b.cmds, cmd)
	b.stats.Recorded++
}

// FlushTo replays every recorded command against t in order and empties
// the buffer. Replay stops at the first error; the remaining commands are
// dropped. Commands recorded while replaying are kept for the next flush.
// Calling FlushTo while the buffer is already replaying does nothing.
func (b *Buffer) FlushTo(t Target) error {
	if b.replaying {
		return nil
	}
	cmds := b.cmds
	b.cmds = nil
	b.clipRecorded = false
	if len(cmds) == 0 {
		return nil
	}

	b.replaying = true
	defer func() { b.replaying = false }()
	b.stats.Flushes++
	b.logger.Debug("drawbuffer: flush", "commands", len(cmds))

	for i, cmd := range cmds {
		var err error
		switch c := cmd.(type) {
		case DrawCommand:
			err = t.Draw(&c.State, c.Call)
		case SetClipCommand:
			err = t.SetClip(c.Clip)
		case ClearCommand:
			err = t.Clear(c.Target, c.Rect, c.Color)
		}
		if err != nil {
			return fmt.Errorf("drawbuffer: command %d (%s): %w", i, cmd.Type(), err)
		}
		b.stats.Replayed++
	}
	return nil
}

// Reset drops every recorded command.
func (b *Buffer) Reset() {
	b.cmds = nil
	b.clipRecorded = false
}

// Len returns the number of recorded commands.
func (b *Buffer) Len() int { return len(b.cmds) }

// Commands returns a copy of the recorded commands.
func (b *Buffer) Commands() []Command {
	return append([]Command(nil), b.cmds...)
}

// State returns Recording when commands are held.
func (b *Buffer) State() State {
	if len(b.cmds) > 0 {
		return Recording
	}
	return Idle
}

// IsReplaying reports whether FlushTo is running.
func (b *Buffer) IsReplaying() bool { return b.replaying }

// Stats returns the lifetime counters.
func (b *Buffer) Stats() Stats { return b.stats }
