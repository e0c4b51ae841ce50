// Package drawstate manages the live draw state of a rendering context and
// scoped changes to it.
//
// A Guard snapshots a chosen set of fields and restores exactly those
// fields when released, so temporary changes made inside a scope never
// leak out of it:
//
//	g := stack.SaveMatrix(geom.Translate(10, 0))
//	defer g.Restore()
package drawstate

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// Field selects a group of DrawState fields.
type Field uint16

const (
	FieldRenderTarget Field = 1 << iota
	FieldViewMatrix
	FieldClip
	FieldSamplers
	FieldBlend
	FieldColor
	FieldFlags
	FieldColorFilter
	FieldStencil

	// FieldAll selects every field.
	FieldAll = FieldRenderTarget | FieldViewMatrix | FieldClip | FieldSamplers |
		FieldBlend | FieldColor | FieldFlags | FieldColorFilter | FieldStencil
)

// Stack owns the live draw state and the open guards over it.
type Stack struct {
	state device.DrawState
	open  []*Guard
}

// New creates a stack holding the default draw state.
func New() *Stack {
	return &Stack{state: device.DefaultDrawState()}
}

// State returns the live state. Callers may modify it directly.
func (s *Stack) State() *device.DrawState { return &s.state }

// Depth returns the number of open guards.
func (s *Stack) Depth() int { return len(s.open) }

// Save snapshots fields and returns a guard restoring them.
func (s *Stack) Save(fields Field) *Guard {
	g := &Guard{stack: s, fields: fields, saved: s.state, depth: len(s.open)}
	if fields&FieldColorFilter != 0 && s.state.ColorFilter != nil {
		cf := *s.state.ColorFilter
		g.saved.ColorFilter = &cf
	}
	s.open = append(s.open, g)
	return g
}

// SaveReset snapshots fields and resets them to their defaults. The render
// target is kept unless FieldRenderTarget is selected.
func (s *Stack) SaveReset(fields Field) *Guard {
	g := s.Save(fields)
	def := device.DefaultDrawState()
	copyFields(&s.state, &def, fields)
	return g
}

// SaveMatrix snapshots the view matrix and replaces it with m.
func (s *Stack) SaveMatrix(m geom.Matrix) *Guard {
	g := s.Save(FieldViewMatrix)
	s.state.ViewMatrix = m
	return g
}

// SaveClip snapshots the clip and clip flag and replaces them.
func (s *Stack) SaveClip(clip device.Clip) *Guard {
	g := s.Save(FieldClip | FieldFlags)
	s.state.Clip = clip
	if clip.Enabled {
		s.state.Flags |= device.StateClip
	} else {
		s.state.Flags &^= device.StateClip
	}
	return g
}

// SaveStagesDisabled snapshots the samplers and unbinds every stage.
func (s *Stack) SaveStagesDisabled() *Guard {
	g := s.Save(FieldSamplers)
	s.state.ResetSamplers()
	return g
}

// SaveRenderTarget snapshots the render target and replaces it with rt.
func (s *Stack) SaveRenderTarget(rt device.RenderTarget) *Guard {
	g := s.Save(FieldRenderTarget)
	s.state.RenderTarget = rt
	return g
}

// SaveDeviceCoords switches the live state to device-space positions: the
// view matrix becomes identity and every bound stage matrix absorbs the old
// view inverse so stages keep sampling as before. ok is false, and nothing
// is saved, when the view matrix is not invertible.
func (s *Stack) SaveDeviceCoords() (g *Guard, ok bool) {
	inv, ok := s.state.ViewMatrix.Invert()
	if !ok {
		return nil, false
	}
	g = s.Save(FieldViewMatrix | FieldSamplers)
	for i := range s.state.Samplers {
		if s.state.Samplers[i].Enabled() {
			s.state.Samplers[i].Matrix = s.state.Samplers[i].Matrix.Multiply(inv)
		}
	}
	s.state.ViewMatrix = geom.Identity()
	return g, true
}

// Guard restores a snapshot of selected fields.
type Guard struct {
	stack    *Stack
	fields   Field
	saved    device.DrawState
	depth    int
	restored bool
}

// Restore writes the saved fields back. Guards opened after g and still
// open are restored first. Restore is idempotent.
func (g *Guard) Restore() {
	if g == nil || g.restored {
		return
	}
	s := g.stack
	for len(s.open) > g.depth+1 {
		s.open[len(s.open)-1].Restore()
	}
	copyFields(&s.state, &g.saved, g.fields)
	g.restored = true
	if len(s.open) > g.depth && s.open[g.depth] == g {
		s.open = s.open[:g.depth]
	}
}

func copyFields(dst, src *device.DrawState, fields Field) {
	if fields&FieldRenderTarget != 0 {
		dst.RenderTarget = src.RenderTarget
	}
	if fields&FieldViewMatrix != 0 {
		dst.ViewMatrix = src.ViewMatrix
	}
	if fields&FieldClip != 0 {
		dst.Clip = src.Clip
	}
	if fields&FieldSamplers != 0 {
		dst.Samplers = src.Samplers
		dst.FirstCoverageStage = src.FirstCoverageStage
	}
	if fields&FieldBlend != 0 {
		dst.SrcBlend, dst.DstBlend = src.SrcBlend, src.DstBlend
	}
	if fields&FieldColor != 0 {
		dst.Color = src.Color
		dst.Coverage = src.Coverage
	}
	if fields&FieldFlags != 0 {
		dst.Flags = src.Flags
	}
	if fields&FieldColorFilter != 0 {
		dst.ColorFilter = src.ColorFilter
		dst.ColorMatrix = src.ColorMatrix
	}
	if fields&FieldStencil != 0 {
		dst.Stencil = src.Stencil
	}
}
