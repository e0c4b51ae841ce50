package pathrender

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/path"
)

// Chain is an ordered list of renderers. The order is fixed at
// construction.
type Chain struct {
	renderers []Renderer
}

// NewChain builds the standard chain for caps. extra renderers are placed
// after the registered ones and before the software renderer.
func NewChain(caps device.Caps, extra ...Renderer) *Chain {
	c := &Chain{}
	c.renderers = append(c.renderers,
		NewConvexRenderer(caps),
		NewHairlineRenderer(caps),
	)
	if caps.StencilSupport {
		c.renderers = append(c.renderers, NewStencilRenderer(caps))
	}
	c.renderers = append(c.renderers, registered(caps)...)
	c.renderers = append(c.renderers, extra...)
	c.renderers = append(c.renderers, NewSoftwareRenderer())
	return c
}

// Select returns the first renderer able to draw p, or nil. Software
// renderers are skipped unless allowSoftware is set.
func (c *Chain) Select(p *path.Path, fill path.FillRule, aa, allowSoftware bool) Renderer {
	for _, r := range c.renderers {
		if r.Kind() == KindSoftware && !allowSoftware {
			continue
		}
		if r.CanDrawPath(p, fill, aa) {
			return r
		}
	}
	return nil
}

// Renderers returns the chain in priority order.
func (c *Chain) Renderers() []Renderer {
	return append([]Renderer(nil), c.renderers...)
}
