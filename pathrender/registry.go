package pathrender

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/gogpu/gr/device"
)

// Factory creates a renderer for a device. Returning nil skips the
// renderer for that device.
type Factory func(caps device.Caps) Renderer

type registration struct {
	name     string
	priority int
	factory  Factory
}

// registry holds renderers contributed by platform packages.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]registration)
)

// Register adds a renderer factory under name. Lower priorities come
// first in the chain. Registering an existing name replaces it. The
// registry is consulted only when a chain is built.
func Register(name string, priority int, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = registration{name: name, priority: priority, factory: factory}
}

// Unregister removes a renderer factory.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Registered returns registered names in chain order.
func Registered() []string {
	regs := sortedRegistrations()
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.name
	}
	return names
}

func sortedRegistrations() []registration {
	registryMu.RLock()
	defer registryMu.RUnlock()

	regs := make([]registration, 0, len(factories))
	for _, r := range factories {
		regs = append(regs, r)
	}
	slices.SortFunc(regs, func(a, b registration) int {
		return cmp.Or(cmp.Compare(a.priority, b.priority), strings.Compare(a.name, b.name))
	})
	return regs
}

func registered(caps device.Caps) []Renderer {
	var out []Renderer
	for _, r := range sortedRegistrations() {
		if pr := r.factory(caps); pr != nil {
			out = append(out, pr)
		}
	}
	return out
}
