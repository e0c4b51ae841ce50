//go:build grdebug

package gr

import "fmt"

// debugAsserts enables internal consistency checks. Build with the grdebug
// tag to turn them on.
const debugAsserts = true

// assertf panics with the formatted message when cond is false.
func (c *Context) assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("gr: "+format, args...))
	}
}
