//go:build !grdebug

package gr

const debugAsserts = false

func (c *Context) assertf(bool, string, ...any) {}
