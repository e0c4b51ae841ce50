// Package path provides a minimal vector path builder, curve flattening
// and convexity analysis used by the path renderers.
package path
