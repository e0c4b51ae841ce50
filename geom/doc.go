// Package geom provides the small amount of 2D geometry the orchestrator
// needs: points, float and integer rectangles and affine matrices used as
// view and sampler transforms.
package geom
