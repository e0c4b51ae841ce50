// Package shaders holds the WGSL programs a GPU device needs to execute
// draw states: a textured blit, a coverage-mask fill and a 1D
// convolution/morphology filter. They are compiled to SPIR-V with naga.
package shaders

import (
	"embed"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/gr/device"
)

//go:embed wgsl/*.wgsl
var sources embed.FS

// Program labels.
const (
	Blit     = "blit"
	Mask     = "mask"
	Convolve = "convolve"
)

// Labels lists every program in load order.
var Labels = []string{Blit, Mask, Convolve}

// Source returns the WGSL source of a program.
func Source(label string) (string, error) {
	b, err := sources.ReadFile("wgsl/" + label + ".wgsl")
	if err != nil {
		return "", fmt.Errorf("shaders: unknown program %q", label)
	}
	return string(b), nil
}

// Compile compiles a program to SPIR-V words.
func Compile(label string) ([]uint32, error) {
	src, err := Source(label)
	if err != nil {
		return nil, err
	}
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("shaders: compile %s: %w", label, err)
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// LoadAll compiles every program and hands it to loader. It stops at the
// first failure.
func LoadAll(loader device.ProgramLoader) error {
	for _, label := range Labels {
		words, err := Compile(label)
		if err != nil {
			return err
		}
		if err := loader.LoadProgram(label, words); err != nil {
			return fmt.Errorf("shaders: load %s: %w", label, err)
		}
	}
	return nil
}
