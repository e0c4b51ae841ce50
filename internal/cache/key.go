package cache

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
)

// Kind is the resource type a key addresses.
type Kind uint8

const (
	KindTexture Kind = iota
	KindStencil
)

// Domain separates client-keyed resources from interchangeable scratch ones.
type Domain uint8

const (
	// DomainExact keys identify one specific resource.
	DomainExact Domain = iota
	// DomainScratch keys identify any resource matching a descriptor.
	DomainScratch
)

// ResizeFlags record how a client texture was adapted on upload.
type ResizeFlags uint8

const (
	// ResizeNeeded marks a texture stretched to power-of-two dimensions.
	ResizeNeeded ResizeFlags = 1 << iota
	// ResizeFiltered marks a stretch done with bilinear filtering.
	ResizeFiltered
)

// Key identifies cached resources. Equal inputs produce equal keys.
type Key struct {
	Kind        Kind
	Domain      Domain
	Width       int
	Height      int
	Format      gputypes.TextureFormat
	Flags       device.TextureFlags
	SampleCount int
	ClientID    uint64
	Resize      ResizeFlags
}

// TextureKey builds the key for a client texture.
func TextureKey(clientID uint64, desc device.TextureDesc, resize ResizeFlags) Key {
	return Key{
		Kind:        KindTexture,
		Domain:      DomainExact,
		Width:       desc.Width,
		Height:      desc.Height,
		Format:      desc.Format,
		Flags:       desc.Flags,
		SampleCount: desc.SampleCount,
		ClientID:    clientID,
		Resize:      resize,
	}
}

// ScratchKey builds the key for a scratch texture matching desc.
func ScratchKey(desc device.TextureDesc) Key {
	return Key{
		Kind:        KindTexture,
		Domain:      DomainScratch,
		Width:       desc.Width,
		Height:      desc.Height,
		Format:      desc.Format,
		Flags:       desc.Flags,
		SampleCount: desc.SampleCount,
	}
}

// StencilKey builds the key for a stencil buffer.
func StencilKey(width, height, sampleCount int) Key {
	return Key{
		Kind:        KindStencil,
		Domain:      DomainExact,
		Width:       width,
		Height:      height,
		SampleCount: sampleCount,
	}
}

// IsScratch reports whether k is in the scratch domain.
func (k Key) IsScratch() bool { return k.Domain == DomainScratch }

// Fingerprint returns a deterministic 64-bit FNV-1a hash of the key.
func (k Key) Fingerprint() uint64 {
	var buf [8*4 + 8]byte
	buf[0] = byte(k.Kind)
	buf[1] = byte(k.Domain)
	buf[2] = byte(k.Flags)
	buf[3] = byte(k.Resize)
	binary.LittleEndian.PutUint32(buf[4:], uint32(k.Format))
	binary.LittleEndian.PutUint64(buf[8:], uint64(k.Width))
	binary.LittleEndian.PutUint64(buf[16:], uint64(k.Height))
	binary.LittleEndian.PutUint64(buf[24:], uint64(k.SampleCount))
	binary.LittleEndian.PutUint64(buf[32:], k.ClientID)
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// String returns a diagnostic representation.
func (k Key) String() string {
	kind := "tex"
	if k.Kind == KindStencil {
		kind = "stencil"
	}
	if k.Domain == DomainScratch {
		kind = "scratch"
	}
	return fmt.Sprintf("%s[%dx%d %s %s s%d id=%d r=%d]",
		kind, k.Width, k.Height, device.FormatName(k.Format), k.Flags, k.SampleCount, k.ClientID, k.Resize)
}
