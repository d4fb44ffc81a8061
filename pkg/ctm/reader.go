package ctm

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// cursor is a small little-endian byte reader, in the same spirit as
// pkg/gltf's direct use of encoding/binary for the GLB container: OpenCTM's
// chunk layout is variable-length (string fields are length-prefixed), so a
// struct-shaped binary.Read doesn't fit either.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, errors.Errorf("unexpected end of stream at offset %d, need %d bytes", c.pos, n)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) tag() (string, error) {
	b, err := c.bytes(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) int32() (int, error) {
	v, err := c.uint32()
	return int(v), err
}

func (c *cursor) float32() (float32, error) {
	v, err := c.uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (c *cursor) floats(n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := c.float32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *cursor) uint32s(n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := c.uint32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// lengthPrefixedString reads a uint32 byte count followed by that many raw
// (non-null-terminated) bytes, the convention OpenCTM uses for map names and
// file references.
func (c *cursor) lengthPrefixedString() (string, error) {
	n, err := c.int32()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
