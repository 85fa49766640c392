package models

import "image"

// BitDepth is the number of bits per pixel sample.
type BitDepth int

const (
	BitDepth8  BitDepth = 8
	BitDepth16 BitDepth = 16
)

func (d BitDepth) Valid() bool {
	return d == BitDepth8 || d == BitDepth16
}

// DecodedImage is an in-memory raster produced by the decoder.
type DecodedImage struct {
	Field    string
	Width    int
	Height   int
	Channels int
	BitDepth BitDepth
	Pixels   image.Image
}
