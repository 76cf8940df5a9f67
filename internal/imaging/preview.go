// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package imaging builds compact previews of attached photos.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	// Register the decoders for the formats users actually attach.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
)

// =============================================================================
// PREVIEW ENCODING
// =============================================================================

const (
	// MaxPreviewWidth is the widest a stored preview gets. Images narrower
	// than this are never upscaled.
	MaxPreviewWidth = 200

	// PreviewJPEGQuality trades fidelity for transcript size.
	PreviewJPEGQuality = 50

	// MaxInputBytes caps how much image data EncodePreview will read,
	// matching the upload limit enforced by the backend.
	MaxInputBytes = 10 << 20
)

var (
	// ErrUnsupportedFormat indicates the input is not a decodable image.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrImageTooLarge indicates the input exceeds MaxInputBytes.
	ErrImageTooLarge = errors.New("image exceeds maximum size")

	// ErrNotDataURL indicates a string is not a base64 image data URL.
	ErrNotDataURL = errors.New("not an image data URL")
)

// Preview is a small JPEG rendition of an attached photo, stored inline
// with the conversation as a data URL.
type Preview struct {
	DataURL string `json:"dataURL"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// EncodePreview decodes an image (JPEG, PNG, GIF or WebP), scales it down
// to at most MaxPreviewWidth preserving aspect ratio, and re-encodes it as
// a JPEG data URL. Callers treat a failed preview as "no preview"; the
// submission flow never aborts because of one.
func EncodePreview(r io.Reader) (*Preview, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxInputBytes {
		return nil, ErrImageTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, ErrUnsupportedFormat
	}

	dstW := srcW
	if dstW > MaxPreviewWidth {
		dstW = MaxPreviewWidth
	}
	dstH := (srcH*dstW + srcW/2) / srcW
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: PreviewJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &Preview{
		DataURL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   dstW,
		Height:  dstH,
	}, nil
}

// EncodePreviewBytes is EncodePreview over an in-memory image.
func EncodePreviewBytes(data []byte) (*Preview, error) {
	return EncodePreview(bytes.NewReader(data))
}

// =============================================================================
// DATA URL DECODING
// =============================================================================

// DecodeDataURL splits an image data URL into its raw bytes and MIME type.
func DecodeDataURL(s string) ([]byte, string, error) {
	if !strings.HasPrefix(s, "data:image/") {
		return nil, "", ErrNotDataURL
	}
	rest := strings.TrimPrefix(s, "data:")
	idx := strings.Index(rest, ";base64,")
	if idx < 0 {
		return nil, "", ErrNotDataURL
	}
	mimeType := rest[:idx]
	payload := rest[idx+len(";base64,"):]

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	return data, mimeType, nil
}
