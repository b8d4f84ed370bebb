// Package format converts routes to and from files. Two JSON generations
// are read: the legacy flat format (v1) and the segmented format (v2). Both
// decode into ImportedRoute; nothing format specific reaches the engine.
package format

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	v1 "github.com/trailmark/routeplanner/internal/format/v1"
	v2 "github.com/trailmark/routeplanner/internal/format/v2"
	"github.com/trailmark/routeplanner/pkg/core"
)

var (
	// ErrUnsupportedVersion is returned for documents newer than this build.
	ErrUnsupportedVersion = errors.New("unsupported document version")
	// ErrInvalidDocument is returned when the input is not a route document.
	ErrInvalidDocument = errors.New("invalid route document")
)

// ImportedRoute is a decoded route before it is added to a store. Exactly one
// of Segments or Flat is set: segmented files yield Segments, legacy files
// yield Flat and need a structural recompute.
type ImportedRoute struct {
	Attributes core.Attributes
	Segments   []*core.Segment
	Flat       []core.ModedPoint
}

var gzipMagic = []byte{0x1f, 0x8b}

// Decode reads a route document. Gzip-compressed input is detected and
// unwrapped.
func Decode(r io.Reader) ([]ImportedRoute, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(2); err == nil && bytes.Equal(head, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		return decode(gz)
	}
	return decode(br)
}

func decode(r io.Reader) ([]ImportedRoute, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	switch header.Version {
	case 0, 1:
		return decodeV1(data)
	case v2.Version:
		return decodeV2(data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}
}

func decodeV1(data []byte) ([]ImportedRoute, error) {
	var doc v1.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	out := make([]ImportedRoute, 0, len(doc.Routes))
	for _, r := range doc.Routes {
		flat, err := r.Flat()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		out = append(out, ImportedRoute{Attributes: r.Attributes(), Flat: flat})
	}
	return out, nil
}

func decodeV2(data []byte) ([]ImportedRoute, error) {
	var doc v2.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	out := make([]ImportedRoute, 0, len(doc.Routes))
	for _, r := range doc.Routes {
		segs, err := r.ToCore()
		if err != nil {
			return nil, fmt.Errorf("%w: route %s: %w", ErrInvalidDocument, r.ID, err)
		}
		out = append(out, ImportedRoute{
			Attributes: r.Attributes.WithDefaults(),
			Segments:   segs,
		})
	}
	return out, nil
}
