// Package asset models the test images the pipeline operates on: an image
// file plus a side-car JSON metadata record sharing its base name.
package asset

import (
	"encoding/json"
	"os"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// MetadataPrefix namespaces the asset metadata when it is baked into image
// file attributes.
const MetadataPrefix = "lxmpicturelab"

// Type distinguishes how an asset's image was produced.
type Type string

const (
	// TypeCGI marks a computer-generated image.
	TypeCGI Type = "cgi"

	// TypePlate marks a real-world captured photographic image.
	TypePlate Type = "plate"
)

// Valid reports whether t is a known asset type.
func (t Type) Valid() bool {
	return t == TypeCGI || t == TypePlate
}

// PrimaryColor is the dominant color family of an asset's image. Used to
// sort assets visually when assembling mosaics.
type PrimaryColor string

const (
	ColorRed     PrimaryColor = "red"
	ColorOrange  PrimaryColor = "orange"
	ColorYellow  PrimaryColor = "yellow"
	ColorGreen   PrimaryColor = "green"
	ColorCyan    PrimaryColor = "cyan"
	ColorBlue    PrimaryColor = "blue"
	ColorPurple  PrimaryColor = "purple"
	ColorPink    PrimaryColor = "pink"
	ColorWhite   PrimaryColor = "white"
	ColorGrey    PrimaryColor = "grey"
	ColorBlack   PrimaryColor = "black"
	ColorRainbow PrimaryColor = "rainbow"
)

var primaryColors = map[PrimaryColor]struct{}{
	ColorRed: {}, ColorOrange: {}, ColorYellow: {}, ColorGreen: {},
	ColorCyan: {}, ColorBlue: {}, ColorPurple: {}, ColorPink: {},
	ColorWhite: {}, ColorGrey: {}, ColorBlack: {}, ColorRainbow: {},
}

// Valid reports whether c is a known primary color.
func (c PrimaryColor) Valid() bool {
	_, ok := primaryColors[c]
	return ok
}

// Metadata is the side-car record stored next to every asset image.
type Metadata struct {
	Source       string       `json:"source"`
	Authors      []string     `json:"authors"`
	References   []string     `json:"references"`
	CaptureGamut string       `json:"capture_gamut"`
	PrimaryColor PrimaryColor `json:"primary_color"`
	Type         Type         `json:"type"`
	Context      string       `json:"context,omitempty"`
	License      string       `json:"license,omitempty"`
}

// Validate checks the metadata is complete enough to publish.
func (m *Metadata) Validate() error {
	if m.Source == "" {
		return errors.New(errors.ErrCodeInvalidMetadata, "source is required")
	}
	if len(m.Authors) == 0 {
		return errors.New(errors.ErrCodeInvalidMetadata, "at least one author is required")
	}
	if m.CaptureGamut == "" {
		return errors.New(errors.ErrCodeInvalidMetadata, "capture_gamut is required")
	}
	if !m.Type.Valid() {
		return errors.New(errors.ErrCodeInvalidMetadata,
			"unknown type %q, expected %q or %q", m.Type, TypeCGI, TypePlate)
	}
	if !m.PrimaryColor.Valid() {
		return errors.New(errors.ErrCodeInvalidMetadata, "unknown primary_color %q", m.PrimaryColor)
	}
	return nil
}

// ReadMetadata loads and parses a side-car JSON file.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read metadata file %q", path)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "cannot parse metadata file %q", path)
	}
	return &m, nil
}

// Write serializes the metadata to path as indented JSON.
func (m *Metadata) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ToMap returns the metadata as an ordered key/value list suitable for
// baking into image attributes. Values are JSON-encoded.
func (m *Metadata) ToMap() ([][2]string, error) {
	pairs := [][2]string{}
	fields := []struct {
		name  string
		value any
	}{
		{"source", m.Source},
		{"authors", m.Authors},
		{"references", m.References},
		{"capture_gamut", m.CaptureGamut},
		{"primary_color", m.PrimaryColor},
		{"type", m.Type},
		{"context", m.Context},
		{"license", m.License},
	}
	for _, f := range fields {
		encoded, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{f.name, string(encoded)})
	}
	return pairs, nil
}
