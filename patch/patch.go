// Package patch parses the "aiPatches" section of an adjustments document
// into typed patch descriptors.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kovidgoyal/go-parallel"
	"github.com/lumenraw/imagecore/internal/b64"
	"github.com/lumenraw/imagecore/mask"
)

var _ = fmt.Print

// ErrMissingField is returned when a visible patch lacks a required field.
var ErrMissingField = errors.New("patch: missing required field")

// Patch is a colored overlay layer blended onto a base image through its
// own mask.
type Patch struct {
	ID       string
	Name     string
	Invert   bool
	SubMasks []mask.SubMask
	// Color is the base64 encoded image carried in patchData.color.
	Color string
}

// Mask returns the mask definition used to composite p. Patches selected
// for compositing are always fully visible, fully opaque and carry no
// adjustments of their own.
func (p *Patch) Mask() *mask.Definition {
	return &mask.Definition{
		ID:       p.ID,
		Name:     p.Name,
		Visible:  true,
		Invert:   p.Invert,
		Opacity:  100,
		SubMasks: p.SubMasks,
	}
}

// ColorBytes decodes the base64 payload of the patch's color image.
func (p *Patch) ColorBytes() ([]byte, error) {
	b, err := b64.Decode(p.Color)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 color data in patch %q: %w", p.ID, err)
	}
	return b, nil
}

// Candidates returns the raw entries of the aiPatches array in doc. A nil
// result with no error means there is nothing to composite: doc is not an
// object, has no aiPatches field or the field is not an array. Only
// invalid JSON is an error.
func Candidates(doc []byte) ([]json.RawMessage, error) {
	if !json.Valid(doc) {
		return nil, fmt.Errorf("patch: adjustments document is not valid JSON")
	}
	var top map[string]json.RawMessage
	if json.Unmarshal(doc, &top) != nil {
		return nil, nil
	}
	raw, ok := top["aiPatches"]
	if !ok {
		return nil, nil
	}
	var ans []json.RawMessage
	if json.Unmarshal(raw, &ans) != nil {
		return nil, nil
	}
	return ans, nil
}

// IsVisible reports whether a raw patch entry takes part in compositing:
// its visible flag is not false (absent or non boolean counts as true) and
// patchData.color is a non-empty string.
func IsVisible(raw json.RawMessage) bool {
	var probe struct {
		Visible   json.RawMessage `json:"visible"`
		PatchData json.RawMessage `json:"patchData"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return false
	}
	if len(probe.Visible) > 0 {
		var v *bool
		if json.Unmarshal(probe.Visible, &v) == nil && v != nil && !*v {
			return false
		}
	}
	if len(probe.PatchData) == 0 {
		return false
	}
	var data struct {
		Color json.RawMessage `json:"color"`
	}
	if json.Unmarshal(probe.PatchData, &data) != nil || len(data.Color) == 0 {
		return false
	}
	var color string
	return json.Unmarshal(data.Color, &color) == nil && color != ""
}

// Visible filters candidates down to the visible entries, preserving
// their relative order. Entries are examined in parallel.
func Visible(candidates []json.RawMessage) (ans []json.RawMessage, err error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	keep := make([]bool, len(candidates))
	if err = parallel.Run_in_parallel_over_range(0, func(start, limit int) {
		for i := start; i < limit; i++ {
			keep[i] = IsVisible(candidates[i])
		}
	}, 0, len(candidates)); err != nil {
		return nil, err
	}
	for i, k := range keep {
		if k {
			ans = append(ans, candidates[i])
		}
	}
	return
}

// Parse decodes a single raw patch entry.
func Parse(raw json.RawMessage) (*Patch, error) {
	var w struct {
		ID        *string        `json:"id"`
		Name      *string        `json:"name"`
		Invert    bool           `json:"invert"`
		SubMasks  []mask.SubMask `json:"subMasks"`
		PatchData struct {
			Color string `json:"color"`
		} `json:"patchData"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("failed to deserialize patch: %w", err)
	}
	switch {
	case w.ID == nil:
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	case w.Name == nil:
		return nil, fmt.Errorf("%w: name (patch %q)", ErrMissingField, *w.ID)
	}
	return &Patch{ID: *w.ID, Name: *w.Name, Invert: w.Invert, SubMasks: w.SubMasks, Color: w.PatchData.Color}, nil
}

// ParseAll returns the visible patches of an adjustments document in
// document order. A malformed visible patch fails the whole call;
// invisible entries are never parsed.
func ParseAll(doc []byte) ([]*Patch, error) {
	candidates, err := Candidates(doc)
	if err != nil {
		return nil, err
	}
	visible, err := Visible(candidates)
	if err != nil {
		return nil, err
	}
	ans := make([]*Patch, 0, len(visible))
	for i, raw := range visible {
		p, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("visible patch %d: %w", i, err)
		}
		ans = append(ans, p)
	}
	return ans, nil
}
