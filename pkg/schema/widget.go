/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package schema models the config and action schemas nodes publish to the registry.
//
// A schema entry travels on the wire as a positional JSON tuple
// [kind, label, {options}, default]. Each kind decodes its options into its own
// struct, so consumers switch on the variant instead of probing loose maps.
// Kinds this package does not model decode into OpaqueOptions and option keys
// outside the typed structs are kept in Widget.Extra, so a schema always
// re-encodes to what the node sent.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrInvalidWidget = errors.New("invalid widget")
	ErrUnknownKind   = errors.New("unknown widget kind")
	ErrInvalidCount  = errors.New("count must be between 1 and 4")
	ErrUnbalanced    = errors.New("header/end entries are unbalanced")
	ErrInvalidAction = errors.New("invalid action definition")
)

// WidgetKind identifies a schema entry variant.
type WidgetKind string

const (
	KindSeparator WidgetKind = "separator"
	KindText      WidgetKind = "text"
	KindHeader    WidgetKind = "header"
	KindEnd       WidgetKind = "end"
	KindBool      WidgetKind = "bool"
	KindInt       WidgetKind = "int"
	KindFloat     WidgetKind = "float"
	KindDouble    WidgetKind = "double"
	KindString    WidgetKind = "string"
	KindKnob      WidgetKind = "knob"
	KindRadio     WidgetKind = "radio"
	KindDropdown  WidgetKind = "dropdown"
	KindListbox   WidgetKind = "listbox"
	KindPort      WidgetKind = "port"
	KindIPAddress WidgetKind = "ip_address"
	KindColour    WidgetKind = "colour"
)

// Options is the closed set of per-kind option structs.
type Options interface {
	optionsKind() []WidgetKind
	clone() Options
}

// EmptyOptions is used by kinds that take no options.
type EmptyOptions struct{}

type TextOptions struct {
	Wrap  int     `json:"wrap,omitempty"`
	Color *[3]int `json:"color,omitempty"`
}

type HeaderOptions struct {
	DefaultOpen bool `json:"default_open,omitempty"`
	Collapsible bool `json:"collapsible,omitempty"`
}

// NumberOptions covers int, float and double inputs and sliders.
type NumberOptions struct {
	Min              *float64 `json:"min,omitempty"`
	Max              *float64 `json:"max,omitempty"`
	Step             *float64 `json:"step,omitempty"`
	Count            int      `json:"count,omitempty"`
	VerticalSlider   bool     `json:"vertical_slider,omitempty"`
	HorizontalSlider bool     `json:"horizontal_slider,omitempty"`
}

type StringOptions struct {
	Multiline   bool   `json:"multiline,omitempty"`
	Hint        string `json:"hint,omitempty"`
	Password    bool   `json:"password,omitempty"`
	Uppercase   bool   `json:"uppercase,omitempty"`
	NoSpaces    bool   `json:"no_spaces,omitempty"`
	Decimal     bool   `json:"decimal,omitempty"`
	Hexadecimal bool   `json:"hexadecimal,omitempty"`
	Scientific  bool   `json:"scientific,omitempty"`
	Regex       string `json:"regex,omitempty"`
	MaxLength   *int   `json:"max_length,omitempty"`
}

type KnobOptions struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ChoiceOptions covers radio, dropdown and listbox.
type ChoiceOptions struct {
	Items      []string `json:"items,omitempty"`
	Horizontal bool     `json:"horizontal,omitempty"`
}

type PortOptions struct {
	Min       *int  `json:"min,omitempty"`
	Max       *int  `json:"max,omitempty"`
	Blacklist []int `json:"blacklist,omitempty"`
}

type ColourOptions struct {
	Format string `json:"format,omitempty"` // RGB, HSV or HEX
	Alpha  bool   `json:"alpha,omitempty"`
}

// OpaqueOptions carries the options of a kind this package does not model,
// verbatim.
type OpaqueOptions struct {
	Raw json.RawMessage
}

func (OpaqueOptions) optionsKind() []WidgetKind { return nil }

func (o OpaqueOptions) MarshalJSON() ([]byte, error) {
	if len(o.Raw) == 0 {
		return []byte("{}"), nil
	}

	return o.Raw, nil
}

func (o *OpaqueOptions) UnmarshalJSON(b []byte) error {
	o.Raw = append(json.RawMessage(nil), b...)

	return nil
}

func (EmptyOptions) optionsKind() []WidgetKind {
	return []WidgetKind{KindSeparator, KindEnd, KindBool, KindIPAddress}
}
func (TextOptions) optionsKind() []WidgetKind   { return []WidgetKind{KindText} }
func (HeaderOptions) optionsKind() []WidgetKind { return []WidgetKind{KindHeader} }
func (NumberOptions) optionsKind() []WidgetKind {
	return []WidgetKind{KindInt, KindFloat, KindDouble}
}
func (StringOptions) optionsKind() []WidgetKind { return []WidgetKind{KindString} }
func (KnobOptions) optionsKind() []WidgetKind   { return []WidgetKind{KindKnob} }
func (ChoiceOptions) optionsKind() []WidgetKind {
	return []WidgetKind{KindRadio, KindDropdown, KindListbox}
}
func (PortOptions) optionsKind() []WidgetKind   { return []WidgetKind{KindPort} }
func (ColourOptions) optionsKind() []WidgetKind { return []WidgetKind{KindColour} }

// clone returns a pointer to a deep copy; value options come back as pointers.

func (o OpaqueOptions) clone() Options {
	return &OpaqueOptions{Raw: append(json.RawMessage(nil), o.Raw...)}
}

func (EmptyOptions) clone() Options { return &EmptyOptions{} }

func (o TextOptions) clone() Options {
	o.Color = clonePtr(o.Color)
	return &o
}

func (o HeaderOptions) clone() Options { return &o }

func (o NumberOptions) clone() Options {
	o.Min, o.Max, o.Step = clonePtr(o.Min), clonePtr(o.Max), clonePtr(o.Step)
	return &o
}

func (o StringOptions) clone() Options {
	o.MaxLength = clonePtr(o.MaxLength)
	return &o
}

func (o KnobOptions) clone() Options {
	o.Min, o.Max = clonePtr(o.Min), clonePtr(o.Max)
	return &o
}

func (o ChoiceOptions) clone() Options {
	o.Items = cloneSlice(o.Items)
	return &o
}

func (o PortOptions) clone() Options {
	o.Min, o.Max = clonePtr(o.Min), clonePtr(o.Max)
	o.Blacklist = cloneSlice(o.Blacklist)

	return &o
}

func (o ColourOptions) clone() Options { return &o }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}

	return append(make([]T, 0, len(in)), in...)
}

// cloneValue deep-copies decoded JSON values; other values are returned as is.
func cloneValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}

		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}

		return out
	case []float64:
		return cloneSlice(x)
	case []int:
		return cloneSlice(x)
	case []string:
		return cloneSlice(x)
	case []bool:
		return cloneSlice(x)
	default:
		return v
	}
}

// Known reports whether the kind has a typed options struct.
func (k WidgetKind) Known() bool {
	_, err := newOptions(k)
	return err == nil
}

// newOptions returns a zero options value for kind.
func newOptions(kind WidgetKind) (Options, error) {
	switch kind {
	case KindSeparator, KindEnd, KindBool, KindIPAddress:
		return &EmptyOptions{}, nil
	case KindText:
		return &TextOptions{}, nil
	case KindHeader:
		return &HeaderOptions{}, nil
	case KindInt, KindFloat, KindDouble:
		return &NumberOptions{}, nil
	case KindString:
		return &StringOptions{}, nil
	case KindKnob:
		return &KnobOptions{}, nil
	case KindRadio, KindDropdown, KindListbox:
		return &ChoiceOptions{}, nil
	case KindPort:
		return &PortOptions{}, nil
	case KindColour:
		return &ColourOptions{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Widget is one schema entry.
type Widget struct {
	Kind    WidgetKind
	Label   string
	Options Options
	Default interface{}
	// Extra holds option keys the typed options struct does not declare.
	Extra map[string]json.RawMessage
}

// Clone returns a deep copy of the widget.
func (w Widget) Clone() Widget {
	out := w

	if w.Options != nil {
		out.Options = w.Options.clone()
	}

	out.Default = cloneValue(w.Default)

	if w.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(w.Extra))
		for k, v := range w.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}

	return out
}

// Configurable reports whether the widget produces a value in the config vector.
func (w Widget) Configurable() bool {
	switch w.Kind {
	case KindSeparator, KindText, KindHeader, KindEnd:
		return false
	default:
		return true
	}
}

// Validate checks the option constraints of a single widget. Opaque widgets
// are not examined.
func (w Widget) Validate() error {
	if _, opaque := w.Options.(*OpaqueOptions); opaque || !w.Kind.Known() {
		return nil
	}

	if w.Options != nil {
		ok := false

		for _, k := range w.Options.optionsKind() {
			if k == w.Kind {
				ok = true
				break
			}
		}

		if !ok {
			return fmt.Errorf("%w: %T options on %q widget", ErrInvalidWidget, w.Options, w.Kind)
		}
	}

	switch opts := w.Options.(type) {
	case *NumberOptions:
		return validateCount(w.Label, opts.Count)
	case NumberOptions:
		return validateCount(w.Label, opts.Count)
	case *ChoiceOptions:
		return validateChoice(w, opts.Items)
	case ChoiceOptions:
		return validateChoice(w, opts.Items)
	}

	return nil
}

func validateCount(label string, count int) error {
	if count != 0 && (count < 1 || count > 4) {
		return fmt.Errorf("%w: %q has count %d", ErrInvalidCount, label, count)
	}

	return nil
}

func validateChoice(w Widget, items []string) error {
	if len(items) == 0 && w.Default != nil && w.Default != "" {
		return fmt.Errorf("%w: %q has a default but no items", ErrInvalidWidget, w.Label)
	}

	return nil
}

// MarshalJSON encodes the widget as [kind, label, options, default].
func (w Widget) MarshalJSON() ([]byte, error) {
	var opts interface{} = w.Options
	if w.Options == nil {
		opts = &EmptyOptions{}
	}

	if len(w.Extra) > 0 {
		merged, err := mergeExtra(opts, w.Extra)
		if err != nil {
			return nil, err
		}

		opts = merged
	}

	return json.Marshal([]interface{}{w.Kind, w.Label, opts, w.Default})
}

// mergeExtra adds extra keys to the encoded options; typed fields win.
func mergeExtra(opts interface{}, extra map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]json.RawMessage, len(extra))
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, fmt.Errorf("%w: options are not an object: %w", ErrInvalidWidget, err)
	}

	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}

	return merged, nil
}

// extraKeys returns the object keys in raw that opts does not declare.
func extraKeys(opts Options, raw json.RawMessage) map[string]json.RawMessage {
	if _, opaque := opts.(*OpaqueOptions); opaque {
		return nil
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil
	}

	t := reflect.TypeOf(opts)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		delete(all, name)
	}

	if len(all) == 0 {
		return nil
	}

	return all
}

// UnmarshalJSON decodes a positional widget tuple. Options and default may be
// omitted. An unknown kind keeps its options as OpaqueOptions.
func (w *Widget) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWidget, err)
	}

	if len(parts) < 2 || len(parts) > 4 {
		return fmt.Errorf("%w: expected 2-4 elements, got %d", ErrInvalidWidget, len(parts))
	}

	var kind WidgetKind
	if err := json.Unmarshal(parts[0], &kind); err != nil {
		return fmt.Errorf("%w: kind: %w", ErrInvalidWidget, err)
	}

	opts, err := newOptions(kind)
	if err != nil {
		opts = &OpaqueOptions{}
	}

	var label *string
	if err := json.Unmarshal(parts[1], &label); err != nil {
		return fmt.Errorf("%w: label: %w", ErrInvalidWidget, err)
	}

	var extra map[string]json.RawMessage

	if len(parts) > 2 && !isNull(parts[2]) {
		if err := json.Unmarshal(parts[2], opts); err != nil {
			return fmt.Errorf("%w: options for %q: %w", ErrInvalidWidget, kind, err)
		}

		extra = extraKeys(opts, parts[2])
	}

	var def interface{}
	if len(parts) > 3 {
		if err := json.Unmarshal(parts[3], &def); err != nil {
			return fmt.Errorf("%w: default: %w", ErrInvalidWidget, err)
		}
	}

	w.Kind = kind
	w.Options = opts
	w.Default = def
	w.Extra = extra
	w.Label = ""

	if label != nil {
		w.Label = *label
	}

	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
