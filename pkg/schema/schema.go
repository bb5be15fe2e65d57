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

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ConfigSchema is the ordered list of widgets describing a node's settings.
type ConfigSchema []Widget

// Validate checks every widget and that header/end entries nest correctly.
func (s ConfigSchema) Validate() error {
	return validateWidgets(s)
}

// Defaults returns the positional config vector built from the default values
// of configurable widgets.
func (s ConfigSchema) Defaults() []interface{} {
	out := make([]interface{}, 0, len(s))

	for _, w := range s {
		if w.Configurable() {
			out = append(out, w.Default)
		}
	}

	return out
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s ConfigSchema) Clone() ConfigSchema {
	return cloneWidgets(s)
}

func cloneWidgets(in []Widget) []Widget {
	if in == nil {
		return nil
	}

	out := make([]Widget, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}

	return out
}

func validateWidgets(widgets []Widget) error {
	depth := 0

	for i, w := range widgets {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}

		switch w.Kind {
		case KindHeader:
			depth++
		case KindEnd:
			depth--
			if depth < 0 {
				return fmt.Errorf("entry %d: %w", i, ErrUnbalanced)
			}
		}
	}

	return nil
}

// ActionOptions controls how an action group is presented.
type ActionOptions struct {
	DefaultOpen bool `json:"default_open,omitempty"`
}

// ActionDef is one named action: optional parameter widgets and a trigger button.
type ActionDef struct {
	Options ActionOptions
	Widgets []Widget
	Button  string
}

// MarshalJSON encodes [options, "button"] or [options, [widget..., "button"]].
func (a ActionDef) MarshalJSON() ([]byte, error) {
	if len(a.Widgets) == 0 {
		return json.Marshal([]interface{}{a.Options, a.Button})
	}

	body := make([]interface{}, 0, len(a.Widgets)+1)
	for _, w := range a.Widgets {
		body = append(body, w)
	}

	body = append(body, a.Button)

	return json.Marshal([]interface{}{a.Options, body})
}

// UnmarshalJSON decodes the two-element action tuple.
func (a *ActionDef) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}

	if len(parts) != 2 {
		return fmt.Errorf("%w: expected 2 elements, got %d", ErrInvalidAction, len(parts))
	}

	var def ActionDef

	if !isNull(parts[0]) {
		if err := json.Unmarshal(parts[0], &def.Options); err != nil {
			return fmt.Errorf("%w: options: %w", ErrInvalidAction, err)
		}
	}

	body := bytes.TrimSpace(parts[1])

	switch {
	case len(body) > 0 && body[0] == '"':
		if err := json.Unmarshal(body, &def.Button); err != nil {
			return fmt.Errorf("%w: button: %w", ErrInvalidAction, err)
		}
	case len(body) > 0 && body[0] == '[':
		if err := def.decodeBody(body); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: body must be a string or a list", ErrInvalidAction)
	}

	*a = def

	return nil
}

func (a *ActionDef) decodeBody(body []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}

	for i, item := range items {
		item = bytes.TrimSpace(item)

		if len(item) > 0 && item[0] == '"' {
			if i != len(items)-1 {
				return fmt.Errorf("%w: button label must be the last element", ErrInvalidAction)
			}

			if err := json.Unmarshal(item, &a.Button); err != nil {
				return fmt.Errorf("%w: button: %w", ErrInvalidAction, err)
			}

			continue
		}

		var w Widget
		if err := json.Unmarshal(item, &w); err != nil {
			return err
		}

		a.Widgets = append(a.Widgets, w)
	}

	return nil
}

// ActionSchema maps an action name to its definition.
type ActionSchema map[string]ActionDef

// Validate checks the widgets of every action.
func (s ActionSchema) Validate() error {
	for _, name := range s.Names() {
		if err := validateWidgets(s[name].Widgets); err != nil {
			return fmt.Errorf("action %q: %w", name, err)
		}
	}

	return nil
}

// Names returns action names in sorted order.
func (s ActionSchema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Clone deep-copies the map and each action's widgets. A nil widget list stays nil.
func (s ActionSchema) Clone() ActionSchema {
	if s == nil {
		return nil
	}

	out := make(ActionSchema, len(s))

	for name, def := range s {
		def.Widgets = cloneWidgets(def.Widgets)
		out[name] = def
	}

	return out
}
