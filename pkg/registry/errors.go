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

package registry

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks a malformed control-plane request. No state is mutated.
	ErrValidation = errors.New("validation error")
	// ErrUnknownNode marks a request for a node_id that is not in the table.
	ErrUnknownNode = errors.New("unknown node")
)

// ValidationError lists every missing or invalid field of a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (*ValidationError) Is(target error) bool {
	return target == ErrValidation
}
