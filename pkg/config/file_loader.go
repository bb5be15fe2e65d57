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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ConfigDirEnv names the directory relative config paths are resolved against.
const ConfigDirEnv = "NODERADAR_CONFIG_DIR"

var (
	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	errEmptyConfig    = errors.New("config file is empty")
)

// FileConfigLoader reads a JSON document from disk. Relative paths resolve
// against $NODERADAR_CONFIG_DIR when it is set.
type FileConfigLoader struct{}

// ResolvePath returns the path the loader will read.
func (*FileConfigLoader) ResolvePath(path string) string {
	dir := os.Getenv(ConfigDirEnv)
	if dir == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}

func (f *FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	resolved := f.ResolvePath(path)

	data, err := os.ReadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, resolved)
	}

	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", resolved, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s", errEmptyConfig, resolved)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal JSON from '%s': %w", resolved, err)
	}

	return nil
}
