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
	"context"
	"encoding/json"

	cfgkv "github.com/carverauto/noderadar/pkg/config/kv"
	"github.com/carverauto/noderadar/pkg/logger"
)

// MergeOverlayBytes applies a JSON document onto dst. Fields absent from data keep
// their current values.
func MergeOverlayBytes(dst interface{}, data []byte) error {
	return json.Unmarshal(data, dst)
}

// StartKVWatchOverlay overlays the current value of key onto dst, then keeps
// applying updates until ctx is done. onChange runs after every successful merge
// on the watch goroutine. The store is closed when the watch ends.
func StartKVWatchOverlay(
	ctx context.Context, kvStore cfgkv.KVStore, key string, dst interface{}, log logger.Logger, onChange func(),
) {
	if kvStore == nil || key == "" || dst == nil {
		return
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	apply := func(data []byte) {
		if err := MergeOverlayBytes(dst, data); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed KV overlay")
			return
		}

		log.Info().Str("key", key).Msg("Applied KV config overlay")

		if onChange != nil {
			onChange()
		}
	}

	go func() {
		defer func() { _ = kvStore.Close() }()

		if data, found, err := kvStore.Get(ctx, key); err == nil && found && len(data) > 0 {
			apply(data)
		}

		ch, err := kvStore.Watch(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("KV watch failed")
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-ch:
				if !ok {
					return
				}

				if len(data) == 0 {
					log.Debug().Str("key", key).Msg("KV delete or empty update")
					continue
				}

				apply(data)
			}
		}
	}()
}
