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

// Package kvnats implements kv.KVStore on a NATS JetStream KeyValue bucket.
package kvnats

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/noderadar/pkg/config/kv"
)

const bucketSetupTimeout = 5 * time.Second

type Client struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	bucket string
	owned  bool
}

var _ kv.KVStore = (*Client)(nil)

// New binds to bucket, creating it if it does not exist yet. The caller keeps
// ownership of nc.
func New(ctx context.Context, nc *nats.Conn, bucket string) (*Client, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, bucketSetupTimeout)
	defer cancel()

	store, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
	if err != nil {
		return nil, err
	}

	return &Client{nc: nc, kv: store, bucket: bucket}, nil
}

// Connect dials url and binds to bucket. The returned client owns the connection.
func Connect(ctx context.Context, url, bucket string) (*Client, error) {
	nc, err := nats.Connect(url, nats.Name("noderadar-config"))
	if err != nil {
		return nil, err
	}

	c, err := New(ctx, nc, bucket)
	if err != nil {
		nc.Close()
		return nil, err
	}

	c.owned = true

	return c, nil
}

func (c *Client) Bucket() string { return c.bucket }

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return entry.Value(), true, nil
}

// Put stores value. Per-key TTLs are not supported by the bucket; ttl is ignored.
func (c *Client) Put(ctx context.Context, key string, value []byte, _ time.Duration) error {
	_, err := c.kv.Put(ctx, key, value)
	return err
}

func (c *Client) Create(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if _, err := c.kv.Create(ctx, key, value); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return kv.ErrKeyExists
		}

		return err
	}

	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.kv.Delete(ctx, key)
}

func (c *Client) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	watcher, err := c.kv.Watch(ctx, key, jetstream.UpdatesOnly())
	if err != nil {
		return nil, err
	}

	ch := make(chan []byte, 1)

	go func() {
		defer close(ch)
		defer func() { _ = watcher.Stop() }()

		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-watcher.Updates():
				if !ok {
					return
				}

				if update == nil {
					continue
				}

				var value []byte

				if op := update.Operation(); op != jetstream.KeyValueDelete && op != jetstream.KeyValuePurge {
					value = update.Value()
				}

				select {
				case ch <- value:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// Close releases the connection when the client dialed it itself.
func (c *Client) Close() error {
	if c.owned {
		c.nc.Close()
	}

	return nil
}
