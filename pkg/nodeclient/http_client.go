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

package nodeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/version"
)

var (
	// ErrRegistryUnavailable covers transport failures and non-200 answers.
	ErrRegistryUnavailable = errors.New("registry unavailable")
	// ErrRegistryRejected means the registry answered with message_type "error".
	ErrRegistryRejected = errors.New("registry rejected request")
)

const (
	DefaultRegistryURL = "http://localhost:10081"
	defaultHTTPTimeout = 100 * time.Millisecond
)

// HTTPRegistryClient posts JSON to /connect, /disconnect and /data.
type HTTPRegistryClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRegistryClient(baseURL string, timeout time.Duration) *HTTPRegistryClient {
	if baseURL == "" {
		baseURL = DefaultRegistryURL
	}

	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &HTTPRegistryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPRegistryClient) Connect(ctx context.Context, req *models.ConnectRequest) (*models.ConnectResponse, error) {
	var resp models.ConnectResponse
	if err := h.post(ctx, "/connect", req, &resp); err != nil {
		return nil, err
	}

	if resp.MessageType != models.MessageTypeSuccess {
		return &resp, fmt.Errorf("%w: %s", ErrRegistryRejected, resp.Message)
	}

	return &resp, nil
}

func (h *HTTPRegistryClient) Disconnect(ctx context.Context, req *models.DisconnectRequest) (*models.DisconnectResponse, error) {
	var resp models.DisconnectResponse
	if err := h.post(ctx, "/disconnect", req, &resp); err != nil {
		return nil, err
	}

	if resp.MessageType == models.MessageTypeError {
		return &resp, fmt.Errorf("%w: %s", ErrRegistryRejected, resp.Message)
	}

	return &resp, nil
}

func (h *HTTPRegistryClient) Heartbeat(ctx context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error) {
	var resp models.HeartbeatResponse
	if err := h.post(ctx, "/data", req, &resp); err != nil {
		return nil, err
	}

	if resp.MessageType == models.MessageTypeError {
		return &resp, fmt.Errorf("%w: %s", ErrRegistryRejected, resp.Message)
	}

	return &resp, nil
}

func (h *HTTPRegistryClient) post(ctx context.Context, path string, body, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("nodeclient"))

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrRegistryUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrRegistryUnavailable, path, err)
	}

	return nil
}
