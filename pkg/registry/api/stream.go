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

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	nrhttp "github.com/carverauto/noderadar/pkg/http"
	"github.com/carverauto/noderadar/pkg/models"
)

const (
	subscriberBuffer = 8
	writeWait        = 5 * time.Second
)

// StreamMessage is one websocket frame: "snapshot" carries the node list,
// "ping" keeps idle connections open.
type StreamMessage struct {
	Type      string         `json:"type"`
	Data      []*models.Node `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Broadcast hands a snapshot to every subscriber. A subscriber whose buffer is
// full is dropped rather than slowing the caller.
func (s *APIServer) Broadcast(nodes []*models.Node) {
	msg := StreamMessage{Type: "snapshot", Data: nodes, Timestamp: time.Now()}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
			s.logger.Warn().Str("subscriber", id).Msg("Dropping slow stream subscriber")
			close(ch)
			delete(s.subscribers, id)
		}
	}
}

// Subscribers reports the number of open stream connections.
func (s *APIServer) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	return len(s.subscribers)
}

func (s *APIServer) subscribe() (string, chan StreamMessage) {
	id := uuid.NewString()
	ch := make(chan StreamMessage, subscriberBuffer)

	s.subMu.Lock()
	s.subscribers[id] = ch
	s.subMu.Unlock()

	return id, ch
}

func (s *APIServer) unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

func (s *APIServer) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

func (s *APIServer) handleStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || nrhttp.OriginAllowed(s.corsConfig.AllowedOrigins, origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to upgrade to WebSocket")
		return
	}

	defer func() { _ = conn.Close() }()

	id, ch := s.subscribe()
	defer s.unsubscribe(id)

	s.logger.Info().Str("subscriber", id).Str("remote_addr", r.RemoteAddr).Msg("Stream subscriber connected")

	// initial state so a client does not wait for the next change
	if err := s.writeStream(conn, StreamMessage{Type: "snapshot", Data: s.registry.Nodes(), Timestamp: time.Now()}); err != nil {
		return
	}

	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.pingEvery)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case msg, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))

				return
			}

			if err := s.writeStream(conn, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := s.writeStream(conn, StreamMessage{Type: "ping", Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

func (s *APIServer) writeStream(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug().Err(err).Msg("Stream write failed")
		return err
	}

	return nil
}
