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
	"errors"
	"net/http"

	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/registry"
)

// Control routes always answer 200; failures are reported in message_type.

func (s *APIServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req models.ConnectRequest

	if err := decodeBody(w, r, &req); err != nil {
		s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Malformed connect request")
		s.encodeJSONResponse(w, models.ConnectResponse{MessageType: models.MessageTypeError, Message: "invalid JSON: " + err.Error()})

		return
	}

	res, err := s.registry.Connect(r.Context(), &req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Connect rejected")
		s.encodeJSONResponse(w, models.ConnectResponse{MessageType: models.MessageTypeError, Message: err.Error()})

		return
	}

	s.encodeJSONResponse(w, models.ConnectResponse{
		MessageType: models.MessageTypeSuccess,
		NodeID:      res.NodeID,
		RemotePorts: res.RemotePorts,
	})
}

func (s *APIServer) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req models.DisconnectRequest

	if err := decodeBody(w, r, &req); err != nil {
		s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Malformed disconnect request")
		s.encodeJSONResponse(w, models.DisconnectResponse{MessageType: models.MessageTypeError, Message: "invalid JSON: " + err.Error()})

		return
	}

	if err := s.registry.Disconnect(r.Context(), req.NodeID); err != nil {
		s.logger.Warn().Err(err).Str("node_id", req.NodeID).Msg("Disconnect rejected")
		s.encodeJSONResponse(w, models.DisconnectResponse{MessageType: models.MessageTypeError, Message: err.Error()})

		return
	}

	s.encodeJSONResponse(w, models.DisconnectResponse{MessageType: models.MessageTypeSuccess})
}

func (s *APIServer) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req models.HeartbeatRequest

	if err := decodeBody(w, r, &req); err != nil {
		s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Malformed heartbeat")
		s.encodeJSONResponse(w, models.HeartbeatResponse{MessageType: models.MessageTypeError, Message: "invalid JSON: " + err.Error()})

		return
	}

	res, err := s.registry.Heartbeat(r.Context(), &req)
	if err != nil {
		resp := models.HeartbeatResponse{MessageType: models.MessageTypeError, NodeID: req.NodeID, Message: err.Error()}

		var verr *registry.ValidationError
		if errors.As(err, &verr) {
			resp.Message = "missing required fields"
			resp.Errors = verr.Fields
		}

		s.logger.Debug().Err(err).Str("node_id", req.NodeID).Msg("Heartbeat rejected")
		s.encodeJSONResponse(w, resp)

		return
	}

	s.encodeJSONResponse(w, models.HeartbeatResponse{
		MessageType:  models.MessageTypeHeartbeatResponse,
		NodeID:       res.NodeID,
		RemotePorts:  res.RemotePorts,
		ConfigUpdate: res.ConfigUpdate,
		Actions:      res.Actions,
		Outbound:     res.HasOutbound,
	})
}
