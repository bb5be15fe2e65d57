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

	"github.com/gorilla/mux"

	"github.com/carverauto/noderadar/pkg/models"
)

type outboundRequest struct {
	Config  []interface{}   `json:"config,omitempty"`
	Actions []models.Action `json:"actions,omitempty"`
}

type expirySetting struct {
	NodeExpiry models.Duration `json:"node_expiry"`
}

func (s *APIServer) getNodes(w http.ResponseWriter, _ *http.Request) {
	s.encodeJSONResponse(w, s.registry.Nodes())
}

func (s *APIServer) getNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	node, ok := s.registry.Node(id)
	if !ok {
		writeError(w, "Node not found", http.StatusNotFound)
		return
	}

	s.encodeJSONResponse(w, node)
}

func (s *APIServer) postOutbound(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req outboundRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Config) == 0 && len(req.Actions) == 0 {
		writeError(w, "config or actions required", http.StatusBadRequest)
		return
	}

	if s.outbound != nil {
		s.outbound.Push(id, req.Config, req.Actions)
	} else {
		s.registry.AddOutboundMessages(r.Context(), id, req.Config, req.Actions)
	}

	s.encodeJSONStatus(w, http.StatusAccepted, map[string]interface{}{"node_id": id, "queued_actions": len(req.Actions)})
}

func (s *APIServer) getRemote(w http.ResponseWriter, _ *http.Request) {
	remote := s.registry.RemoteData()
	if remote == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.encodeJSONResponse(w, remote)
}

func (s *APIServer) getExpiry(w http.ResponseWriter, _ *http.Request) {
	s.encodeJSONResponse(w, expirySetting{NodeExpiry: models.Duration(s.registry.NodeExpiryTimeout())})
}

func (s *APIServer) putExpiry(w http.ResponseWriter, r *http.Request) {
	var req expirySetting
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.registry.SetNodeExpiryTimeout(time.Duration(req.NodeExpiry)); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.encodeJSONResponse(w, expirySetting{NodeExpiry: models.Duration(s.registry.NodeExpiryTimeout())})
}
