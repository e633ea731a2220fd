/*
 * Copyright 2025 Teleolink Robotics.
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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/teleolink/coordinator/pkg/coordinator"
)

// forcePairRequest is the body of POST /api/connections/{id}/force-pair.
type forcePairRequest struct {
	PairWith string `json:"pair_with"`
}

func (s *APIServer) handleListConnections(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, s.coordinator.Connections(), s.logger)
}

func (s *APIServer) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, err := s.coordinator.Connection(id)
	if err != nil {
		if errors.Is(err, coordinator.ErrNotFound) {
			writeError(w, "Client not found", http.StatusNotFound)
			return
		}

		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSONResponse(w, detail, s.logger)
}

func (s *APIServer) handleForcePair(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req forcePairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PairWith == "" {
		writeError(w, "Invalid pairing client selected", http.StatusBadRequest)
		return
	}

	if err := s.coordinator.ForcePair(id, req.PairWith); err != nil {
		switch {
		case errors.Is(err, coordinator.ErrNotFound):
			writeError(w, "Client not found", http.StatusNotFound)
		case errors.Is(err, coordinator.ErrAlreadyPaired):
			writeError(w, "Client is already paired", http.StatusConflict)
		case errors.Is(err, coordinator.ErrSelfPair):
			writeError(w, "Cannot pair a client with itself", http.StatusBadRequest)
		default:
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}

		return
	}

	writeJSONResponse(w, map[string]string{"status": "paired"}, s.logger)
}

func (s *APIServer) handleCloseConnection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.coordinator.CloseConnection(id); err != nil {
		if errors.Is(err, coordinator.ErrNotFound) {
			writeError(w, "Client not found", http.StatusNotFound)
			return
		}

		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSONResponse(w, map[string]string{"status": "closed"}, s.logger)
}
