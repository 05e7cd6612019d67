package api

import (
	"encoding/json"
	"net/http"
	"sort"
)

// handleGetSettings returns the runtime settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.settingsSvc.All(r.Context(), actorID(r))
	if err != nil {
		s.writeServiceError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// handleUpdateSettings applies a partial update. Keys are applied in sorted
// order; the first failure stops the update.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var incoming map[string]string
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	keys := make([]string, 0, len(incoming))
	for k := range incoming {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	actor := actorID(r)
	for _, k := range keys {
		if err := s.settingsSvc.Set(r.Context(), actor, k, incoming[k]); err != nil {
			s.writeServiceError(w, "update settings", err)
			return
		}
	}
	all, err := s.settingsSvc.All(r.Context(), actor)
	if err != nil {
		s.writeServiceError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}
