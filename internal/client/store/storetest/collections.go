package storetest

import (
	"encoding/json"
	"net/http"
)

func (s *Server) requireSuperuser(w http.ResponseWriter, r *http.Request) bool {
	if s.authLocked(r) == nil {
		writeError(w, http.StatusUnauthorized, "The request requires valid record authorization token.", nil)
		return false
	}
	return true
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.requireSuperuser(w, r) {
		return
	}
	var cd collectionDef
	if err := json.NewDecoder(r.Body).Decode(&cd); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data due to invalid formatting.", nil)
		return
	}
	if msg, data := s.addCollectionLocked(cd); msg != "" {
		writeError(w, http.StatusBadRequest, msg, data)
		return
	}
	writeJSON(w, http.StatusOK, s.findLocked(cd.Name).def)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.requireSuperuser(w, r) {
		return
	}
	c := s.findLocked(r.PathValue("collection"))
	if c == nil {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	writeJSON(w, http.StatusOK, c.def)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.requireSuperuser(w, r) {
		return
	}
	c := s.findLocked(r.PathValue("collection"))
	if c == nil {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	for _, other := range s.collections {
		if other == c {
			continue
		}
		for _, f := range other.def.Fields {
			if f.Type == "relation" && (f.CollectionID == c.def.ID || f.CollectionID == c.def.Name) {
				writeError(w, http.StatusBadRequest, "The collection has external relation field references.", nil)
				return
			}
		}
	}

	for _, rec := range c.records {
		s.dropFilesLocked(c, rec)
	}
	kept := s.collections[:0]
	for _, other := range s.collections {
		if other != c {
			kept = append(kept, other)
		}
	}
	s.collections = kept
	w.WriteHeader(http.StatusNoContent)
}
