package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/remoteid-mesh/internal/alias"
	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

const aliasesDisabled = "aliases require the database"

// setAliasRequest is the body of PUT /aliases/{mac}.
type setAliasRequest struct {
	Alias string `json:"alias"`
}

func (s *Server) handleListAliases(w http.ResponseWriter, _ *http.Request) {
	if s.aliases == nil {
		writeUnavailable(w, aliasesDisabled)
		return
	}
	list := s.aliases.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"aliases": list,
		"count":   len(list),
	})
}

// handleSetAlias creates or replaces the alias for a MAC address.
func (s *Server) handleSetAlias(w http.ResponseWriter, r *http.Request) {
	if s.aliases == nil {
		writeUnavailable(w, aliasesDisabled)
		return
	}

	var req setAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	a, err := s.aliases.Set(r.Context(), chi.URLParam(r, "mac"), req.Alias)
	if err != nil {
		s.writeAliasError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAlias(w http.ResponseWriter, r *http.Request) {
	if s.aliases == nil {
		writeUnavailable(w, aliasesDisabled)
		return
	}
	if err := s.aliases.Delete(r.Context(), chi.URLParam(r, "mac")); err != nil {
		s.writeAliasError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeAliasError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, remoteid.ErrInvalidAddress):
		writeBadRequest(w, "invalid MAC address")
	case errors.Is(err, alias.ErrInvalidAlias):
		writeValidationError(w, err.Error())
	case errors.Is(err, alias.ErrAliasNotFound):
		writeNotFound(w, "alias not found")
	default:
		s.logger.Error("alias operation failed", "error", err)
		writeInternalError(w, "alias operation failed")
	}
}
