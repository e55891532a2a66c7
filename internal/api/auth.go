package api

import (
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/switchplane/xmlcurld/internal/api/middleware"
)

type tokenRequest struct {
	Secret string `json:"secret"`
}

// handleAdminToken exchanges the deployment's shared secret for a
// bearer JWT. There is no per-operator identity: anyone holding the
// secret is the admin.
func (s *Server) handleAdminToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	presented, err := hex.DecodeString(req.Secret)
	if err != nil || subtle.ConstantTimeCompare(presented, s.adminSecret) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid secret")
		return
	}

	token, expiresAt, err := middleware.GenerateAdminToken(s.adminSecret, "admin")
	if err != nil {
		slog.Error("issuing admin token failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
	})
}
