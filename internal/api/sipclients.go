package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/switchplane/xmlcurld/internal/store"
)

type sipClientResponse struct {
	UserID            string `json:"user_id"`
	DisplayName       string `json:"display_name"`
	EnableVoicemail   bool   `json:"enable_voicemail"`
	VoicemailPIN      string `json:"voicemail_pin,omitempty"`
	VoicemailEmail    string `json:"voicemail_email,omitempty"`
	NoAnswerTimeout   int    `json:"no_answer_timeout"`
	LocalCallerIDName string `json:"local_caller_id_name,omitempty"`
}

func sipClientToResponse(c store.SipClient) sipClientResponse {
	return sipClientResponse{
		UserID:            c.UserID,
		DisplayName:       c.DisplayName,
		EnableVoicemail:   c.EnableVoicemail,
		VoicemailPIN:      c.VoicemailPIN,
		VoicemailEmail:    c.VoicemailEmail,
		NoAnswerTimeout:   c.NoAnswerTimeout,
		LocalCallerIDName: c.LocalCallerIDName,
	}
}

type sipClientRequest struct {
	UserID            string `json:"user_id"`
	Password          string `json:"password"`
	DisplayName       string `json:"display_name"`
	EnableVoicemail   bool   `json:"enable_voicemail"`
	VoicemailPIN      string `json:"voicemail_pin"`
	VoicemailEmail    string `json:"voicemail_email"`
	NoAnswerTimeout   int    `json:"no_answer_timeout"`
	LocalCallerIDName string `json:"local_caller_id_name"`
}

func (req sipClientRequest) validate() string {
	if msg := validateUserID("user_id", req.UserID); msg != "" {
		return msg
	}
	if msg := validateRequiredStringLen("password", req.Password, maxPasswordLen); msg != "" {
		return msg
	}
	if msg := validateStringLen("display_name", req.DisplayName, maxNameLen); msg != "" {
		return msg
	}
	if msg := validatePIN("voicemail_pin", req.VoicemailPIN); msg != "" {
		return msg
	}
	if msg := validateEmail("voicemail_email", req.VoicemailEmail); msg != "" {
		return msg
	}
	n := req.NoAnswerTimeout
	if msg := validateIntRange("no_answer_timeout", &n, 0, 600); msg != "" {
		return msg
	}
	return ""
}

func (s *Server) handleListSipClients(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	tenant, err := s.Tenants.GetByDomain(r.Context(), domain)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "looking up tenant failed")
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}
	resp := make([]sipClientResponse, 0, len(tenant.SipClients))
	for _, c := range tenant.SipClients {
		resp = append(resp, sipClientToResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSipClient(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	userID := chi.URLParam(r, "userID")

	client, err := s.Tenants.FindSipClient(r.Context(), domain, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "looking up sip client failed")
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "sip client not found")
		return
	}
	writeJSON(w, http.StatusOK, sipClientToResponse(*client))
}

func (s *Server) handleUpsertSipClient(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	var req sipClientRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if pathUserID := chi.URLParam(r, "userID"); pathUserID != "" {
		req.UserID = pathUserID
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	client, err := s.Tenants.UpsertSipClient(r.Context(), domain, store.SipClient{
		UserID:            req.UserID,
		Password:          req.Password,
		DisplayName:       req.DisplayName,
		EnableVoicemail:   req.EnableVoicemail,
		VoicemailPIN:      req.VoicemailPIN,
		VoicemailEmail:    req.VoicemailEmail,
		NoAnswerTimeout:   req.NoAnswerTimeout,
		LocalCallerIDName: req.LocalCallerIDName,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "saving sip client failed")
		return
	}
	writeJSON(w, http.StatusOK, sipClientToResponse(*client))
}

func (s *Server) handleDeleteSipClient(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	userID := chi.URLParam(r, "userID")

	if err := s.Tenants.DeleteSipClient(r.Context(), domain, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sip client not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "deleting sip client failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
