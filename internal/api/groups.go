package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/switchplane/xmlcurld/internal/store"
)

type groupResponse struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Timeout        int      `json:"timeout"`
	Members        []string `json:"members"`
	Strategy       string   `json:"strategy"`
	VoicemailBoxID string   `json:"voicemail_box_id,omitempty"`
	VoicemailPIN   string   `json:"voicemail_pin,omitempty"`
	NoAnswerAction string   `json:"no_answer_action,omitempty"`
}

func groupToResponse(g store.Group) groupResponse {
	members := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, m.UserID)
	}
	return groupResponse{
		Name:           g.Name,
		Type:           string(g.Type),
		Timeout:        g.Timeout,
		Members:        members,
		Strategy:       string(g.Strategy),
		VoicemailBoxID: g.VoicemailBoxID,
		VoicemailPIN:   g.VoicemailPIN,
		NoAnswerAction: g.NoAnswerAction,
	}
}

type groupRequest struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Timeout        int      `json:"timeout"`
	Members        []string `json:"members"`
	Strategy       string   `json:"strategy"`
	VoicemailBoxID string   `json:"voicemail_box_id"`
	VoicemailPIN   string   `json:"voicemail_pin"`
	NoAnswerAction string   `json:"no_answer_action"`
}

func (req groupRequest) validate() string {
	if msg := validateUserID("name", req.Name); msg != "" {
		return msg
	}
	if msg := validateEnum("type", req.Type, string(store.GroupTypeHunt), string(store.GroupTypeRing)); msg != "" {
		return msg
	}
	if req.Type == "" {
		return "type is required"
	}
	n := req.Timeout
	if msg := validateIntRange("timeout", &n, 0, 600); msg != "" {
		return msg
	}
	if msg := validateEnum("strategy", req.Strategy,
		string(store.StrategySequential), string(store.StrategySimultaneous), string(store.StrategyRandom)); msg != "" {
		return msg
	}
	if msg := validatePIN("voicemail_pin", req.VoicemailPIN); msg != "" {
		return msg
	}
	if msg := validateStringLen("no_answer_action", req.NoAnswerAction, maxLongStringLen); msg != "" {
		return msg
	}
	return ""
}

func findGroup(tenant *store.Tenant, name string) *store.Group {
	for i := range tenant.Groups {
		if tenant.Groups[i].Name == name {
			return &tenant.Groups[i]
		}
	}
	return nil
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
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
	resp := make([]groupResponse, 0, len(tenant.Groups))
	for _, g := range tenant.Groups {
		resp = append(resp, groupToResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	name := chi.URLParam(r, "name")

	tenant, err := s.Tenants.GetByDomain(r.Context(), domain)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "looking up tenant failed")
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}
	group := findGroup(tenant, name)
	if group == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(*group))
}

func (s *Server) handleUpsertGroup(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	var req groupRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if pathName := chi.URLParam(r, "name"); pathName != "" {
		req.Name = pathName
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	members := make([]store.GroupMember, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, store.GroupMember{UserID: m})
	}

	group, err := s.Tenants.UpsertGroup(r.Context(), domain, store.Group{
		Name:           req.Name,
		Type:           store.GroupType(req.Type),
		Timeout:        req.Timeout,
		Members:        members,
		Strategy:       store.GroupStrategy(req.Strategy),
		VoicemailBoxID: req.VoicemailBoxID,
		VoicemailPIN:   req.VoicemailPIN,
		NoAnswerAction: req.NoAnswerAction,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "saving group failed")
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(*group))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	name := chi.URLParam(r, "name")

	if err := s.Tenants.DeleteGroup(r.Context(), domain, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "deleting group failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
