package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/switchplane/xmlcurld/internal/store"
)

type actionRequest struct {
	Application string `json:"application"`
	Data        string `json:"data"`
}

type dialplanExtensionResponse struct {
	Name                string          `json:"name"`
	ConditionField      string          `json:"condition_field"`
	ConditionExpression string          `json:"condition_expression"`
	Actions             []actionRequest `json:"actions"`
}

func dialplanExtensionToResponse(e store.DialplanExtension) dialplanExtensionResponse {
	actions := make([]actionRequest, 0, len(e.Actions))
	for _, a := range e.Actions {
		actions = append(actions, actionRequest{Application: a.Application, Data: a.Data})
	}
	return dialplanExtensionResponse{
		Name:                e.Name,
		ConditionField:      e.ConditionField,
		ConditionExpression: e.ConditionExpression,
		Actions:             actions,
	}
}

type dialplanExtensionRequest struct {
	Name                string          `json:"name"`
	ConditionField      string          `json:"condition_field"`
	ConditionExpression string          `json:"condition_expression"`
	Actions             []actionRequest `json:"actions"`
}

func (req dialplanExtensionRequest) validate() string {
	if msg := validateUserID("name", req.Name); msg != "" {
		return msg
	}
	if msg := validateRequiredStringLen("condition_field", req.ConditionField, maxShortStringLen); msg != "" {
		return msg
	}
	if msg := validateRequiredStringLen("condition_expression", req.ConditionExpression, maxLongStringLen); msg != "" {
		return msg
	}
	if len(req.Actions) == 0 {
		return "actions must not be empty"
	}
	for _, a := range req.Actions {
		if msg := validateRequiredStringLen("actions.application", a.Application, maxShortStringLen); msg != "" {
			return msg
		}
		if msg := validateStringLen("actions.data", a.Data, maxLongStringLen); msg != "" {
			return msg
		}
	}
	return ""
}

func findDialplanExtension(tenant *store.Tenant, name string) *store.DialplanExtension {
	for i := range tenant.Dialplan {
		if tenant.Dialplan[i].Name == name {
			return &tenant.Dialplan[i]
		}
	}
	return nil
}

func (s *Server) handleListDialplanExtensions(w http.ResponseWriter, r *http.Request) {
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
	resp := make([]dialplanExtensionResponse, 0, len(tenant.Dialplan))
	for _, e := range tenant.Dialplan {
		resp = append(resp, dialplanExtensionToResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDialplanExtension(w http.ResponseWriter, r *http.Request) {
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
	ext := findDialplanExtension(tenant, name)
	if ext == nil {
		writeError(w, http.StatusNotFound, "dialplan extension not found")
		return
	}
	writeJSON(w, http.StatusOK, dialplanExtensionToResponse(*ext))
}

func (s *Server) handleUpsertDialplanExtension(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	var req dialplanExtensionRequest
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

	actions := make([]store.Action, 0, len(req.Actions))
	for _, a := range req.Actions {
		actions = append(actions, store.Action{Application: a.Application, Data: a.Data})
	}

	ext, err := s.Tenants.UpsertDialplanExtension(r.Context(), domain, store.DialplanExtension{
		Name:                req.Name,
		ConditionField:      req.ConditionField,
		ConditionExpression: req.ConditionExpression,
		Actions:             actions,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "saving dialplan extension failed")
		return
	}
	writeJSON(w, http.StatusOK, dialplanExtensionToResponse(*ext))
}

func (s *Server) handleDeleteDialplanExtension(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	name := chi.URLParam(r, "name")

	if err := s.Tenants.DeleteDialplanExtension(r.Context(), domain, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "dialplan extension not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "deleting dialplan extension failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
