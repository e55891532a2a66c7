package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/switchplane/xmlcurld/internal/store"
)

type tenantResponse struct {
	DomainName string                       `json:"domain_name"`
	SipClients []sipClientResponse          `json:"sip_clients"`
	Groups     []groupResponse              `json:"groups"`
	DIDs       []didResponse                `json:"dids"`
	Dialplan   []dialplanExtensionResponse  `json:"dialplan_extensions"`
}

func tenantToResponse(t *store.Tenant) tenantResponse {
	resp := tenantResponse{
		DomainName: t.DomainName,
		SipClients: make([]sipClientResponse, 0, len(t.SipClients)),
		Groups:     make([]groupResponse, 0, len(t.Groups)),
		DIDs:       make([]didResponse, 0, len(t.DIDs)),
		Dialplan:   make([]dialplanExtensionResponse, 0, len(t.Dialplan)),
	}
	for _, c := range t.SipClients {
		resp.SipClients = append(resp.SipClients, sipClientToResponse(c))
	}
	for _, g := range t.Groups {
		resp.Groups = append(resp.Groups, groupToResponse(g))
	}
	for _, d := range t.DIDs {
		resp.DIDs = append(resp.DIDs, didToResponse(d))
	}
	for _, e := range t.Dialplan {
		resp.Dialplan = append(resp.Dialplan, dialplanExtensionToResponse(e))
	}
	return resp
}

type createTenantRequest struct {
	DomainName string `json:"domain_name"`
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.Tenants.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing tenants failed")
		return
	}
	resp := make([]tenantResponse, 0, len(tenants))
	for i := range tenants {
		resp = append(resp, tenantToResponse(&tenants[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if msg := validateDomainName("domain_name", req.DomainName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	tenant, err := s.Tenants.Create(r.Context(), req.DomainName)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "domain already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "creating tenant failed")
		return
	}
	writeJSON(w, http.StatusCreated, tenantToResponse(tenant))
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, tenantToResponse(tenant))
}

func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	if err := s.Tenants.Delete(r.Context(), domain); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "deleting tenant failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
