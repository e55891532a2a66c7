package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/switchplane/xmlcurld/internal/store"
)

type didResponse struct {
	DIDNumber             string `json:"did_number"`
	Active                bool   `json:"active"`
	RoutingType           string `json:"routing_type"`
	RoutingTarget         string `json:"routing_target"`
	FailoverRoutingType   string `json:"failover_routing_type,omitempty"`
	FailoverRoutingTarget string `json:"failover_routing_target,omitempty"`
}

func didToResponse(d store.DID) didResponse {
	return didResponse{
		DIDNumber:             d.DIDNumber,
		Active:                d.Active,
		RoutingType:           string(d.RoutingType),
		RoutingTarget:         d.RoutingTarget,
		FailoverRoutingType:   string(d.FailoverRoutingType),
		FailoverRoutingTarget: d.FailoverRoutingTarget,
	}
}

var validRoutingTypes = []string{
	string(store.RoutingExtension), string(store.RoutingGroup), string(store.RoutingIVR),
	string(store.RoutingExternalNum), string(store.RoutingCustom), string(store.RoutingDialplanEntry),
}

type didRequest struct {
	DIDNumber             string `json:"did_number"`
	Active                bool   `json:"active"`
	RoutingType           string `json:"routing_type"`
	RoutingTarget         string `json:"routing_target"`
	FailoverRoutingType   string `json:"failover_routing_type"`
	FailoverRoutingTarget string `json:"failover_routing_target"`
}

func (req didRequest) validate() string {
	if msg := validateDIDNumber("did_number", req.DIDNumber); msg != "" {
		return msg
	}
	if req.RoutingType == "" {
		return "routing_type is required"
	}
	if msg := validateEnum("routing_type", req.RoutingType, validRoutingTypes...); msg != "" {
		return msg
	}
	if msg := validateRequiredStringLen("routing_target", req.RoutingTarget, maxNameLen); msg != "" {
		return msg
	}
	if msg := validateEnum("failover_routing_type", req.FailoverRoutingType, validRoutingTypes...); msg != "" {
		return msg
	}
	if msg := validateStringLen("failover_routing_target", req.FailoverRoutingTarget, maxNameLen); msg != "" {
		return msg
	}
	return ""
}

func findDID(tenant *store.Tenant, didNumber string) *store.DID {
	for i := range tenant.DIDs {
		if tenant.DIDs[i].DIDNumber == didNumber {
			return &tenant.DIDs[i]
		}
	}
	return nil
}

func (s *Server) handleListDIDs(w http.ResponseWriter, r *http.Request) {
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
	resp := make([]didResponse, 0, len(tenant.DIDs))
	for _, d := range tenant.DIDs {
		resp = append(resp, didToResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDID(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	didNumber := chi.URLParam(r, "didNumber")

	tenant, err := s.Tenants.GetByDomain(r.Context(), domain)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "looking up tenant failed")
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}
	did := findDID(tenant, didNumber)
	if did == nil {
		writeError(w, http.StatusNotFound, "did not found")
		return
	}
	writeJSON(w, http.StatusOK, didToResponse(*did))
}

func (s *Server) handleUpsertDID(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	var req didRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if pathDID := chi.URLParam(r, "didNumber"); pathDID != "" {
		req.DIDNumber = pathDID
	}
	req.DIDNumber = normalizeDIDNumber(req.DIDNumber)
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	did, err := s.Tenants.UpsertDID(r.Context(), domain, store.DID{
		DIDNumber:             req.DIDNumber,
		Active:                req.Active,
		RoutingType:           store.RoutingType(req.RoutingType),
		RoutingTarget:         req.RoutingTarget,
		FailoverRoutingType:   store.RoutingType(req.FailoverRoutingType),
		FailoverRoutingTarget: req.FailoverRoutingTarget,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "saving did failed")
		return
	}
	writeJSON(w, http.StatusOK, didToResponse(*did))
}

func (s *Server) handleDeleteDID(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	didNumber := chi.URLParam(r, "didNumber")

	if err := s.Tenants.DeleteDID(r.Context(), domain, didNumber); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "did not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "deleting did failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
