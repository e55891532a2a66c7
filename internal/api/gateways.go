package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/switchplane/xmlcurld/internal/store"
)

type gatewayResponse struct {
	Name              string `json:"name"`
	Realm             string `json:"realm"`
	Username          string `json:"username"`
	Proxy             string `json:"proxy"`
	Register          bool   `json:"register"`
	RegisterTransport string `json:"register_transport"`
	DTMFType          string `json:"dtmf_type"`
	CodecPrefs        string `json:"codec_prefs"`
}

func gatewayToResponse(g store.Gateway) gatewayResponse {
	return gatewayResponse{
		Name:              g.Name,
		Realm:             g.Realm,
		Username:          g.Username,
		Proxy:             g.Proxy,
		Register:          g.Register,
		RegisterTransport: g.RegisterTransport,
		DTMFType:          g.DTMFType,
		CodecPrefs:        g.CodecPrefs,
	}
}

type gatewayRequest struct {
	Name              string `json:"name"`
	Realm             string `json:"realm"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	Proxy             string `json:"proxy"`
	Register          bool   `json:"register"`
	RegisterTransport string `json:"register_transport"`
	DTMFType          string `json:"dtmf_type"`
	CodecPrefs        string `json:"codec_prefs"`
}

func (req gatewayRequest) validate() string {
	if msg := validateUserID("name", req.Name); msg != "" {
		return msg
	}
	if msg := validateHost("realm", req.Realm); msg != "" {
		return msg
	}
	if msg := validateStringLen("username", req.Username, maxShortStringLen); msg != "" {
		return msg
	}
	if msg := validateStringLen("password", req.Password, maxPasswordLen); msg != "" {
		return msg
	}
	if msg := validateHost("proxy", req.Proxy); msg != "" {
		return msg
	}
	if msg := validateEnum("register_transport", req.RegisterTransport, "udp", "tcp", "tls"); msg != "" {
		return msg
	}
	if msg := validateEnum("dtmf_type", req.DTMFType, "rfc2833", "inband", "info"); msg != "" {
		return msg
	}
	return ""
}

func (s *Server) handleListGateways(w http.ResponseWriter, r *http.Request) {
	gateways, err := s.Gateways.ListExternal(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing gateways failed")
		return
	}
	resp := make([]gatewayResponse, 0, len(gateways))
	for _, g := range gateways {
		resp = append(resp, gatewayToResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGateway(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	gw, err := s.Gateways.Get(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "looking up gateway failed")
		return
	}
	if gw == nil {
		writeError(w, http.StatusNotFound, "gateway not found")
		return
	}
	writeJSON(w, http.StatusOK, gatewayToResponse(*gw))
}

func (s *Server) handleCreateGateway(w http.ResponseWriter, r *http.Request) {
	var req gatewayRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	gw, err := s.Gateways.Create(r.Context(), requestToGateway(req))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "gateway already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "creating gateway failed")
		return
	}
	writeJSON(w, http.StatusCreated, gatewayToResponse(*gw))
}

func (s *Server) handleUpdateGateway(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req gatewayRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	req.Name = name
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	gw, err := s.Gateways.Update(r.Context(), requestToGateway(req))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "gateway not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "updating gateway failed")
		return
	}
	writeJSON(w, http.StatusOK, gatewayToResponse(*gw))
}

func (s *Server) handleDeleteGateway(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.Gateways.Delete(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "gateway not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "deleting gateway failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requestToGateway(req gatewayRequest) store.Gateway {
	return store.Gateway{
		Name:              req.Name,
		Realm:             req.Realm,
		Username:          req.Username,
		Password:          req.Password,
		Proxy:             req.Proxy,
		Register:          req.Register,
		RegisterTransport: req.RegisterTransport,
		DTMFType:          req.DTMFType,
		CodecPrefs:        req.CodecPrefs,
	}
}
