package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/switchplane/xmlcurld/internal/api/middleware"
	"github.com/switchplane/xmlcurld/internal/configresolver"
	"github.com/switchplane/xmlcurld/internal/dialplan"
	"github.com/switchplane/xmlcurld/internal/directory"
	"github.com/switchplane/xmlcurld/internal/metrics"
	"github.com/switchplane/xmlcurld/internal/store"
)

// Server holds HTTP handler dependencies and the chi router. It serves
// two distinct surfaces on one listener: the switch-facing mod_xml_curl
// endpoint and the admin REST API.
type Server struct {
	router *chi.Mux

	Dialplan  *dialplan.Resolver
	Directory *directory.Resolver
	Config    *configresolver.Resolver
	Metrics   *metrics.Recorder

	Tenants  store.TenantRepository
	Gateways store.GatewayRepository

	adminSecret []byte
	corsOrigins []string
	metricsReg  *prometheus.Registry
}

// NewServer creates the HTTP handler with all routes mounted.
func NewServer(
	dialplanResolver *dialplan.Resolver,
	directoryResolver *directory.Resolver,
	configResolver *configresolver.Resolver,
	tenants store.TenantRepository,
	gateways store.GatewayRepository,
	adminSecret []byte,
	corsOrigins []string,
) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		router:      chi.NewRouter(),
		Dialplan:    dialplanResolver,
		Directory:   directoryResolver,
		Config:      configResolver,
		Metrics:     metrics.NewRecorder(reg),
		Tenants:     tenants,
		Gateways:    gateways,
		adminSecret: adminSecret,
		corsOrigins: corsOrigins,
		metricsReg:  reg,
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes configures all middleware and mounts both route surfaces.
func (s *Server) routes() {
	r := s.router

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS(s.corsOrigins))
	r.Use(middleware.StructuredLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders(false))

	xmlcurlLimiter := middleware.NewIPRateLimiter(middleware.DefaultRateLimitConfig())
	r.With(middleware.RateLimit(xmlcurlLimiter)).Post("/xmlcurl", s.handleXMLCurl)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler(s.metricsReg))

	authLimiter := middleware.NewIPRateLimiter(middleware.AuthRateLimitConfig())
	r.With(middleware.RateLimit(authLimiter)).Post("/api/v1/auth/token", s.handleAdminToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAdminAuth(s.adminSecret))

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", s.handleListTenants)
			r.Post("/", s.handleCreateTenant)

			r.Route("/{domain}", func(r chi.Router) {
				r.Get("/", s.handleGetTenant)
				r.Delete("/", s.handleDeleteTenant)

				r.Route("/sip-clients", func(r chi.Router) {
					r.Get("/", s.handleListSipClients)
					r.Post("/", s.handleUpsertSipClient)
					r.Route("/{userID}", func(r chi.Router) {
						r.Get("/", s.handleGetSipClient)
						r.Put("/", s.handleUpsertSipClient)
						r.Delete("/", s.handleDeleteSipClient)
					})
				})

				r.Route("/groups", func(r chi.Router) {
					r.Get("/", s.handleListGroups)
					r.Post("/", s.handleUpsertGroup)
					r.Route("/{name}", func(r chi.Router) {
						r.Get("/", s.handleGetGroup)
						r.Put("/", s.handleUpsertGroup)
						r.Delete("/", s.handleDeleteGroup)
					})
				})

				r.Route("/dids", func(r chi.Router) {
					r.Get("/", s.handleListDIDs)
					r.Post("/", s.handleUpsertDID)
					r.Route("/{didNumber}", func(r chi.Router) {
						r.Get("/", s.handleGetDID)
						r.Put("/", s.handleUpsertDID)
						r.Delete("/", s.handleDeleteDID)
					})
				})

				r.Route("/dialplan-extensions", func(r chi.Router) {
					r.Get("/", s.handleListDialplanExtensions)
					r.Post("/", s.handleUpsertDialplanExtension)
					r.Route("/{name}", func(r chi.Router) {
						r.Get("/", s.handleGetDialplanExtension)
						r.Put("/", s.handleUpsertDialplanExtension)
						r.Delete("/", s.handleDeleteDialplanExtension)
					})
				})
			})
		})

		r.Route("/gateways", func(r chi.Router) {
			r.Get("/", s.handleListGateways)
			r.Post("/", s.handleCreateGateway)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetGateway)
				r.Put("/", s.handleUpdateGateway)
				r.Delete("/", s.handleDeleteGateway)
			})
		})
	})

	slog.Info("api routes mounted")
}

// handleHealth is an unauthenticated liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
