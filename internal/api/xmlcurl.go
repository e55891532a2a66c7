package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/switchplane/xmlcurld/internal/dialplan"
	"github.com/switchplane/xmlcurld/internal/metrics"
	"github.com/switchplane/xmlcurld/internal/xmlgen"
)

// handleXMLCurl answers the switch's mod_xml_curl lookup. The body is
// form-urlencoded request variables; the "section" field selects which
// resolver handles the request.
func (s *Server) handleXMLCurl(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	section := r.PostForm.Get("section")
	if section == "" {
		http.Error(w, "missing section", http.StatusBadRequest)
		return
	}

	vars := formToCallVariables(r.PostForm)
	start := time.Now()

	switch section {
	case "dialplan":
		resolutionID := uuid.New().String()
		w.Header().Set("X-Resolution-Id", resolutionID)
		xml := s.Dialplan.Resolve(r.Context(), vars)
		s.Metrics.ObserveResolution(section, metrics.OutcomeOK, time.Since(start))
		slog.Info("dialplan resolution",
			"resolution_id", resolutionID,
			"caller_channel_name", vars.CallerChannelName(),
		)
		s.writeXML(w, http.StatusOK, xml)
	case "directory":
		s.handleDirectorySection(w, r, vars, start)
	case "configuration":
		s.handleConfigurationSection(w, r, start)
	default:
		http.Error(w, "unrecognized section", http.StatusNotFound)
	}
}

func (s *Server) handleDirectorySection(w http.ResponseWriter, r *http.Request, vars dialplan.CallVariables, start time.Time) {
	domain := vars.Domain()
	userID := r.PostForm.Get("user")
	if userID == "" {
		userID = r.PostForm.Get("id")
	}

	doc, err := s.Directory.Resolve(r.Context(), domain, userID)
	if err != nil {
		slog.Error("directory resolution failed", "error", err, "domain", domain, "user", userID)
		s.Metrics.ObserveResolution("directory", metrics.OutcomeError, time.Since(start))
		s.writeXML(w, http.StatusInternalServerError, xmlgen.EmitError())
		return
	}
	s.Metrics.ObserveResolution("directory", metrics.OutcomeOK, time.Since(start))
	s.writeXML(w, http.StatusOK, doc)
}

func (s *Server) handleConfigurationSection(w http.ResponseWriter, r *http.Request, start time.Time) {
	key := r.PostForm.Get("key_value")
	if key == "" {
		key = r.PostForm.Get("Key-Value")
	}

	doc, err := s.Config.Resolve(r.Context(), key)
	if err != nil {
		slog.Error("configuration resolution failed", "error", err, "key", key)
		s.Metrics.ObserveResolution("configuration", metrics.OutcomeError, time.Since(start))
		s.writeXML(w, http.StatusInternalServerError, xmlgen.EmitError())
		return
	}
	s.Metrics.ObserveResolution("configuration", metrics.OutcomeOK, time.Since(start))
	s.writeXML(w, http.StatusOK, doc)
}

func (s *Server) writeXML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	w.Write([]byte(body)) //nolint:errcheck
}

// formToCallVariables flattens url.Values into the single-valued map the
// dialplan resolver's accessors expect.
func formToCallVariables(form map[string][]string) dialplan.CallVariables {
	vars := make(dialplan.CallVariables, len(form))
	for k, v := range form {
		if len(v) > 0 {
			vars[k] = v[0]
		}
	}
	return vars
}
