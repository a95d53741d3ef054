package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/ivankudzin/kinmatch/internal/transport/http/errors"
)

// Probe checks one backing dependency.
type Probe func(ctx context.Context) error

type HealthHandler struct {
	probes map[string]Probe
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{probes: map[string]Probe{}}
}

func (h *HealthHandler) AddProbe(name string, probe Probe) {
	if probe != nil {
		h.probes[name] = probe
	}
}

func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// Ready reports 503 when any probe fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.probes))
	status := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	httperrors.Write(w, status, map[string]any{"ok": status == http.StatusOK, "checks": checks})
}
