package panel

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/zsiec/webulator/internal/device"
	apperrors "github.com/zsiec/webulator/internal/errors"
	"github.com/zsiec/webulator/internal/logger"
	"github.com/zsiec/webulator/internal/metrics"
)

// Event types posted by a panel page.
const (
	EventLoad    = "load"
	EventLoading = "loading"
	EventDispose = "dispose"
)

const maxEventBytes = 4 << 10

// Event is the body of POST /panels/{id}/events.
type Event struct {
	Type string `json:"type"`
}

type shellData struct {
	Title      string
	Frame      template.HTML
	EventsURL  string
	ContentURL string
}

func (h *Host) setupRoutes() {
	h.router.Use(logger.RequestLoggerMiddleware(h.logger))

	h.router.HandleFunc("/panels", h.handleList).Methods(http.MethodGet)
	h.router.HandleFunc("/panels/{id}", h.handleShell).Methods(http.MethodGet)
	h.router.HandleFunc("/panels/{id}/content", h.handleContent).Methods(http.MethodGet)
	h.router.HandleFunc("/panels/{id}/events", h.handleEvent).Methods(http.MethodPost)
	h.router.HandleFunc("/panels/{id}/frame", h.handleFrame).Methods(http.MethodGet)

	if h.health != nil {
		h.router.HandleFunc("/health", h.health.HandleHealth).Methods(http.MethodGet)
		h.router.HandleFunc("/live", h.health.HandleLive).Methods(http.MethodGet)
		h.router.HandleFunc("/version", h.health.HandleVersion).Methods(http.MethodGet)
	}

	h.router.NotFoundHandler = http.HandlerFunc(h.errorHandler.HandleNotFound)
	h.router.MethodNotAllowedHandler = http.HandlerFunc(h.errorHandler.HandleMethodNotAllowed)
}

// panelFor resolves the {id} route variable, writing a 404 when the panel
// is unknown or disposed.
func (h *Host) panelFor(w http.ResponseWriter, r *http.Request) (*browserPanel, bool) {
	p, ok := h.lookup(mux.Vars(r)["id"])
	if !ok || p.Disposed() {
		h.errorHandler.HandleError(w, r, apperrors.NewNotFoundError("panel"))
		return nil, false
	}
	return p, true
}

func (h *Host) handleList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"panels": h.Panels(),
		"device": h.Device(),
	})
}

func (h *Host) handleShell(w http.ResponseWriter, r *http.Request) {
	p, ok := h.panelFor(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := shellTemplate.Execute(&buf, shellData{
		Title:      p.opts.Title,
		Frame:      p.frame.HTML(),
		EventsURL:  "/panels/" + p.id + "/events",
		ContentURL: "/panels/" + p.id + "/content",
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.WrapInternalError(err))
		return
	}

	h.writeHTML(w, buf.Bytes())
}

func (h *Host) handleContent(w http.ResponseWriter, r *http.Request) {
	p, ok := h.panelFor(w, r)
	if !ok {
		return
	}

	html, _ := p.content()
	h.writeHTML(w, []byte(html))
}

func (h *Host) handleEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := h.panelFor(w, r)
	if !ok {
		return
	}

	var event Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&event); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("invalid event body"))
		return
	}

	// dispose is sent once on pagehide and never retried
	if event.Type != EventDispose && !p.limiter.Allow() {
		metrics.IncrementPanelEventDropped()
		h.errorHandler.HandleError(w, r, apperrors.NewRateLimitError("too many panel events"))
		return
	}

	switch event.Type {
	case EventLoad:
		p.frame.HandleLoad()
	case EventLoading:
		p.frame.ShowLoading()
	case EventDispose:
		// the user closed the page
		p.Dispose()
	default:
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("unknown event type: "+event.Type))
		return
	}

	metrics.IncrementPanelEvent(event.Type)
	logger.FromContext(r.Context()).WithFields(logger.Fields{
		"panel_id": p.id,
		"event":    event.Type,
	}).Debug("Panel event")

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Host) handleFrame(w http.ResponseWriter, r *http.Request) {
	p, ok := h.panelFor(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, struct {
		device.Status
		Spec device.Spec `json:"spec"`
	}{
		Status: p.frame.Status(),
		Spec:   p.frame.Spec(),
	})
}

func (h *Host) writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.WithError(err).Warn("Failed to write panel page")
	}
}

func (h *Host) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode panel response")
	}
}
