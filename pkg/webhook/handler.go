package webhook

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/google/go-github/v66/github"

	"labelsync/internal/logger"
	"labelsync/pkg/replicator"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>labelsync</title></head>
<body>
<h1>labelsync</h1>
<p>Label changes on any repository below propagate to the rest of its group.</p>
{{range .Groups}}<h2>{{.Name}}</h2>
<ul>
{{range .Repos}}<li>{{.String}}</li>
{{end}}</ul>
{{end}}</body>
</html>
`))

// Handler terminates GitHub webhook deliveries. Signatures are checked
// before anything else; deliveries that fail the check get a 401 and
// never reach the processor.
type Handler struct {
	secret    []byte
	registry  *replicator.Registry
	processor *Processor
	log       logger.Logger
	mux       *http.ServeMux
}

// NewHandler builds the HTTP surface: webhook deliveries on POST /, a
// status page on GET / and a liveness probe on GET /healthz.
func NewHandler(secret string, registry *replicator.Registry, processor *Processor, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	h := &Handler{
		secret:    []byte(secret),
		registry:  registry,
		processor: processor,
		log:       log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", h.handleDelivery)
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux = mux
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	deliveryID := github.DeliveryID(r)
	eventType := github.WebHookType(r)
	h.log.Debug("delivery received", "delivery", deliveryID, "event", eventType)

	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		h.log.Warn("rejected delivery with invalid signature", "delivery", deliveryID, "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	switch eventType {
	case "ping":
		h.log.Info("answering ping", "delivery", deliveryID)
		fmt.Fprintln(w, "pong")
		return
	case "label":
	default:
		h.log.Warn("rejected unsupported event", "delivery", deliveryID, "event", eventType)
		http.Error(w, "event not supported", http.StatusBadRequest)
		return
	}

	ev, err := ParseLabelEvent(deliveryID, payload)
	if err != nil {
		h.log.Warn("rejected malformed label event", "delivery", deliveryID, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.processor.Routable(ev.Repo) {
		h.log.Warn("rejected event from unconfigured repository",
			"delivery", deliveryID,
			"repo", ev.Repo.String(),
		)
		http.Error(w, "repository not configured", http.StatusBadRequest)
		return
	}

	outcome := h.processor.Process(r.Context(), ev)
	switch outcome.State {
	case StateDeduped:
		fmt.Fprintln(w, "ignored")
	case StateRouted:
		fmt.Fprintln(w, "ok")
	default:
		http.Error(w, outcome.Reason, http.StatusBadRequest)
		return
	}
	h.log.Debug("delivery acknowledged", "delivery", deliveryID, "state", string(outcome.State))
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Groups []replicator.Group }{Groups: h.registry.Groups()}
	if err := indexTemplate.Execute(w, data); err != nil {
		h.log.Error("rendering index page", "error", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "ok")
}
