// Package httpapi exposes the history service as JSON over HTTP, for UI
// clients that do not speak gRPC (shell scripts, launchers, browser
// extensions).
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/rs/cors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/qlip/internal/clip"
	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/rpc"
)

type handler struct {
	svc rpc.HistoryServer
}

// New returns the HTTP handler for svc. Browser requests are served only for
// origins listed in allowedOrigins; any other request carrying an Origin
// header is refused. Non-browser clients send no Origin and are unaffected.
func New(svc rpc.HistoryServer, allowedOrigins []string) http.Handler {
	h := &handler{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/entries", h.list)
	mux.HandleFunc("POST /v1/entries", h.add)
	mux.HandleFunc("DELETE /v1/entries", h.deleteAll)
	mux.HandleFunc("GET /v1/entries/{id}", h.get)
	mux.HandleFunc("DELETE /v1/entries/{id}", h.delete)
	mux.HandleFunc("POST /v1/entries/{id}/favorite", h.favorite)
	mux.HandleFunc("POST /v1/entries/{id}/use", h.use)
	mux.HandleFunc("GET /v1/status", h.status)
	mux.HandleFunc("PUT /v1/pause", h.pause)

	if len(allowedOrigins) == 0 {
		return originGuard(nil, mux)
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return originGuard(allowedOrigins, c.Handler(mux))
}

// originGuard rejects requests from browser origins not in allowed.
func originGuard(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && !slices.Contains(allowed, origin) {
			slog.Warn("http request from disallowed origin", "origin", origin, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, "origin not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	favs, _ := strconv.ParseBool(r.URL.Query().Get("favorites"))
	resp, err := h.svc.List(r.Context(), &rpc.ListRequest{FavoritesOnly: favs})
	reply(w, resp, err)
}

// addBody is the POST /v1/entries payload. Without a kind the data is
// classified like captured clipboard text.
type addBody struct {
	Kind string `json:"kind,omitempty"`
	Data string `json:"data"`
}

func (h *handler) add(w http.ResponseWriter, r *http.Request) {
	var body addBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<20)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	content := clip.Classify(body.Data)
	if body.Kind != "" {
		kind, err := history.ParseKind(body.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		content = history.Content{Kind: kind, Data: body.Data}
	}
	resp, err := h.svc.Add(r.Context(), &rpc.AddRequest{Content: content})
	if err == nil {
		w.Header().Set("Location", "/v1/entries/"+strconv.FormatInt(resp.ID, 10))
	}
	reply(w, resp, err)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.Get(r.Context(), &rpc.IDRequest{ID: id})
	reply(w, resp, err)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, err := h.svc.Delete(r.Context(), &rpc.IDRequest{ID: id})
	replyEmpty(w, err)
}

func (h *handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.DeleteAll(r.Context(), &rpc.Empty{})
	replyEmpty(w, err)
}

func (h *handler) favorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.ToggleFavorite(r.Context(), &rpc.IDRequest{ID: id})
	reply(w, resp, err)
}

func (h *handler) use(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, err := h.svc.Use(r.Context(), &rpc.IDRequest{ID: id})
	replyEmpty(w, err)
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Status(r.Context(), &rpc.Empty{})
	reply(w, resp, err)
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	var body rpc.PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	resp, err := h.svc.SetPaused(r.Context(), &body)
	reply(w, resp, err)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return 0, false
	}
	return id, true
}

func reply(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeStatusError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("http response write failed", "err", err)
	}
}

func replyEmpty(w http.ResponseWriter, err error) {
	if err != nil {
		writeStatusError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStatusError translates the service's gRPC status into an HTTP one.
func writeStatusError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	code := http.StatusInternalServerError
	switch st.Code() {
	case codes.NotFound:
		code = http.StatusNotFound
	case codes.InvalidArgument:
		code = http.StatusBadRequest
	case codes.FailedPrecondition:
		code = http.StatusConflict
	}
	writeError(w, code, st.Message())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
