package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pion/webrtc/v4"

	"webrtc-signal-relay/internal/app/rooms"
)

type Settings struct {
	ICEMode     string
	ICEServers  []webrtc.ICEServer
	PublicWSURL string
	// MaxRoomMembers is the room capacity; 0 means unbounded.
	MaxRoomMembers int
}

// Routes wires the HTTP surface onto mux. ws is the signaling hub's handler;
// staticDir may be empty to disable SPA serving.
func Routes(mux *http.ServeMux, ws http.Handler, dir rooms.Directory, settings Settings, staticDir string, logger *slog.Logger) {
	mux.Handle("GET /ws", ws)
	mux.Handle("GET /healthz", HealthHandler())
	mux.Handle("GET /api/settings", SettingsHandler(settings, logger))
	mux.Handle("GET /debug/ice", DebugICEHandler(settings))
	mux.Handle("POST /api/rooms", CreateRoomHandler(dir, logger))
	mux.Handle("GET /api/rooms/{code}", RoomLookupHandler(dir))
	if staticDir != "" {
		mux.Handle("/", SPAHandler(staticDir))
	} else {
		mux.Handle("GET /{$}", RootHandler())
	}
}

// RootHandler answers the bare root when no app is served.
func RootHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Server is running!"))
	})
}

func SPAHandler(staticDir string) http.Handler {
	fs := http.FileServer(http.Dir(staticDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		path := filepath.Join(staticDir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}

		index := filepath.Join(staticDir, "index.html")
		http.ServeFile(w, r, index)
	})
}

func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, nil, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func DebugICEHandler(settings Settings) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{
			"mode":       settings.ICEMode,
			"iceServers": settings.ICEServers,
		}
		writeJSON(w, nil, http.StatusOK, payload)
	})
}

func SettingsHandler(settings Settings, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{
			"wsURL":          resolveWSURL(settings, r),
			"iceMode":        settings.ICEMode,
			"iceServers":     settings.ICEServers,
			"maxRoomMembers": settings.MaxRoomMembers,
		}
		writeJSON(w, logger, http.StatusOK, payload)
	})
}

func resolveWSURL(settings Settings, r *http.Request) string {
	if settings.PublicWSURL != "" {
		return settings.PublicWSURL
	}

	proto := "ws"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		proto = "wss"
	}

	host := r.Host
	if host == "" {
		host = "localhost:8080"
	}

	return fmt.Sprintf("%s://%s/ws", proto, host)
}

// CreateRoomHandler suggests a fresh room code. The room itself comes into
// existence when the first client joins it.
func CreateRoomHandler(dir rooms.Directory, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code, err := rooms.Suggest(dir)
		if err != nil {
			if logger != nil {
				logger.Error("room create error", "err", err)
			}
			status := http.StatusInternalServerError
			if errors.Is(err, rooms.ErrNoFreeCode) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, "failed to create room", status)
			return
		}

		payload := map[string]interface{}{
			"code": code,
			"url":  roomURL(r, code),
		}
		writeJSON(w, logger, http.StatusCreated, payload)
	})
}

// RoomLookupHandler reports the live membership of a room. Unknown rooms are
// reported with no members since rooms exist only while occupied. The code is
// used exactly as given.
func RoomLookupHandler(dir rooms.Directory) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		if code == "" {
			http.NotFound(w, r)
			return
		}

		room := rooms.Lookup(dir, code)
		payload := map[string]interface{}{
			"code":    room.Code,
			"members": room.Members,
			"url":     roomURL(r, room.Code),
		}
		writeJSON(w, nil, http.StatusOK, payload)
	})
}

func roomURL(r *http.Request, code string) string {
	proto := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		proto = "https"
	}
	host := r.Host
	if host == "" {
		host = "localhost:8080"
	}
	return fmt.Sprintf("%s://%s/rooms/%s", proto, host, code)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Warn("http: response encode error", "err", err)
	}
}
