package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/whispergate/whispergate/internal/config"
	"github.com/whispergate/whispergate/internal/session"
	"github.com/whispergate/whispergate/internal/ws"
)

func NewRouter(cfg config.Config, gateway *session.Gateway) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "active_sessions": gateway.Active()})
	})
	mux.HandleFunc("/v1/system-info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"system_info": session.SystemInfo()})
	})
	wss := ws.NewServer(cfg, gateway)
	mux.HandleFunc("/ws/transcribe", wss.Handle)
	return mux
}
