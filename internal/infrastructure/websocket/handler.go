package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the request and runs it as a Hub client for the
// staff member resolved by staffID (normally from the auth middleware).
func HandleWebSocket(hub *Hub, allowedOrigins []string, staffID func(r *http.Request) string) http.HandlerFunc {
	opts := acceptOptions(allowedOrigins)
	return func(w http.ResponseWriter, r *http.Request) {
		id := staffID(r)
		if id == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			slog.Warn("websocket accept", "err", err)
			return
		}
		NewClient(hub, conn, id).Run(r.Context())
	}
}

// acceptOptions turns CORS origins ("https://host") into host patterns.
func acceptOptions(allowedOrigins []string) *ws.AcceptOptions {
	var patterns []string
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			return &ws.AcceptOptions{InsecureSkipVerify: true}
		}
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		patterns = append(patterns, o)
	}
	return &ws.AcceptOptions{OriginPatterns: patterns}
}
