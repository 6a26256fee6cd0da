/*
Package handler provides the HTTP handlers and routing setup for the relay server.

This file contains HandleWebSocket, which rate-limits and upgrades the HTTP
connection, assigns the connection id, and starts the session pumps.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"relaychat/internal/app/relay"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection
// requests. Every accepted connection gets a fresh, never-reused uuid as its
// connection id.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connID := uuid.NewString()
		session := relay.NewSession(deps.Hub, conn, connID)

		go session.WritePump()

		deps.Hub.RegisterSession(session)

		logx.Info("WebSocket connection established", "conn_id", connID)

		session.ReadPump()
	}
}
