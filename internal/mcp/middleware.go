package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const sessionIDKey contextKey = iota

// getSessionID extracts the transport-level session ID from context, if
// the client supplied one ambiently (HTTP header or stdio metadata)
// rather than as an explicit tool argument.
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// sessionMiddleware extracts a session ID from the Mcp-Session-Id HTTP
// header or, for stdio, from request metadata, and stashes it on the
// context for handlers that want an ambient fallback (e.g. resuming
// without the caller repeating the session id on every tool call).
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var sessionID string

			extra := req.GetExtra()
			if extra != nil && extra.Header != nil {
				sessionID = extra.Header.Get("Mcp-Session-Id")
			}

			if sessionID == "" {
				if params := req.GetParams(); params != nil {
					// Defer/recover guards against a known SDK quirk: some
					// notifications (e.g. "initialized") carry nil params,
					// and GetMeta on those can panic.
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if sid, ok := meta["session_id"].(string); ok {
								sessionID = sid
							}
						}
					}()
				}
			}

			if sessionID != "" {
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}

			return next(ctx, method, req)
		}
	}
}
