package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			sessionID, params := requestInfo(req)
			if sessionID == "" {
				sessionID = getSessionID(ctx)
			}
			logger.Debug("mcp traffic", "direction", direction, "stage", "request", "method", method, "session_id", sessionID, "params", formatPayload(params))

			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			attrs := []any{"direction", direction, "stage", "response", "method", method, "session_id", sessionID, "result", formatPayload(result)}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			logger.Debug("mcp traffic", attrs...)

			return result, err
		}
	}
}

// requestInfo extracts the session ID and params of req. Requests built
// outside a live session panic on access, so both are recovered.
func requestInfo(req sdkmcp.Request) (sessionID string, params any) {
	if req == nil {
		return "", nil
	}
	func() {
		defer func() { _ = recover() }()
		params = req.GetParams()
	}()
	func() {
		defer func() { _ = recover() }()
		if session := req.GetSession(); session != nil {
			sessionID = session.ID()
		}
	}()
	return sessionID, params
}

// formatPayload renders payload as JSON with password values masked.
func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	return passwordPattern.ReplaceAllString(string(data), `${1}"***"`)
}

var passwordPattern = regexp.MustCompile(`("password"\s*:\s*)"(?:[^"\\]|\\.)*"`)
