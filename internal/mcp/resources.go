package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

var resActiveSession = mcp.NewResource(
	"liftlog://active_session",
	"Active Session",
	mcp.WithResourceDescription("The locally saved in-flight workout session: instance, athlete, elapsed start time, and per-set working state. Empty when no session is active."),
	mcp.WithMIMEType("application/json"),
)

// activeSession reads the local snapshot slot. An empty or stale slot
// renders as {"active": false} rather than an error, so assistants can
// poll it cheaply.
func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := map[string]any{"active": false}

	if h.snaps != nil {
		snap, err := h.snaps.Load()
		if err != nil {
			h.log.Warn("active_session: snapshot load failed", "error", err)
		} else if snap != nil {
			payload = map[string]any{
				"active":   true,
				"session":  snap,
				"saved_at": nil,
			}
			if info, err := h.snaps.Active(); err == nil && info != nil {
				payload["saved_at"] = info.SavedAt
			}
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
