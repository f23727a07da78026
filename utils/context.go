package utils

import (
	"context"
	"net/http"

	"condoPortal/internal/logging"
	"condoPortal/internal/session"
)

type contextKey string

const SnapshotKey contextKey = "session_snapshot"

// WithRequestID stores the request id in ctx where loggers find it
func WithRequestID(ctx context.Context, id string) context.Context {
	return logging.ContextWithRequestID(ctx, id)
}

// WithSnapshot stores the gate's session snapshot in ctx
func WithSnapshot(ctx context.Context, snap session.Snapshot) context.Context {
	return context.WithValue(ctx, SnapshotKey, snap)
}

// GetSnapshot extracts the snapshot stored by the role gate
func GetSnapshot(r *http.Request) (session.Snapshot, bool) {
	snap, ok := r.Context().Value(SnapshotKey).(session.Snapshot)
	return snap, ok
}
