package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID  contextKey = "run_id"
	ContextKeyFolder contextKey = "folder"
)

// WithRunID adds a batch run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithFolder adds the folder being processed to the context
func WithFolder(ctx context.Context, folder string) context.Context {
	return context.WithValue(ctx, ContextKeyFolder, folder)
}

// FolderFromContext extracts the folder from context
func FolderFromContext(ctx context.Context) string {
	if folder, ok := ctx.Value(ContextKeyFolder).(string); ok {
		return folder
	}
	return ""
}
