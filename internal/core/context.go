package core

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxKeyRunID contextKey = "run_id"
	ctxKeyFile  contextKey = "source_file"
)

// ContextWithRunID tags ctx with the id of the current command run.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRunID, id)
}

// NewRunContext tags ctx with a freshly generated run id.
func NewRunContext(ctx context.Context) context.Context {
	return ContextWithRunID(ctx, uuid.NewString())
}

// RunIDFromContext extracts the run id from ctx.
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRunID).(string); ok {
		return v
	}
	return ""
}

// ContextWithFile records the source file being processed.
func ContextWithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ctxKeyFile, path)
}

// FileFromContext extracts the source file from ctx.
func FileFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyFile).(string); ok {
		return v
	}
	return ""
}
