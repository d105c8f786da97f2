package logging

import (
	"context"
	"log/slog"

	"metascraper/internal/services"
)

const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldItem      = "item"
	FieldStage     = "stage"
)

// ContextFields extracts the correlation attributes stored on ctx.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var attrs []Attr
	if id, ok := services.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRunID, id))
	}
	if item, ok := services.ItemFromContext(ctx); ok {
		attrs = append(attrs, String(FieldItem, item))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, String(FieldStage, stage))
	}
	return attrs
}

// WithContext returns logger enriched with the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
