package logctx

import (
	"context"
	"log/slog"
)

type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("path", rd.Path),
			slog.String("remote_addr", rd.RemoteAddr),
		))
	}

	if qd, ok := ctx.Value(queryDataKey{}).(*QueryData); ok {
		r.AddAttrs(slog.Group("query",
			slog.String("slug", qd.Slug),
			slog.String("source", qd.Source),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type requestDataKey struct{}

type RequestData struct {
	RequestID  string
	Method     string
	Path       string
	RemoteAddr string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type queryDataKey struct{}

type QueryData struct {
	Slug   string
	Source string
}

func WithQueryData(ctx context.Context, data *QueryData) context.Context {
	return context.WithValue(ctx, queryDataKey{}, data)
}
