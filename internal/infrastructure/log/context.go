package log

import (
	"context"
	"log/slog"
)

// ctxKey 上下文键类型，避免与其他包的键冲突
type ctxKey int

const (
	roomKey ctxKey = iota
	jobKey
)

// WithRoomID 在上下文中携带房间标识
// 使用 *Context 系列日志方法时自动附加到每条记录
func WithRoomID(ctx context.Context, roomID string) context.Context {
	return context.WithValue(ctx, roomKey, roomID)
}

// WithJobID 在上下文中携带后台任务标识
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobKey, jobID)
}

// attrsFromContext 提取上下文中的日志字段
func attrsFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if v, ok := ctx.Value(roomKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("room_id", v))
	}
	if v, ok := ctx.Value(jobKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("job_id", v))
	}
	return attrs
}

// ctxHandler 把上下文字段注入每条日志记录
type ctxHandler struct {
	slog.Handler
}

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := attrsFromContext(ctx); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h ctxHandler) WithGroup(name string) slog.Handler {
	return ctxHandler{h.Handler.WithGroup(name)}
}
