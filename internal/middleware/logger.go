package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Context keys shared between handlers and the request logger.
const (
	ContextUsername  = "auth.username"
	ContextErrorKind = "error.kind"
	ContextField     = "error.field"
)

func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		fields := []zap.Field{
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ctx.ClientIP()),
			zap.String("user_agent", ctx.Request.UserAgent()),
			zap.Int64("content_length", ctx.Request.ContentLength),
		}
		if user := ctx.GetString(ContextUsername); user != "" {
			fields = append(fields, zap.String("username", user))
		}
		if kind := ctx.GetString(ContextErrorKind); kind != "" {
			fields = append(fields, zap.String("error_kind", kind))
		}
		if field := ctx.GetString(ContextField); field != "" {
			fields = append(fields, zap.String("field", field))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}
		logger.Check(level, "HTTP Request").Write(fields...)
	}
}
