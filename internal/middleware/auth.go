package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/authgo/backend/pkg/token"
)

// Identity headers set for downstream handlers. Any client-supplied values
// are overwritten before the handler runs.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUsername = "X-Username"
	HeaderTokenID  = "X-Token-ID"
)

// JWTAuth verifies the bearer token and forwards the identity claims via
// request headers. Verification is stateless: signature and expiry only.
func JWTAuth(issuer *token.Issuer, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims, err := issuer.Parse(tokenString)
			if err != nil {
				logger.Warn("invalid bearer token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			ctx.Request.Header.Set(HeaderUserID, claims.UserID)
			ctx.Request.Header.Set(HeaderUsername, claims.Username)
			ctx.Request.Header.Set(HeaderTokenID, claims.ID)

			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
