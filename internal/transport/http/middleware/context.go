package middleware

import (
	"context"

	"hris/internal/domain/auth"
	"hris/internal/platform/requestctx"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// WithUser attaches the principal and mirrors its tenant into requestctx so
// stores and loggers below the transport layer can see it.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUser, user)
	return requestctx.WithTenantID(ctx, user.TenantID)
}
