package middleware

import "context"

type ctxKey int

const (
	ctxCorrelationID ctxKey = iota
	ctxClaims
)

// GetCorrelationID returns the id attached by CorrelationID, or "".
func GetCorrelationID(ctx context.Context) string {
	s, _ := ctx.Value(ctxCorrelationID).(string)
	return s
}

// GetClaims returns the verified claims, or nil for a guest request.
func GetClaims(ctx context.Context) *Claims {
	if c, ok := ctx.Value(ctxClaims).(*Claims); ok {
		return c
	}
	return nil
}
