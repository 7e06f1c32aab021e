package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/phrazzld/taskman/internal/service"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	traceIDKey
)

// TraceIDLength is the number of random bytes in a trace ID. The hex form is
// twice as long.
const TraceIDLength = 16

// WithPrincipal returns a copy of ctx carrying the authenticated caller.
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal reports the caller stored by WithPrincipal. A nil principal
// counts as absent.
func GetPrincipal(ctx context.Context) (*service.Principal, bool) {
	p, _ := ctx.Value(principalKey).(*service.Principal)
	return p, p != nil
}

// SetTraceID attaches a fresh trace ID to ctx.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, traceIDKey, newTraceID())
}

// GetTraceID returns the trace ID on ctx, or "".
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

func newTraceID() string {
	var b [TraceIDLength]byte
	if _, err := rand.Read(b[:]); err != nil {
		slog.Error("crypto/rand failed, using clock-derived trace ID", slog.Any("error", err))
		return generateFallbackTraceID()
	}
	return hex.EncodeToString(b[:])
}

func generateFallbackTraceID() string {
	var b [TraceIDLength]byte
	now := time.Now()
	binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint64(b[8:], uint64(now.Unix())^uint64(now.Nanosecond()))
	return hex.EncodeToString(b[:])
}
