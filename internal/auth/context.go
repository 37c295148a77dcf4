package auth

import "context"

// Caller identifies who issued a request.  Every core operation receives it
// through its context instead of reading ambient session state.
type Caller struct {
	Username string
	Role     string
	IP       string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller attached to ctx.  Background work with no
// caller is attributed to "system".
func CallerFrom(ctx context.Context) Caller {
	if c, ok := ctx.Value(callerKey{}).(Caller); ok {
		return c
	}
	return Caller{Username: "system"}
}
