package ctxutil

import "context"

// GuestUserID is the workspace owner used when no identity is attached to a request.
const GuestUserID = "guest"

type requestDataKey struct{}

type RequestData struct {
	UserID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// UserID returns the request's user id, or GuestUserID when none is attached.
func UserID(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil && rd.UserID != "" {
		return rd.UserID
	}
	return GuestUserID
}
