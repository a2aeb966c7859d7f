package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

type RequestData struct {
	UserID      uuid.UUID
	TokenString string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, ctxKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(ctxKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
