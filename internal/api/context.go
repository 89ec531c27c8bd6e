package api

import (
	"context"
	"errors"
)

type sessionKeyType struct{}

var sessionKey sessionKeyType

type sessionContext struct {
	token string
	live  *liveSession
}

func contextWithSession(ctx context.Context, sc sessionContext) context.Context {
	return context.WithValue(ctx, sessionKey, sc)
}

func sessionFromContext(ctx context.Context) (sessionContext, error) {
	sc, ok := ctx.Value(sessionKey).(sessionContext)
	if !ok || sc.live == nil {
		return sessionContext{}, errors.New("missing session context")
	}
	return sc, nil
}
