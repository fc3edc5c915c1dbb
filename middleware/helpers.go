package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-tournaments/services"
)

type contextKey string

const actorContextKey contextKey = "actor"

var errNoActor = errors.New("actor not found in context")

func WithActor(ctx context.Context, actor services.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func GetActorFromContext(ctx context.Context) (services.Actor, error) {
	actor, ok := ctx.Value(actorContextKey).(services.Actor)
	if !ok {
		return services.Actor{}, errNoActor
	}
	return actor, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
	}
}
