package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/shinyyama/harvest-market-backend/internal/reqctx"
	"google.golang.org/api/option"
)

const (
	ctxKeyUID   = "uid"
	ctxKeyActor = "actor"

	// DevUIDHeader carries the caller's uid when AUTH_MODE=dev.
	DevUIDHeader = "X-Dev-UID"
)

// ActorResolver maps an authenticated uid onto a role-typed actor.
type ActorResolver interface {
	Resolve(ctx context.Context, uid string) (identity.Actor, error)
}

type AuthMiddleware struct {
	authClient *auth.Client
	resolver   ActorResolver
	dev        bool
}

// NewAuthMiddleware verifies Firebase ID tokens. credentialsFile may be empty
// to use application default credentials.
func NewAuthMiddleware(ctx context.Context, projectID, credentialsFile string, resolver ActorResolver) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "FIREBASE_PROJECT_ID is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{authClient: client, resolver: resolver}, nil
}

// NewDevAuthMiddleware trusts the uid in the X-Dev-UID header. Local use only.
func NewDevAuthMiddleware(resolver ActorResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, dev: true}
}

func (m *AuthMiddleware) uid(c echo.Context) (string, error) {
	if m.dev {
		uid := strings.TrimSpace(c.Request().Header.Get(DevUIDHeader))
		if uid == "" {
			return "", errors.New("missing " + DevUIDHeader)
		}
		return uid, nil
	}
	authz := c.Request().Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	token, err := m.authClient.VerifyIDToken(c.Request().Context(), strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		return "", err
	}
	return token.UID, nil
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := m.uid(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		actor, err := m.resolver.Resolve(c.Request().Context(), uid)
		switch {
		case errors.Is(err, identity.ErrUnknownUser):
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unknown_user"})
		case errors.Is(err, repository.ErrDBNotReady):
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "db_not_ready"})
		case err != nil:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		}
		c.Set(ctxKeyUID, uid)
		c.Set(ctxKeyActor, actor)
		req := c.Request()
		c.SetRequest(req.WithContext(reqctx.WithUserID(req.Context(), actor.UserID())))
		return next(c)
	}
}

// ActorFrom returns the actor stored by RequireAuth.
func ActorFrom(c echo.Context) (identity.Actor, bool) {
	a, ok := c.Get(ctxKeyActor).(identity.Actor)
	return a, ok && a != nil
}

// WithActor stores actor on c the way RequireAuth does.
func WithActor(c echo.Context, actor identity.Actor) {
	c.Set(ctxKeyActor, actor)
}
