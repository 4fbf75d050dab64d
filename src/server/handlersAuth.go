package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"reefing/src/app"
	cfg "reefing/src/configuration"
	"reefing/src/logger"
	"reefing/src/repository"
)

const (
	identityContextKey = "identity"
	userContextKey     = "user"
)

type (
	// TokenVerifier checks a raw bearer token. *oidc.IDTokenVerifier satisfies it.
	TokenVerifier interface {
		Verify(ctx context.Context, rawToken string) (*oidc.IDToken, error)
	}

	AuthHandler struct {
		verifier          TokenVerifier
		users             *repository.Users
		emailClaim        string
		nameClaim         string
		placeholderDomain string
	}

	// rateLimitedTransport bounds how often the key set is fetched.
	rateLimitedTransport struct {
		limiter *rate.Limiter
		next    http.RoundTripper
	}
)

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("jwks fetch rate limited: %w", err)
	}
	return t.next.RoundTrip(req)
}

// NewVerifier builds an RS256 verifier backed by the identity provider's key set.
// Keys are cached and refetched at most perMinute times a minute.
func NewVerifier(ctx context.Context, config cfg.AuthProperties) *oidc.IDTokenVerifier {
	perMinute := config.JWKSRequestsPerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &rateLimitedTransport{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
			next:    http.DefaultTransport,
		},
	}
	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(ctx, client), config.JWKS())
	return oidc.NewVerifier(config.Issuer, keySet, &oidc.Config{
		ClientID:             config.Audience,
		SupportedSigningAlgs: []string{oidc.RS256},
	})
}

func NewAuthHandler(verifier TokenVerifier, users *repository.Users, config cfg.AuthProperties) *AuthHandler {
	return &AuthHandler{
		verifier:          verifier,
		users:             users,
		emailClaim:        config.EmailClaim,
		nameClaim:         config.NameClaim,
		placeholderDomain: config.PlaceholderDomain,
	}
}

// RequireToken rejects requests without a valid bearer token and stores the caller's
// identity in the gin context.
func (a *AuthHandler) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !found || raw == "" {
			fail(c, http.StatusUnauthorized, "No authorization token was found")
			return
		}

		token, err := a.verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			logger.FromContext(c.Request.Context()).WithError(err).Debug("rejected bearer token")
			fail(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		identity, err := a.identity(token)
		if err != nil {
			failWith(c, err, "Invalid token")
			return
		}
		c.Set(identityContextKey, identity)
		c.Next()
	}
}

func (a *AuthHandler) identity(token *oidc.IDToken) (app.Identity, error) {
	if token.Subject == "" {
		return app.Identity{}, app.Unauthenticated("Unauthorized - missing auth0 ID")
	}
	claims := map[string]any{}
	if err := token.Claims(&claims); err != nil {
		return app.Identity{}, app.Unauthenticated("Invalid token")
	}

	identity := app.Identity{
		Subject: token.Subject,
		Email:   firstClaim(claims, "email", a.emailClaim),
		Name:    firstClaim(claims, "name", a.nameClaim),
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		identity.EmailVerified = &verified
	}
	if identity.Email == "" {
		identity.Email = token.Subject + "@" + a.placeholderDomain
	}
	return identity, nil
}

func firstClaim(claims map[string]any, names ...string) string {
	for _, name := range names {
		if name == "" {
			continue
		}
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// EnsureUser resolves the caller to a local user, creating or linking one on first
// sight, and makes it available to the handlers.
func (a *AuthHandler) EnsureUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := c.Get(identityContextKey)
		if !ok {
			fail(c, http.StatusUnauthorized, "Unauthorized - missing auth0 ID")
			return
		}
		user, err := a.users.Resolve(c.Request.Context(), identity.(app.Identity))
		if err != nil {
			failWith(c, err, "Failed to initialize user")
			return
		}
		ctx, _ := logger.ContextWithUserID(c.Request.Context(), user.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(userContextKey, user)
		c.Next()
	}
}

// currentUser returns the user attached by EnsureUser.
func currentUser(c *gin.Context) *app.User {
	return c.MustGet(userContextKey).(*app.User)
}
