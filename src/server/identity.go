package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	cfg "github.com/SatishBytes/thumbly/src/configuration"
	db "github.com/SatishBytes/thumbly/src/repository"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

type (
	// TokenVerifier checks a raw ID token and returns the subject it
	// belongs to.
	TokenVerifier interface {
		Verify(ctx context.Context, rawToken string) (string, error)
	}

	// IdentityResolver derives a stable user identifier from an inbound
	// request. In demo mode it always yields the configured fallback
	// identity; otherwise the ID token is verified against the OIDC
	// provider, with verified tokens cached in the session store.
	IdentityResolver struct {
		demoMode   bool
		demoUserID string
		cookieName string
		verifier   TokenVerifier
		sessions   db.SessionStore
	}

	oidcVerifier struct {
		verifier *oidc.IDTokenVerifier
	}
)

func NewIdentityResolver(config *cfg.Properties, sessions db.SessionStore) *IdentityResolver {
	resolver := &IdentityResolver{
		demoMode:   config.Auth.DemoEnabled(),
		demoUserID: config.Auth.DemoUserID,
		cookieName: config.Auth.IDTokenCookieName,
		sessions:   sessions,
	}
	if resolver.demoMode {
		log.Printf("identity: demo mode enabled, every request resolves to %s", resolver.demoUserID)
		return resolver
	}

	provider, err := oidc.NewProvider(oauth2.NoContext, config.Auth.Host)
	if err != nil {
		// Without a provider every production request resolves to none.
		log.Printf("identity: can not create OIDC provider for %s: %v", config.Auth.Host, err)
		return resolver
	}
	resolver.verifier = &oidcVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: config.Auth.ID}),
	}
	return resolver
}

// Resolve returns the user identity of the request, or false when there is
// no authenticated session.
func (r *IdentityResolver) Resolve(c *gin.Context) (string, bool) {
	if r.demoMode {
		return r.demoUserID, true
	}

	raw := r.rawToken(c)
	if raw == "" {
		return "", false
	}
	if userID, ok := r.sessions.Lookup(raw); ok {
		return userID, true
	}
	if r.verifier == nil {
		return "", false
	}
	userID, err := r.verifier.Verify(c.Request.Context(), raw)
	if err != nil {
		log.Printf("identity: token rejected: %v", err)
		return "", false
	}
	r.sessions.Put(raw, userID)
	return userID, true
}

// EnsureAuthenticated resolves the identity or rejects the request with 401
// and signals the handler to stop.
func (r *IdentityResolver) EnsureAuthenticated(c *gin.Context) (string, bool) {
	userID, ok := r.Resolve(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// rawToken extracts the ID token from the Authorization header, falling back
// to the configured cookie.
func (r *IdentityResolver) rawToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	cookie, err := c.Cookie(r.cookieName)
	if err != nil {
		return ""
	}
	return cookie
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}
	return idToken.Subject, nil
}
