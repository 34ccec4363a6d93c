package api

import (
	"crypto/subtle"
	"strings"

	"fulfillment/internal/apperr"
	"fulfillment/internal/auth"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

func bearerIdentity(c *gin.Context, verifier *auth.Verifier) (*auth.Identity, error) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "missing bearer token")
	}
	return verifier.Verify(strings.TrimSpace(token))
}

// RequireIdentity admits requests carrying a valid access token.
func RequireIdentity(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := bearerIdentity(c, verifier)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireAdminOrInternal admits callers presenting the shared service key, or an admin
// access token. An empty key disables the shared-key path.
func RequireAdminOrInternal(verifier *auth.Verifier, internalKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if presented := c.GetHeader(auth.InternalKeyHeader); internalKey != "" && presented != "" &&
			subtle.ConstantTimeCompare([]byte(presented), []byte(internalKey)) == 1 {
			c.Next()
			return
		}

		id, err := bearerIdentity(c, verifier)
		if err != nil {
			respondError(c, err)
			return
		}
		if !id.IsAdmin() {
			respondError(c, apperr.New(apperr.CodeForbidden, "admin role required"))
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}
