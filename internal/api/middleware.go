package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const reviewerIdentityKey = "reviewer_identity"

// reviewerClaims is the JWT this system expects: a reviewer's identity
// in Subject, nothing else, following kube-rca-backend's authClaims
// shape but without the login/signup fields this system has no use
// for (reviewer identities are issued by whatever upstream auth system
// a deployment already has, not managed here).
type reviewerClaims struct {
	jwt.RegisteredClaims
}

// AuthMiddleware validates a bearer JWT signed with secret and stores
// the reviewer's identity (the token's Subject) in gin's context,
// mirroring kube-rca-backend's AuthMiddleware shape.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims := &reviewerClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Method)
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(reviewerIdentityKey, claims.Subject)
		c.Next()
	}
}

// ReviewerIdentity retrieves the identity AuthMiddleware attached to
// the request context.
func ReviewerIdentity(c *gin.Context) string {
	v, _ := c.Get(reviewerIdentityKey)
	identity, _ := v.(string)
	return identity
}
