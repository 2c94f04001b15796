package middleware

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apierrors "github.com/truesource/storefront/internal/api/shared/errors"
	"github.com/truesource/storefront/internal/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	AUTH_SUBJECT_KEY contextKey = "auth_subject"
	JWT_CLAIMS_KEY   contextKey = "jwt_claims"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string // RSA public key in PEM format
}

// SubjectAuth returns a gin middleware that accepts an RS256 Bearer token carrying a subject.
// The subject is made available to handlers through Subject.
func SubjectAuth(cfg AuthConfig) gin.HandlerFunc {
	publicKey, keyErr := parseRSAPublicKey(cfg.JWTPublicKey)
	if keyErr != nil {
		logger.Warn("JWT authentication disabled, every request will be rejected", zap.Error(keyErr))
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			claims *jwt.RegisteredClaims
			err    = keyErr
		)
		if err == nil {
			claims, err = authenticateBearer(c.GetHeader("Authorization"), publicKey)
		}
		if err == nil && claims.Subject == "" {
			err = errors.New("token has no subject")
		}
		if err != nil {
			logger.WarnCtx(ctx, "Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			apiErr := apierrors.NewUnauthorizedError("Authentication failed", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.Response(apiErr))
			return
		}

		logger.DebugCtx(ctx, "JWT authentication successful",
			zap.String("path", c.Request.URL.Path),
			zap.String("subject", claims.Subject),
		)
		c.Set(string(JWT_CLAIMS_KEY), claims)
		c.Set(string(AUTH_SUBJECT_KEY), claims.Subject)

		c.Next()
	}
}

// Subject returns the authenticated subject stored by SubjectAuth
func Subject(c *gin.Context) string {
	subject, _ := c.Get(string(AUTH_SUBJECT_KEY))
	s, _ := subject.(string)
	return s
}

// authenticateBearer extracts the Bearer token of an Authorization header and verifies it
func authenticateBearer(header string, publicKey *rsa.PublicKey) (*jwt.RegisteredClaims, error) {
	if header == "" {
		return nil, errors.New("missing Authorization header")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, errors.New("invalid Authorization header format")
	}
	if !strings.EqualFold(scheme, "bearer") {
		return nil, fmt.Errorf("unsupported authorization type: %s", scheme)
	}

	claims := &jwt.RegisteredClaims{}
	// exp and nbf are checked by the parser when present
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims,
		func(*jwt.Token) (interface{}, error) { return publicKey, nil },
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return claims, nil
}

// parseRSAPublicKey parses an RSA public key from PEM format
func parseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	if publicKeyPEM == "" {
		return nil, errors.New("JWT public key not configured")
	}

	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing public key")
	}

	// PKIX first, PKCS1 otherwise
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}

	return rsaKey, nil
}
