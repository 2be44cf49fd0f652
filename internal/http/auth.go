package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// UserClaims are the claims of an access token issued by the identity service.
type UserClaims struct {
	UserID     string `json:"uid"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

type actorKey struct{}

// Authenticator verifies HS256 bearer tokens and enforces role gates.
type Authenticator struct {
	secret []byte
	logger *zap.Logger
}

func NewAuthenticator(secret string, logger *zap.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), logger: logger}
}

// ParseToken validates the signature and expiry of a token and returns its actor.
func (a *Authenticator) ParseToken(tokenString string) (domain.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Actor{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, jwt.ErrTokenInvalidClaims)
	}
	return domain.Actor{
		UserID:     claims.UserID,
		Role:       domain.Role(claims.Role),
		Department: claims.Department,
	}, nil
}

// Require authenticates the request and admits it when the actor holds one of
// roles. No roles means any authenticated actor.
func (a *Authenticator) Require(roles ...domain.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
				token = token[7:]
			} else {
				token = ""
			}
			if token == "" {
				writeError(w, r, a.logger, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized))
				return
			}
			actor, err := a.ParseToken(token)
			if err != nil {
				a.logger.Debug("Rejected token", zap.String("path", r.URL.Path), zap.Error(err))
				writeError(w, r, a.logger, err)
				return
			}
			if len(roles) > 0 && !actor.HasRole(roles...) {
				writeError(w, r, a.logger, fmt.Errorf("%w: role %s may not access this resource", domain.ErrForbidden, actor.Role))
				return
			}
			next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
		}
	}
}

// actorFrom returns the actor stored by Require.
func actorFrom(r *http.Request) (domain.Actor, error) {
	actor, ok := r.Context().Value(actorKey{}).(domain.Actor)
	if !ok {
		return domain.Actor{}, errors.New("no authenticated actor on request")
	}
	return actor, nil
}
