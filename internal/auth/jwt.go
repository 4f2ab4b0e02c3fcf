package auth

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"timekeeping-backend/config"
	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/parse"
)

// Claims are the bearer-token claims issued by the identity service.
type Claims struct {
	WorkerID  string   `json:"worker_id"`
	CompanyID string   `json:"company_id"`
	Roles     []string `json:"roles"`
	jwtv5.RegisteredClaims
}

// Manager verifies, and for tooling issues, HS256 bearer tokens.
type Manager struct {
	secret []byte
	issuer string
}

// NewManager creates a token manager.
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Issue signs a token for actor valid for ttl.
func (m *Manager) Issue(actor model.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	roles := make([]string, len(actor.Roles))
	for i, r := range actor.Roles {
		roles[i] = string(r)
	}
	claims := Claims{
		WorkerID:  actor.WorkerID,
		CompanyID: actor.CompanyID,
		Roles:     roles,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			Issuer:    m.issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies a token and returns the caller it identifies. Every
// failure is Unauthenticated, including roles outside the known set.
func (m *Manager) Parse(tokenString string) (model.Actor, error) {
	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(m.issuer))
	}

	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return model.Actor{}, apperr.Unauthenticated("token expired")
		}
		return model.Actor{}, apperr.Unauthenticated("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return model.Actor{}, apperr.Unauthenticated("invalid token")
	}

	return claimsActor(claims)
}

// Unverified reads the caller out of a token without checking its
// signature. Clients use it to learn who they are signed in as; servers
// must use Parse.
func Unverified(tokenString string) (model.Actor, error) {
	claims := &Claims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return model.Actor{}, apperr.Unauthenticated("invalid token")
	}
	return claimsActor(claims)
}

func claimsActor(claims *Claims) (model.Actor, error) {
	workerID, err := parse.ID("worker_id", claims.WorkerID)
	if err != nil {
		return model.Actor{}, apperr.Unauthenticated("token has no valid worker_id")
	}
	companyID, err := parse.ID("company_id", claims.CompanyID)
	if err != nil {
		return model.Actor{}, apperr.Unauthenticated("token has no valid company_id")
	}
	roles, err := parse.Roles(claims.Roles)
	if err != nil {
		return model.Actor{}, apperr.Unauthenticated("token carries an unknown role")
	}

	return model.Actor{WorkerID: workerID, CompanyID: companyID, Roles: roles}, nil
}
