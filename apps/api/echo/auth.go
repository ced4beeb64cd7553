package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
)

const (
	contextTokenKey = "sessionToken"
	tokenAudience   = "FTAD"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	SDO        string `json:"sdo,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
	Email      string `json:"email,omitempty"`
}

func (c Claims) session() account.Session {
	return account.Session{Username: c.Subject, SDO: c.SDO, SchoolName: c.SchoolName, Email: c.Email}
}

type authenticator struct {
	issuer     string
	expiration time.Duration
	jwtConfig  middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		issuer:     conf.AppName,
		expiration: conf.Server.JWTExpirationDelta,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// sessionClaims never set an expiry unless one is configured: operator sessions last until logout.
func (a *authenticator) sessionClaims(sess account.Session) *Claims {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:   a.issuer,
			Subject:  sess.Username,
			Audience: tokenAudience,
			IssuedAt: now.Unix(),
		},
		SDO:        sess.SDO,
		SchoolName: sess.SchoolName,
		Email:      sess.Email,
	}
	if a.expiration > 0 {
		claims.ExpiresAt = now.Add(a.expiration).Unix()
	}
	return claims
}

// GenerateToken generates a signed JWT token string representing the session.
func (a *authenticator) GenerateToken(sess account.Session) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, a.sessionClaims(sess))

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (account.Session, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return account.Session{}, err
	}
	return claims.session(), nil
}
