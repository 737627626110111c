// Package idtoken verifies federated identity tokens presented at app
// registration. A token is accepted only if it is signed by the configured
// trusted issuer and addressed to this service's audience; the verified
// subject claim is recorded on the registered application.
package idtoken

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrNoSubject    = errors.New("identity token has no subject")
)

type Verifier struct {
	issuer   string
	audience string
	secret   []byte
}

func NewVerifier(issuer, audience, secret string) *Verifier {
	return &Verifier{
		issuer:   issuer,
		audience: audience,
		secret:   []byte(secret),
	}
}

// Verify parses and validates tokenString and returns the subject claim.
// Signature, expiry, issuer and audience are all checked.
func (v *Verifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return v.secret, nil
		},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrNoSubject
	}

	return sub, nil
}
