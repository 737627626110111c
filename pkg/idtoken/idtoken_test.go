package idtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://id.example.com"
	testAudience = "sitepulse"
	testSecret   = "test-issuer-secret"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss": testIssuer,
		"aud": testAudience,
		"sub": "federated-user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
}

func TestVerify(t *testing.T) {
	v := NewVerifier(testIssuer, testAudience, testSecret)

	sub, err := v.Verify(signToken(t, testSecret, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "federated-user-42", sub)
}

func TestVerify_Rejections(t *testing.T) {
	v := NewVerifier(testIssuer, testAudience, testSecret)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "https://evil.example.com"

	wrongAudience := validClaims()
	wrongAudience["aud"] = "other-service"

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	noSubject := validClaims()
	delete(noSubject, "sub")

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong secret", signToken(t, "other-secret", validClaims()), ErrInvalidToken},
		{"expired", signToken(t, testSecret, expired), ErrInvalidToken},
		{"wrong issuer", signToken(t, testSecret, wrongIssuer), ErrInvalidToken},
		{"wrong audience", signToken(t, testSecret, wrongAudience), ErrInvalidToken},
		{"missing expiry", signToken(t, testSecret, noExpiry), ErrInvalidToken},
		{"missing subject", signToken(t, testSecret, noSubject), ErrNoSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerify_RejectsNonHMAC(t *testing.T) {
	v := NewVerifier(testIssuer, testAudience, testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
