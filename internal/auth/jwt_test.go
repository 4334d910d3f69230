package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := IssueToken("secret", "alice", time.Hour)
	require.NoError(t, err)

	sub, err := Subject("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestRejects(t *testing.T) {
	good, err := IssueToken("secret", "alice", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken("secret", "alice", -time.Minute)
	require.NoError(t, err)
	noSub, err := IssueToken("secret", "", time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct {
		secret, token string
	}{
		"wrong secret":  {"other", good},
		"expired":       {"secret", expired},
		"no subject":    {"secret", noSub},
		"alg none":      {"secret", none},
		"garbage":       {"secret", "not-a-token"},
		"secret absent": {"", good},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Subject(tc.secret, tc.token)
			assert.Error(t, err)
		})
	}

	_, err = IssueToken("", "alice", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
