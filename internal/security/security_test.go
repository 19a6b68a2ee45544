package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPasswordWithParams("correct horse", fastParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hash), "$argon2id$v=19$t=1,m=8192,p=1$"))

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, in := range []string{"", "plain", "$argon2i$v=19$t=1,m=1,p=1$c2FsdA$aGFzaA", "$argon2id$v=19$t=x$c2FsdA$aGFzaA", "$argon2id$v=19$t=1,m=1,p=1$!!$aGFzaA"} {
		_, err := VerifyPassword("pw", []byte(in))
		assert.ErrorIs(t, err, ErrMalformedHash, in)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := HashPasswordWithParams("pw", fastParams)
	require.NoError(t, err)
	assert.True(t, NeedsRehash(weak))
	assert.True(t, NeedsRehash([]byte("garbage")))
}

func TestCheckPasswordPolicy(t *testing.T) {
	assert.Error(t, CheckPasswordPolicy("short"))
	assert.NoError(t, CheckPasswordPolicy("long enough"))
	assert.Error(t, CheckPasswordPolicy(strings.Repeat("a", MaxPasswordLength+1)))
}

func TestGenerateTemporaryPassword(t *testing.T) {
	a, err := GenerateTemporaryPassword(12)
	require.NoError(t, err)
	b, err := GenerateTemporaryPassword(12)
	require.NoError(t, err)
	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
	assert.NoError(t, CheckPasswordPolicy(a))

	short, err := GenerateTemporaryPassword(2)
	require.NoError(t, err)
	assert.Len(t, short, 12)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	sub := AccessSubject{UserID: "u1", SessionID: "s1", DeviceID: "d1", Role: "officer"}
	token, err := GenerateAccessToken("secret", sub, time.Now(), time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "d1", claims.DeviceID)
	assert.Equal(t, "officer", claims.Role)
}

func TestAccessTokenRejected(t *testing.T) {
	sub := AccessSubject{UserID: "u1", SessionID: "s1", Role: "citizen"}

	token, err := GenerateAccessToken("secret", sub, time.Now(), time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateAccessToken("secret", sub, time.Now().Add(-time.Hour), time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(expired, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken("not.a.token", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = GenerateAccessToken("", sub, time.Now(), time.Minute)
	assert.Error(t, err)
}

func TestRefreshTokenHash(t *testing.T) {
	token, hash, err := GenerateRefreshToken(0)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, HashRefreshToken(token), hash)
}
