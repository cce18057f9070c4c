package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"shopkart_back_end/internal/models"
)

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("s3cret!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPassword_AcceptsBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := VerifyPassword("hunter2", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("nope", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPassword_Malformed(t *testing.T) {
	_, err := VerifyPassword("x", "plaintext")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestTemporaryToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, err := NewTemporaryToken(now, models.TemporaryTokenExpiry)
	require.NoError(t, err)

	assert.Len(t, tok.Unhashed, 40)
	assert.Len(t, tok.Hashed, 64)
	assert.Equal(t, HashToken(tok.Unhashed), tok.Hashed)
	assert.Equal(t, now.Add(20*time.Minute), tok.Expiry)
}

func TestIssuer_IssueAndParse(t *testing.T) {
	iss := NewIssuer("access", "refresh", time.Hour, 24*time.Hour)
	u := &models.User{ID: primitive.NewObjectID(), Email: "a@b.co", Username: "alice", Role: models.RoleAdmin}

	pair, err := iss.Issue(u)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessID)

	access, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), access.UserID)
	assert.Equal(t, "alice", access.Username)
	assert.Equal(t, models.RoleAdmin, access.Role)
	assert.Equal(t, pair.AccessID, access.ID)

	refresh, err := iss.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), refresh.UserID)

	_, err = iss.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsExpiredAndForeignAlg(t *testing.T) {
	iss := NewIssuer("access", "refresh", time.Minute, time.Hour)
	issuedAt := time.Now()
	iss.now = func() time.Time { return issuedAt }

	pair, err := iss.Issue(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	iss.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = iss.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{UserID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.ParseAccess(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
