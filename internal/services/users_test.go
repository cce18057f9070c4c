package services

import (
	"context"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/auth"
	"shopkart_back_end/internal/models"
)

type userFixture struct {
	users    *fakeUsers
	profiles *fakeProfiles
	carts    cartCreateFailer
	tokens   *memoryTokens
	cache    *countingCache
	mail     *recordingMailer
	storage  *memoryStorage
	svc      *UserService
}

// cartCreateFailer fails Create when err is set.
type cartCreateFailer struct {
	*fakeCarts
	err *error
}

func (c cartCreateFailer) Create(ctx context.Context, cart *models.Cart) error {
	if *c.err != nil {
		return *c.err
	}
	return c.fakeCarts.Create(ctx, cart)
}

func newUserFixture() *userFixture {
	var cartErr error
	f := &userFixture{
		users:    newFakeUsers(),
		profiles: newFakeProfiles(),
		carts:    cartCreateFailer{fakeCarts: newFakeCarts(), err: &cartErr},
		tokens:   newMemoryTokens(),
		cache:    &countingCache{},
		mail:     &recordingMailer{},
		storage:  newMemoryStorage(),
	}
	f.svc = NewUserService(UserDeps{
		Users:       f.users,
		Profiles:    f.profiles,
		Carts:       f.carts,
		Issuer:      auth.NewIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour),
		Tokens:      f.tokens,
		Cache:       f.cache,
		Mailer:      f.mail,
		Storage:     f.storage,
		Async:       syncAsync(nil),
		ServerURL:   "http://api.test",
		FrontendURL: "http://shop.test",
		Logger:      nopLogger(),
	})
	return f
}

func (f *userFixture) register(t *testing.T) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    " Buyer@Shop.test ",
		Username: "Buyer",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	return u
}

// mailedToken extracts the token from the last mailed link with prefix.
func (f *userFixture) mailedToken(t *testing.T, prefix string) string {
	t.Helper()
	require.NotEmpty(t, f.mail.sent)
	html := f.mail.sent[len(f.mail.sent)-1].HTML
	i := strings.Index(html, prefix)
	require.GreaterOrEqual(t, i, 0, "link %s not found in mail", prefix)
	rest := html[i+len(prefix):]
	end := strings.IndexAny(rest, "\"< ")
	require.Greater(t, end, 0)
	return rest[:end]
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()

	u := f.register(t)
	assert.Equal(t, "buyer@shop.test", u.Email)
	assert.Equal(t, "buyer", u.Username)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, models.DefaultAvatar, u.Avatar)
	assert.NotEqual(t, "s3cret-pass", u.Password)
	assert.False(t, u.IsEmailVerified)

	_, err := f.profiles.FindByOwner(ctx, u.ID)
	require.NoError(t, err)
	_, err = f.carts.FindByOwner(ctx, u.ID)
	require.NoError(t, err)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "buyer@shop.test", f.mail.sent[0].To)

	_, err = f.svc.Register(ctx, RegisterInput{Email: "other@shop.test", Username: "BUYER", Password: "x"})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegister_RollsBack(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	*f.carts.err = errors.New("write conflict")

	_, err := f.svc.Register(ctx, RegisterInput{Email: "a@shop.test", Username: "a", Password: "pw"})
	require.Error(t, err)

	_, err = f.users.FindByEmailOrUsername(ctx, "a@shop.test", "")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, f.profiles.byOwner)
	assert.Empty(t, f.mail.sent)
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	u := f.register(t)
	token := f.mailedToken(t, "/api/v1/users/verify-email/")

	_, err := f.svc.VerifyEmail(ctx, "not-a-token")
	require.ErrorIs(t, err, apperr.ErrValidation)

	verified, err := f.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, verified.IsEmailVerified)
	assert.Empty(t, verified.EmailVerificationToken)
	assert.Contains(t, f.cache.invalidated, u.ID)

	_, err = f.svc.VerifyEmail(ctx, token)
	require.ErrorIs(t, err, apperr.ErrValidation, "tokens are single use")

	err = f.svc.ResendVerification(ctx, u.ID)
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLoginRefreshLogout(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	u := f.register(t)

	_, err := f.svc.Login(ctx, "nobody", "x")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Login(ctx, "buyer", "wrong")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	session, err := f.svc.Login(ctx, "BUYER@shop.test", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.User.ID)
	assert.Equal(t, session.Tokens.RefreshToken, f.tokens.refresh[u.ID.Hex()])

	rotated, err := f.svc.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, rotated.Tokens.RefreshToken, f.tokens.refresh[u.ID.Hex()])

	_, err = f.svc.Refresh(ctx, session.Tokens.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized, "a rotated token cannot be reused")

	require.NoError(t, f.svc.Logout(ctx, u.ID, rotated.Tokens.AccessID, time.Now().Add(time.Hour)))
	assert.Empty(t, f.tokens.refresh[u.ID.Hex()])
	assert.Contains(t, f.tokens.blacklisted, rotated.Tokens.AccessID)

	_, err = f.svc.Refresh(ctx, rotated.Tokens.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	f.register(t)

	require.ErrorIs(t, f.svc.ForgotPassword(ctx, "ghost@shop.test"), apperr.ErrNotFound)
	require.NoError(t, f.svc.ForgotPassword(ctx, "buyer@shop.test"))
	token := f.mailedToken(t, "http://shop.test/reset-password/")

	require.NoError(t, f.svc.ResetPassword(ctx, token, "brand-new"))
	require.ErrorIs(t, f.svc.ResetPassword(ctx, token, "again"), apperr.ErrValidation)

	_, err := f.svc.Login(ctx, "buyer", "s3cret-pass")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.svc.Login(ctx, "buyer", "brand-new")
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	u := f.register(t)

	require.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, "wrong", "next"), apperr.ErrUnauthorized)
	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, "s3cret-pass", "next"))

	_, err := f.svc.Login(ctx, "buyer", "next")
	require.NoError(t, err)
}

func TestUpdateAvatar(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	u := f.register(t)

	first, err := f.svc.UpdateAvatar(ctx, u.ID, &multipart.FileHeader{Filename: "a.png"})
	require.NoError(t, err)
	assert.True(t, f.storage.stored[first.Avatar])
	assert.Empty(t, f.storage.deleted, "the default avatar is never deleted")

	second, err := f.svc.UpdateAvatar(ctx, u.ID, &multipart.FileHeader{Filename: "b.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{first.Avatar}, f.storage.deleted)
	assert.NotEqual(t, first.Avatar, second.Avatar)
}

func TestAssignRole(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	u := f.register(t)

	require.ErrorIs(t, f.svc.AssignRole(ctx, u.ID, "ROOT"), apperr.ErrValidation)
	require.ErrorIs(t, f.svc.AssignRole(ctx, newID(), models.RoleAdmin), apperr.ErrNotFound)
	require.NoError(t, f.svc.AssignRole(ctx, u.ID, models.RoleAdmin))

	got, err := f.svc.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
}

func TestLoginWithIdentity(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	f.register(t)

	_, err := f.svc.LoginWithIdentity(ctx, auth.Identity{Provider: "google", Email: "buyer@shop.test"})
	require.ErrorIs(t, err, apperr.ErrConflict, "password accounts cannot sign in with google")

	session, err := f.svc.LoginWithIdentity(ctx, auth.Identity{Provider: "google", Email: "Buyer@Gmail.test", Avatar: "https://img.test/me.png"})
	require.NoError(t, err)
	u := session.User
	assert.Equal(t, models.LoginGoogle, u.LoginType)
	assert.True(t, u.IsEmailVerified)
	assert.NotEqual(t, "buyer", u.Username, "taken usernames get a suffix")
	assert.True(t, strings.HasPrefix(u.Username, "buyer-"))
	assert.Equal(t, "https://img.test/me.png", u.Avatar)

	again, err := f.svc.LoginWithIdentity(ctx, auth.Identity{Provider: "google", Email: "buyer@gmail.test"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.User.ID)

	_, err = f.svc.Login(ctx, "buyer@gmail.test", "")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}
