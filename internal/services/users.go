package services

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/auth"
	"shopkart_back_end/internal/mailer"
	"shopkart_back_end/internal/models"
)

type UserDeps struct {
	Users    UserStore
	Profiles ProfileStore
	Carts    CartStore
	Issuer   *auth.Issuer
	Tokens   TokenStore
	Cache    UserCache
	Mailer   Mailer
	Storage  FileStorage
	Async    Async
	// ServerURL and FrontendURL build the links mailed to users.
	ServerURL   string
	FrontendURL string
	Logger      *zap.Logger
}

type UserService struct {
	UserDeps
	now func() time.Time
}

func NewUserService(deps UserDeps) *UserService {
	return &UserService{UserDeps: deps, now: time.Now}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     models.Role
}

// Session is the result of a successful authentication.
type Session struct {
	User   *models.User
	Tokens auth.TokenPair
}

func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates the user followed by its profile and cart. A failed step
// rolls back the documents created before it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeIdentifier(in.Email)
	username := normalizeIdentifier(in.Username)

	_, err := s.Users.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil:
		return nil, apperr.Conflict("User with email or username already exists")
	case !errors.Is(err, models.ErrNotFound):
		return nil, errors.Wrap(err, "check existing user")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if !role.Valid() {
		role = models.RoleUser
	}
	verification, err := auth.NewTemporaryToken(s.now(), models.TemporaryTokenExpiry)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Avatar:                  models.DefaultAvatar,
		Username:                username,
		Email:                   email,
		Role:                    role,
		LoginType:               models.LoginEmailPassword,
		Password:                hash,
		EmailVerificationToken:  verification.Hashed,
		EmailVerificationExpiry: &verification.Expiry,
	}
	if err := s.createAccount(ctx, u); err != nil {
		return nil, err
	}

	link := s.ServerURL + "/api/v1/users/verify-email/" + verification.Unhashed
	s.mail("email verification", func() (mailer.Message, error) {
		return mailer.EmailVerification(u.Email, u.Username, link)
	})
	return u, nil
}

func (s *UserService) createAccount(ctx context.Context, u *models.User) error {
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return apperr.Conflict("User with email or username already exists")
		}
		return errors.Wrap(err, "create user")
	}

	if err := s.Profiles.Create(ctx, &models.Profile{Owner: u.ID}); err != nil {
		s.rollback(ctx, u.ID, false)
		return errors.Wrap(err, "create profile")
	}
	if err := s.Carts.Create(ctx, &models.Cart{Owner: u.ID, Items: []models.CartItem{}}); err != nil {
		s.rollback(ctx, u.ID, true)
		return errors.Wrap(err, "create cart")
	}
	return nil
}

func (s *UserService) rollback(ctx context.Context, id ObjectID, profile bool) {
	if profile {
		if err := s.Profiles.DeleteByOwner(ctx, id); err != nil {
			s.Logger.Error("Rollback of profile failed", zap.String("user", id.Hex()), zap.Error(err))
		}
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		s.Logger.Error("Rollback of user failed", zap.String("user", id.Hex()), zap.Error(err))
	}
}

// mail renders and sends a message in the background.
func (s *UserService) mail(task string, build func() (mailer.Message, error)) {
	s.Async(task, func(ctx context.Context) error {
		msg, err := build()
		if err != nil {
			return err
		}
		return s.Mailer.Send(ctx, msg)
	})
}

func (s *UserService) issue(ctx context.Context, u *models.User) (*Session, error) {
	pair, err := s.Issuer.Issue(u)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.StoreRefreshToken(ctx, u.ID.Hex(), pair.RefreshToken, s.Issuer.RefreshTTL); err != nil {
		return nil, errors.Wrap(err, "store refresh token")
	}
	return &Session{User: u, Tokens: pair}, nil
}

// Login authenticates by email or username.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	id := normalizeIdentifier(identifier)
	u, err := s.Users.FindByEmailOrUsername(ctx, id, id)
	if err != nil {
		return nil, notFound(err, "User does not exist")
	}
	if u.LoginType != models.LoginEmailPassword || u.Password == "" {
		return nil, apperr.Unauthorized("You have previously registered using %s. Please use the %s login option to access your account.",
			strings.ToLower(string(u.LoginType)), strings.ToLower(string(u.LoginType)))
	}

	ok, err := auth.VerifyPassword(password, u.Password)
	if err != nil {
		return nil, errors.Wrap(err, "verify password")
	}
	if !ok {
		return nil, apperr.Unauthorized("Invalid user credentials")
	}
	return s.issue(ctx, u)
}

// Logout drops the refresh token and blacklists the access token until it
// would have expired.
func (s *UserService) Logout(ctx context.Context, userID ObjectID, accessID string, accessExpiry time.Time) error {
	if err := s.Tokens.DeleteRefreshToken(ctx, userID.Hex()); err != nil {
		return errors.Wrap(err, "delete refresh token")
	}
	if accessID == "" {
		return nil
	}
	if err := s.Tokens.Blacklist(ctx, accessID, accessExpiry.Sub(s.now())); err != nil {
		return errors.Wrap(err, "blacklist access token")
	}
	return nil
}

// Refresh rotates a refresh token. A token is accepted once.
func (s *UserService) Refresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}
	claims, err := s.Issuer.ParseRefresh(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}
	id, err := parseObjectID(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	stored, err := s.Tokens.RefreshToken(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load refresh token")
	}
	if stored != token {
		return nil, apperr.Unauthorized("Refresh token is expired or used")
	}

	u, err := s.Users.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	return s.issue(ctx, u)
}

func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	u, err := s.Users.FindByEmailVerificationToken(ctx, auth.HashToken(token), s.now())
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.Validation("Token is invalid or expired")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by token")
	}

	u.EmailVerificationToken = ""
	u.EmailVerificationExpiry = nil
	u.IsEmailVerified = true
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) ResendVerification(ctx context.Context, userID ObjectID) error {
	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return notFound(err, "User does not exists")
	}
	if u.IsEmailVerified {
		return apperr.Conflict("Email is already verified!")
	}

	verification, err := auth.NewTemporaryToken(s.now(), models.TemporaryTokenExpiry)
	if err != nil {
		return err
	}
	u.EmailVerificationToken = verification.Hashed
	u.EmailVerificationExpiry = &verification.Expiry
	if err := s.save(ctx, u); err != nil {
		return err
	}

	link := s.ServerURL + "/api/v1/users/verify-email/" + verification.Unhashed
	s.mail("email verification", func() (mailer.Message, error) {
		return mailer.EmailVerification(u.Email, u.Username, link)
	})
	return nil
}

func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeIdentifier(email)
	u, err := s.Users.FindByEmailOrUsername(ctx, email, "")
	if err != nil {
		return notFound(err, "User does not exists")
	}

	reset, err := auth.NewTemporaryToken(s.now(), models.TemporaryTokenExpiry)
	if err != nil {
		return err
	}
	u.ForgotPasswordToken = reset.Hashed
	u.ForgotPasswordExpiry = &reset.Expiry
	if err := s.save(ctx, u); err != nil {
		return err
	}

	link := s.FrontendURL + "/reset-password/" + reset.Unhashed
	s.mail("password reset", func() (mailer.Message, error) {
		return mailer.ForgotPassword(u.Email, u.Username, link)
	})
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.Users.FindByForgotPasswordToken(ctx, auth.HashToken(token), s.now())
	if errors.Is(err, models.ErrNotFound) {
		return apperr.Validation("Token is invalid or expired")
	}
	if err != nil {
		return errors.Wrap(err, "find user by token")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	u.ForgotPasswordToken = ""
	u.ForgotPasswordExpiry = nil
	if err := s.save(ctx, u); err != nil {
		return err
	}
	return s.revokeSessions(ctx, u.ID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID ObjectID, oldPassword, newPassword string) error {
	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return notFound(err, "User does not exists")
	}
	ok, err := auth.VerifyPassword(oldPassword, u.Password)
	if err != nil && !errors.Is(err, auth.ErrMalformedHash) {
		return errors.Wrap(err, "verify password")
	}
	if !ok {
		return apperr.Unauthorized("Invalid old password")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	return s.save(ctx, u)
}

func (s *UserService) revokeSessions(ctx context.Context, id ObjectID) error {
	if err := s.Tokens.DeleteRefreshToken(ctx, id.Hex()); err != nil {
		return errors.Wrap(err, "delete refresh token")
	}
	return nil
}

func (s *UserService) CurrentUser(ctx context.Context, id ObjectID) (*models.User, error) {
	u, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User does not exists")
	}
	return u, nil
}

// UpdateAvatar stores the new image and deletes the previous upload.
func (s *UserService) UpdateAvatar(ctx context.Context, id ObjectID, file *multipart.FileHeader) (*models.User, error) {
	if file == nil {
		return nil, apperr.Validation("Avatar image is required")
	}
	u, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User does not exists")
	}

	url, err := s.Storage.Upload(ctx, file)
	if err != nil {
		return nil, errors.Wrap(err, "upload avatar")
	}
	previous := u.Avatar
	u.Avatar = url
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}

	if previous != "" && previous != models.DefaultAvatar {
		s.Async("delete old avatar", func(ctx context.Context) error {
			return s.Storage.Delete(ctx, previous)
		})
	}
	return u, nil
}

func (s *UserService) AssignRole(ctx context.Context, id ObjectID, role models.Role) error {
	if !role.Valid() {
		return apperr.Validation("Invalid user role")
	}
	u, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "User does not exist")
	}
	u.Role = role
	return s.save(ctx, u)
}

// LoginWithIdentity signs in the user behind an external identity, creating
// the account on first use.
func (s *UserService) LoginWithIdentity(ctx context.Context, id auth.Identity) (*Session, error) {
	email := normalizeIdentifier(id.Email)
	if email == "" {
		return nil, apperr.Unauthorized("The %s account has no email address", id.Provider)
	}

	u, err := s.Users.FindByEmailOrUsername(ctx, email, "")
	switch {
	case err == nil:
		if u.LoginType != models.LoginGoogle {
			return nil, apperr.Conflict("You have previously registered using %s. Please use the %s login option to access your account.",
				strings.ToLower(string(u.LoginType)), strings.ToLower(string(u.LoginType)))
		}
		return s.issue(ctx, u)
	case !errors.Is(err, models.ErrNotFound):
		return nil, errors.Wrap(err, "find user")
	}

	username, err := s.freeUsername(ctx, email)
	if err != nil {
		return nil, err
	}
	avatar := id.Avatar
	if avatar == "" {
		avatar = models.DefaultAvatar
	}
	u = &models.User{
		Avatar:          avatar,
		Username:        username,
		Email:           email,
		Role:            models.RoleUser,
		LoginType:       models.LoginGoogle,
		IsEmailVerified: true,
	}
	if err := s.createAccount(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// freeUsername derives a username from the local part of email, adding a
// random suffix when it is taken.
func (s *UserService) freeUsername(ctx context.Context, email string) (string, error) {
	base, _, _ := strings.Cut(email, "@")
	_, err := s.Users.FindByEmailOrUsername(ctx, "", base)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return base, nil
	case err != nil:
		return "", errors.Wrap(err, "check username")
	}
	return base + "-" + uuid.NewString()[:6], nil
}

func (s *UserService) save(ctx context.Context, u *models.User) error {
	if err := s.Users.Update(ctx, u); err != nil {
		return notFound(err, "User does not exists")
	}
	s.Cache.Invalidate(ctx, u.ID)
	return nil
}

func parseObjectID(hex string) (ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return ObjectID{}, errors.Wrapf(err, "parse id %q", hex)
	}
	return id, nil
}
