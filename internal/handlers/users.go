package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/auth"
	"shopkart_back_end/internal/middleware"
	"shopkart_back_end/internal/models"
	"shopkart_back_end/internal/services"
)

const refreshTokenCookie = "refreshToken"

type UserHandler struct {
	users *services.UserService
	// google is nil when Google login is not configured.
	google        *auth.GoogleOAuth
	accessTTL     time.Duration
	refreshTTL    time.Duration
	frontendURL   string
	secureCookies bool
}

func NewUserHandler(users *services.UserService, google *auth.GoogleOAuth, issuer *auth.Issuer, frontendURL string, secureCookies bool) *UserHandler {
	return &UserHandler{
		users:         users,
		google:        google,
		accessTTL:     issuer.AccessTTL,
		refreshTTL:    issuer.RefreshTTL,
		frontendURL:   frontendURL,
		secureCookies: secureCookies,
	}
}

type sessionResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func (h *UserHandler) setCookies(c *gin.Context, tokens auth.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, int(h.accessTTL.Seconds()), "/", "", h.secureCookies, true)
	c.SetCookie(refreshTokenCookie, tokens.RefreshToken, int(h.refreshTTL.Seconds()), "/", "", h.secureCookies, true)
}

func (h *UserHandler) clearCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", h.secureCookies, true)
}

func (h *UserHandler) session(c *gin.Context, s *services.Session, message string) {
	h.setCookies(c, s.Tokens)
	respond(c, http.StatusOK, sessionResponse{
		User:         s.User,
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
	}, message)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=ADMIN USER"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.Register(ctx, services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"user": user},
		"Users registered successfully and verification email has been sent on your email.")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required_without=Username,omitempty,email"`
	Username string `json:"username" binding:"required_without=Email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	s, err := h.users.Login(ctx, identifier, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.session(c, s, "User logged in successfully")
}

func (h *UserHandler) Logout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	var accessID string
	if claims := middleware.AccessClaims(c); claims != nil {
		accessID = claims.ID
	}
	if err := h.users.Logout(ctx, currentUserID(c), accessID, middleware.AccessExpiry(c)); err != nil {
		fail(c, err)
		return
	}
	h.clearCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	// The body is optional; the cookie is used when it is absent.
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshTokenCookie)
	}
	if token == "" {
		fail(c, apperr.Unauthorized("Unauthorized request"))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	s, err := h.users.Refresh(ctx, token)
	if err != nil {
		fail(c, err)
		return
	}
	h.setCookies(c, s.Tokens)
	respond(c, http.StatusOK, gin.H{
		"accessToken":  s.Tokens.AccessToken,
		"refreshToken": s.Tokens.RefreshToken,
	}, "Access token refreshed")
}

func (h *UserHandler) VerifyEmail(c *gin.Context) {
	token := c.Param("verificationToken")
	if token == "" {
		fail(c, apperr.Validation("Email verification token is missing"))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.users.VerifyEmail(ctx, token); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"isEmailVerified": true}, "Email is verified")
}

func (h *UserHandler) ResendVerification(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.users.ResendVerification(ctx, currentUserID(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Mail has been sent to your mail ID")
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.users.ForgotPassword(ctx, req.Email); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Password reset mail has been sent on your mail id")
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.users.ResetPassword(ctx, c.Param("resetToken"), req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Password reset successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.users.ChangePassword(ctx, currentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *UserHandler) CurrentUser(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.CurrentUser(ctx, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "Current user fetched successfully")
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		fail(c, apperr.Validation("Avatar image is required"))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.UpdateAvatar(ctx, currentUserID(c), file)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "Avatar updated successfully")
}

type assignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN USER"`
}

func (h *UserHandler) AssignRole(c *gin.Context) {
	id, err := objectIDParam(c, "userId")
	if err != nil {
		fail(c, err)
		return
	}
	var req assignRoleRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.users.AssignRole(ctx, id, models.Role(req.Role)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Role changed for the user")
}

func (h *UserHandler) requireGoogle(c *gin.Context) bool {
	if h.google == nil {
		fail(c, apperr.Unavailable("Google login is not enabled"))
		return false
	}
	return true
}

// GoogleBegin starts the redirect flow.
func (h *UserHandler) GoogleBegin(c *gin.Context) {
	if !h.requireGoogle(c) {
		return
	}
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GoogleCallback completes the redirect flow and sends the browser back to
// the frontend with the session cookies set.
func (h *UserHandler) GoogleCallback(c *gin.Context) {
	if !h.requireGoogle(c) {
		return
	}
	gu, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		fail(c, apperr.Unauthorized("Google authentication failed"))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	s, err := h.users.LoginWithIdentity(ctx, auth.IdentityFromGoth(gu))
	if err != nil {
		fail(c, err)
		return
	}
	h.setCookies(c, s.Tokens)
	c.Redirect(http.StatusFound, h.frontendURL)
}

type googleTokenRequest struct {
	Code string `json:"code" binding:"required"`
}

// GoogleToken exchanges an authorization code obtained by the client.
func (h *UserHandler) GoogleToken(c *gin.Context) {
	if !h.requireGoogle(c) {
		return
	}
	var req googleTokenRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	identity, err := h.google.Exchange(ctx, req.Code)
	if err != nil {
		fail(c, apperr.Unauthorized("Google authentication failed"))
		return
	}
	s, err := h.users.LoginWithIdentity(ctx, identity)
	if err != nil {
		fail(c, err)
		return
	}
	h.session(c, s, "User logged in successfully")
}
