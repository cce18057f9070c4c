package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/auth"
	"shopkart_back_end/internal/models"
)

// Context keys set by VerifyJWT.
const (
	KeyUserID = "user_id"
	KeyEmail  = "email"
	KeyRole   = "role"
	KeyUser   = "user"
	KeyClaims = "access_claims"
)

const AccessTokenCookie = "accessToken"

type Blacklist interface {
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Authenticator struct {
	issuer    *auth.Issuer
	blacklist Blacklist
	users     UserFinder
	lg        *zap.Logger
}

func NewAuthenticator(issuer *auth.Issuer, blacklist Blacklist, users UserFinder, lg *zap.Logger) *Authenticator {
	return &Authenticator{issuer: issuer, blacklist: blacklist, users: users, lg: lg}
}

// bearerToken reads the access token from the cookie, falling back to the
// Authorization header.
func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// VerifyJWT authenticates the request and stores the user in the context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, apperr.Unauthorized("Unauthorized request"))
			return
		}

		claims, err := a.issuer.ParseAccess(token)
		if err != nil {
			abort(c, apperr.Unauthorized("Invalid access token"))
			return
		}

		ctx := c.Request.Context()
		revoked, err := a.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			abort(c, errors.Wrap(err, "check token blacklist"))
			return
		}
		if revoked {
			abort(c, apperr.Unauthorized("Access token has been revoked"))
			return
		}

		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abort(c, apperr.Unauthorized("Invalid access token"))
			return
		}
		user, err := a.users.FindByID(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			abort(c, apperr.Unauthorized("Invalid access token"))
			return
		}
		if err != nil {
			abort(c, errors.Wrap(err, "load user"))
			return
		}

		c.Set(KeyUserID, user.ID.Hex())
		c.Set(KeyEmail, user.Email)
		c.Set(KeyRole, string(user.Role))
		c.Set(KeyUser, user)
		c.Set(KeyClaims, claims)
		c.Next()
	}
}

// RequireRoles lets through users holding one of roles. It must run after
// VerifyJWT.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abort(c, apperr.Unauthorized("Unauthorized request"))
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		abort(c, apperr.Forbidden("You are not allowed to perform this action"))
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func AccessClaims(c *gin.Context) *auth.AccessClaims {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.AccessClaims)
	return claims
}

// AccessExpiry is the expiry of the token the request was authenticated
// with, or now when unknown.
func AccessExpiry(c *gin.Context) time.Time {
	if claims := AccessClaims(c); claims != nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now()
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
