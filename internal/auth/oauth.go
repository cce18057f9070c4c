package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Identity is the part of an external account used to find or create a user.
type Identity struct {
	Provider string
	Email    string
	Name     string
	Avatar   string
}

// GoogleOAuth exchanges authorization codes posted by a client that ran the
// consent screen itself.
type GoogleOAuth struct {
	Config      *oauth2.Config
	UserInfoURL string
}

func NewGoogleOAuth(cfg *oauth2.Config) *GoogleOAuth {
	return &GoogleOAuth{Config: cfg, UserInfoURL: googleUserInfoURL}
}

func (g *GoogleOAuth) AuthURL(state string) string {
	return g.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, errors.Wrap(err, "exchange code")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return Identity{}, errors.Wrap(err, "build userinfo request")
	}
	res, err := g.Config.Client(ctx, token).Do(req)
	if err != nil {
		return Identity{}, errors.Wrap(err, "fetch userinfo")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Identity{}, errors.Errorf("userinfo: unexpected status %d", res.StatusCode)
	}

	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return Identity{}, errors.Wrap(err, "decode userinfo")
	}
	if info.Email == "" {
		return Identity{}, errors.New("google account has no email")
	}
	return Identity{Provider: "google", Email: info.Email, Name: info.Name, Avatar: info.Picture}, nil
}

// SetupGothic registers the Google provider for the redirect flow and backs
// gothic state with a cookie session store.
func SetupGothic(cfg *oauth2.Config, sessionSecret string, secure bool) {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store
	gothic.GetProviderName = func(*http.Request) (string, error) {
		return "google", nil
	}

	goth.UseProviders(google.New(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL, "email", "profile"))
}

func IdentityFromGoth(u goth.User) Identity {
	name := u.Name
	if name == "" {
		name = u.NickName
	}
	return Identity{Provider: u.Provider, Email: u.Email, Name: name, Avatar: u.AvatarURL}
}
