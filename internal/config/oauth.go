package config

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleOAuthConfig returns nil when Google login is not configured.
func (c *Config) GoogleOAuthConfig() *oauth2.Config {
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		return nil
	}
	callback := c.Google.CallbackURL
	if callback == "" {
		callback = c.ServerURL + "/api/v1/users/google/callback"
	}
	return &oauth2.Config{
		RedirectURL:  callback,
		ClientID:     c.Google.ClientID,
		ClientSecret: c.Google.ClientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}
