package httpclient

import (
	"fmt"
	"net/http"
)

// AuthType identifies the authentication scheme.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	// AuthCustom delegates to a request hook, e.g. a Kerberos/Negotiate token provider.
	AuthCustom AuthType = "custom"
)

// AuthConfig configures request authentication. Acquiring the credentials is
// the caller's job; the adapter only attaches them.
type AuthConfig struct {
	Type     AuthType `yaml:"type" mapstructure:"type"`
	Username string   `yaml:"username" mapstructure:"username"`
	Password string   `yaml:"password" mapstructure:"password"`
	Token    string   `yaml:"token" mapstructure:"token"`
	// Apply mutates the outgoing request (AuthCustom).
	Apply func(*http.Request) `yaml:"-" mapstructure:"-"`
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// CustomAuth creates an auth config backed by a request hook.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// Validate reports missing credentials for the selected scheme. A nil config is valid.
func (a *AuthConfig) Validate() error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case "", AuthNone:
	case AuthBasic:
		if a.Username == "" {
			return fmt.Errorf("httpclient: basic auth requires a username")
		}
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("httpclient: bearer auth requires a token")
		}
	case AuthCustom:
		if a.Apply == nil {
			return fmt.Errorf("httpclient: custom auth requires an Apply hook")
		}
	default:
		return fmt.Errorf("httpclient: unknown auth type %q", a.Type)
	}
	return nil
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
}
