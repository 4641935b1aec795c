package transport

import (
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"
)

// Auth carries request credentials. Only credential carrying is supported:
// HTTP basic auth when Username is set, otherwise a bearer token when Token
// is set.
type Auth struct {
	Username string `mapstructure:"username" json:"username,omitempty"`
	Password string `mapstructure:"password" json:"-"`
	Token    string `mapstructure:"token" json:"-"`
}

// Basic returns basic-auth credentials.
func Basic(username, password string) *Auth {
	return &Auth{Username: username, Password: password}
}

// Bearer returns bearer token credentials.
func Bearer(token string) *Auth {
	return &Auth{Token: token}
}

// IsZero reports whether a carries no credentials.
func (a *Auth) IsZero() bool {
	return a == nil || (a.Username == "" && a.Password == "" && a.Token == "")
}

// Apply sets the credentials on req.
func (a *Auth) Apply(req *http.Request) {
	switch {
	case a.IsZero():
	case a.Username != "":
		req.SetBasicAuth(a.Username, a.Password)
	case a.Token != "":
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

// DecodeAuth converts a configuration value into Auth. It accepts Auth,
// *Auth, {"basic": ["user", "pass"]}, or {"username": ..., "password": ...,
// "token": ...}.
func DecodeAuth(v any) (*Auth, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Auth:
		return t, nil
	case Auth:
		return &t, nil
	case map[string]any:
		if basic, ok := t["basic"]; ok {
			pair, err := stringPair(basic)
			if err != nil {
				return nil, fmt.Errorf("invalid auth: %w", err)
			}
			return Basic(pair[0], pair[1]), nil
		}
		var a Auth
		if err := mapstructure.Decode(t, &a); err != nil {
			return nil, fmt.Errorf("invalid auth: %w", err)
		}
		return &a, nil
	case map[string]string:
		return &Auth{Username: t["username"], Password: t["password"], Token: t["token"]}, nil
	default:
		return nil, fmt.Errorf("invalid auth: unsupported type %T", v)
	}
}

func stringPair(v any) ([2]string, error) {
	var out [2]string
	switch t := v.(type) {
	case []string:
		if len(t) != 2 {
			return out, fmt.Errorf("basic auth needs a username and a password")
		}
		copy(out[:], t)
	case []any:
		if len(t) != 2 {
			return out, fmt.Errorf("basic auth needs a username and a password")
		}
		for i, s := range t {
			str, ok := s.(string)
			if !ok {
				return out, fmt.Errorf("basic auth values must be strings")
			}
			out[i] = str
		}
	default:
		return out, fmt.Errorf("basic auth must be a list, got %T", v)
	}
	return out, nil
}
