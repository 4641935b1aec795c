package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileConfig is the HCL form of a configuration file.
//
// Example configuration (HCL):
//
//	host "*.example.com" {
//	  namespace = "Shop"
//	  headers   = { "X-Api-Key" = "secret" }
//
//	  auth {
//	    username = "user"
//	    password = "pass"
//	  }
//
//	  request_options {
//	    timeout     = "10s"
//	    max_retries = 2
//	  }
//	}
type FileConfig struct {
	Hosts []HostBlock `hcl:"host,block"`
}

// HostBlock configures a single hostmask.
type HostBlock struct {
	Mask string `hcl:"mask,label"`

	Namespace         string            `hcl:"namespace,optional"`
	Adapter           string            `hcl:"adapter,optional"`
	Headers           map[string]string `hcl:"headers,optional"`
	DefaultAttributes map[string]string `hcl:"default_attributes,optional"`

	Auth           *AuthBlock           `hcl:"auth,block"`
	RequestOptions *RequestOptionsBlock `hcl:"request_options,block"`
}

// AuthBlock carries credentials. Either username/password (basic auth) or a
// bearer token.
type AuthBlock struct {
	Username string `hcl:"username,optional"`
	Password string `hcl:"password,optional"`
	Token    string `hcl:"token,optional"`
}

// RequestOptionsBlock configures the transport for matching hosts.
type RequestOptionsBlock struct {
	Timeout    string `hcl:"timeout,optional"`
	MaxRetries int    `hcl:"max_retries,optional"`
}

// yamlFile is the YAML form of a configuration file:
//
//	hosts:
//	  "*.example.com":
//	    namespace: Shop
type yamlFile struct {
	Hosts map[string]map[string]any `yaml:"hosts"`
}

var knownKeys = map[string]bool{
	KeyAuth:              true,
	KeyHeaders:           true,
	KeyNamespace:         true,
	KeyAdapter:           true,
	KeyRequestOptions:    true,
	KeyDefaultAttributes: true,
}

// LoadFile reads a configuration file from fs. Files ending in .hcl are
// decoded as HCL, files ending in .yaml or .yml as YAML.
func LoadFile(fs afero.Fs, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}

	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return ParseHCL(path, src)
	case ".yaml", ".yml":
		return ParseYAML(src)
	default:
		return nil, fmt.Errorf("unsupported configuration file type: %s", path)
	}
}

// ParseHCL decodes an HCL configuration document into a Store.
func ParseHCL(filename string, src []byte) (*Store, error) {
	var fc FileConfig
	if err := hclsimple.Decode(filename, src, nil, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	return fc.Store()
}

// Store converts the decoded HCL file into a Store.
func (fc *FileConfig) Store() (*Store, error) {
	hosts := make(map[string]map[string]any, len(fc.Hosts))
	for _, h := range fc.Hosts {
		sub := hosts[h.Mask]
		if sub == nil {
			sub = map[string]any{}
			hosts[h.Mask] = sub
		}
		if h.Namespace != "" {
			sub[KeyNamespace] = h.Namespace
		}
		if h.Adapter != "" {
			sub[KeyAdapter] = h.Adapter
		}
		if len(h.Headers) > 0 {
			sub[KeyHeaders] = h.Headers
		}
		if len(h.DefaultAttributes) > 0 {
			attrs := make(map[string]any, len(h.DefaultAttributes))
			for k, v := range h.DefaultAttributes {
				attrs[k] = v
			}
			sub[KeyDefaultAttributes] = attrs
		}
		if h.Auth != nil {
			sub[KeyAuth] = map[string]any{
				"username": h.Auth.Username,
				"password": h.Auth.Password,
				"token":    h.Auth.Token,
			}
		}
		if h.RequestOptions != nil {
			opts := map[string]any{"max_retries": h.RequestOptions.MaxRetries}
			if h.RequestOptions.Timeout != "" {
				opts["timeout"] = h.RequestOptions.Timeout
			}
			sub[KeyRequestOptions] = opts
		}
	}
	return build(hosts)
}

// ParseYAML decodes a YAML configuration document into a Store.
func ParseYAML(src []byte) (*Store, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(src, &yf); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	for _, sub := range yf.Hosts {
		if h, ok := sub[KeyHeaders].(map[string]any); ok {
			headers := make(map[string]string, len(h))
			for k, v := range h {
				headers[k] = fmt.Sprint(v)
			}
			sub[KeyHeaders] = headers
		}
	}
	return build(yf.Hosts)
}

// build validates every hostmask and key before constructing the store, so
// a file with several problems reports all of them at once.
func build(hosts map[string]map[string]any) (*Store, error) {
	var result *multierror.Error
	for mask, sub := range hosts {
		if err := ValidateMask(mask); err != nil {
			result = multierror.Append(result, err)
		}
		for key := range sub {
			if !knownKeys[key] {
				result = multierror.Append(result,
					&ConfigurationError{Mask: mask, Err: fmt.Errorf("unknown key %q", key)})
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return NewFrom(hosts), nil
}
