package hyper

import (
	"fmt"
	"regexp"

	"github.com/hashicorp-forge/hyperresource/pkg/config"
	"github.com/hashicorp-forge/hyperresource/pkg/transport"
)

// Body fields that name a resource's data type, in order of preference.
var dataTypeFields = []string{"_data_type", "type"}

var contentTypeParam = regexp.MustCompile(`(?i);\s*type="?([0-9A-Za-z:]+)"?`)

// ResolveArgs carries what is known about a resource being materialized.
type ResolveArgs struct {
	// Current is the type of the resource that issued the request. It is
	// returned unchanged when no namespace is configured.
	Current *Type

	// URL is the request URL, used to look up the namespace.
	URL string

	// Config is the store the namespace is read from. A nil store means
	// no namespace is configured.
	Config *config.Store

	Response *transport.Response
	Body     map[string]any
}

// Resolve picks the type a resource is materialized as. The data type name
// comes from the body's _data_type or type field, falling back to the
// ";type=Name" parameter of the response Content-Type. It is nested under
// the namespace configured for the URL, which is itself registered as a
// child of the current type on first use. Without a namespace the current
// type is returned.
func (r *TypeRegistry) Resolve(args ResolveArgs) (*Type, error) {
	current := args.Current
	if current == nil {
		current = r.base
	}
	if args.Config == nil {
		return current, nil
	}

	nsValue, err := args.Config.GetForURL(args.URL, config.KeyNamespace)
	if err != nil {
		return nil, err
	}

	var ns *Type
	switch v := nsValue.(type) {
	case nil:
		return current, nil
	case *Type:
		ns = v
	case string:
		if SanitizeTypeName(v) == "" {
			return current, nil
		}
		ns = r.Namespace(v, current)
	default:
		return nil, &config.ConfigurationError{
			URL: args.URL,
			Err: fmt.Errorf("namespace must be a string or *hyper.Type, got %T", nsValue),
		}
	}

	name := DataTypeFromBody(args.Body)
	if name == "" {
		name = DataTypeFromContentType(args.Response.ContentType())
	}
	if name == "" {
		return ns, nil
	}
	return r.DataType(ns, name), nil
}

// DataTypeFromBody returns the data type named in a response body, or "".
func DataTypeFromBody(body map[string]any) string {
	for _, field := range dataTypeFields {
		if s, ok := body[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// DataTypeFromContentType returns the value of a ";type=" parameter in a
// Content-Type header, quoted or not, capitalized, or "".
func DataTypeFromContentType(contentType string) string {
	m := contentTypeParam.FindStringSubmatch(contentType)
	if m == nil {
		return ""
	}
	return capitalize(m[1])
}
