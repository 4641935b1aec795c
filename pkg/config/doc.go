// Package config implements hostmask-scoped configuration for hypermedia
// clients.
//
// Values are stored under hostmasks and resolved per request URL. For a URL
// whose host is "api.us.example.com" on port 8443, the candidate hostmasks
// are, most specific first:
//
//	api.us.example.com:8443
//	api.us.example.com
//	*.us.example.com
//	*.example.com
//	*.com
//	*
//
// Every matching hostmask contributes to the effective configuration; when
// two of them define the same key, the more specific one wins.
//
// # Keys
//
//   - auth: credentials, e.g. {"username": "u", "password": "p"} or {"token": "t"}
//   - headers: map of request headers
//   - namespace: the type namespace resources are materialized into
//   - adapter: wire format identifier ("hal_json", "siren") or adapter value
//   - request_options: transport options, e.g. {"timeout": "10s", "max_retries": 2}
//   - default_attributes: attributes sent with every request body
//
// Configuration can also be loaded from HCL or YAML files with LoadFile.
package config
