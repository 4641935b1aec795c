// Package hyper is a client for hypermedia APIs.
//
// Starting from a root URL, a Resource is fetched and materialized from
// its response body: attributes, embedded objects and links. Links are
// followed without building URLs by hand, and every request returns a new
// Resource:
//
//	root, err := hyper.New("https://api.example.com/", hyper.WithNamespace("Shop"))
//	if err != nil {
//		return err
//	}
//	api, err := root.Get(ctx)
//	if err != nil {
//		return err
//	}
//	widgets, err := api.Links().Get("widgets").Where(map[string]any{"page": "2"}).Get(ctx)
//
// Each materialized resource carries a *Type resolved from the body's
// _data_type or type field, or the ";type=" parameter of the response
// Content-Type, and nested under the namespace configured for the request
// URL. Types are memoized in a TypeRegistry and carry Filters that are
// inherited by their descendants.
//
// HAL (application/hal+json) is the default wire format. Siren is also
// supported and other formats can be added with WithAdapter.
package hyper
