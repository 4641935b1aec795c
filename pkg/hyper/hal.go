package hyper

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

const (
	halLinks    = "_links"
	halEmbedded = "_embedded"
)

// HAL implements application/hal+json.
type HAL struct {
	jsonCodec
}

var _ Adapter = HAL{}

func (HAL) Name() string { return AdapterHAL }

func (HAL) MediaType() string { return "application/hal+json" }

// Apply populates embedded objects, then links, then attributes, marks r
// loaded and takes its href from the self link when there is one.
func (h HAL) Apply(body map[string]any, r *Resource) error {
	var result *multierror.Error

	r.objects = newObjects()
	r.links = newLinks()
	if err := h.applyObjects(body, r); err != nil {
		result = multierror.Append(result, err)
	}
	if err := h.applyLinks(body, r); err != nil {
		result = multierror.Append(result, err)
	}
	applyAttributes(body, r, func(k string) bool { return k == halLinks || k == halEmbedded })

	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	r.loaded = true
	if href := halSelfHref(body); href != "" {
		r.href = href
	}
	return nil
}

func (h HAL) applyObjects(body map[string]any, r *Resource) error {
	embedded, ok := body[halEmbedded].(map[string]any)
	if !ok {
		return nil
	}

	var result *multierror.Error
	for _, name := range sortedKeys(embedded) {
		switch v := embedded[name].(type) {
		case map[string]any:
			child, err := r.embed(v, h)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("embedded %q: %w", name, err))
				continue
			}
			r.objects.Set(name, child)
		case []any:
			children := make([]*Resource, 0, len(v))
			for i, item := range v {
				obj, ok := item.(map[string]any)
				if !ok {
					result = multierror.Append(result, &ValidationError{
						Field:   fmt.Sprintf("%s[%d]", name, i),
						Message: fmt.Sprintf("embedded object must be an object, got %T", item),
					})
					continue
				}
				child, err := r.embed(obj, h)
				if err != nil {
					result = multierror.Append(result, fmt.Errorf("embedded %q[%d]: %w", name, i, err))
					continue
				}
				children = append(children, child)
			}
			r.objects.SetList(name, children)
		default:
			result = multierror.Append(result, &ValidationError{
				Field:   name,
				Message: fmt.Sprintf("embedded value must be an object or array, got %T", v),
			})
		}
	}
	return result.ErrorOrNil()
}

func (HAL) applyLinks(body map[string]any, r *Resource) error {
	links, ok := body[halLinks].(map[string]any)
	if !ok {
		return nil
	}

	var result *multierror.Error
	for _, rel := range sortedKeys(links) {
		switch v := links[rel].(type) {
		case []any:
			list := make([]*Link, 0, len(v))
			for _, spec := range v {
				link, err := linkFromBody(r, spec)
				if err != nil {
					result = multierror.Append(result, fmt.Errorf("link %q: %w", rel, err))
					continue
				}
				list = append(list, link)
			}
			r.links.SetList(rel, list)
		default:
			link, err := linkFromBody(r, v)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("link %q: %w", rel, err))
				continue
			}
			r.links.Set(rel, link)
		}
	}
	return result.ErrorOrNil()
}

func halSelfHref(body map[string]any) string {
	links, _ := body[halLinks].(map[string]any)
	self, _ := links["self"].(map[string]any)
	href, _ := self["href"].(string)
	return href
}

func linkFromBody(r *Resource, v any) (*Link, error) {
	spec, err := DecodeLinkSpec(v)
	if err != nil {
		return nil, err
	}
	return NewLink(r, spec)
}

// applyAttributes stores every top-level field not claimed by skip, after
// the incoming body filter, and leaves the attributes unchanged.
func applyAttributes(body map[string]any, r *Resource, skip func(string) bool) {
	given := make(map[string]any, len(body))
	for k, v := range body {
		if !skip(k) {
			given[k] = v
		}
	}
	filtered := r.typ.incomingBody(given)

	r.attributes = newAttributes()
	for _, k := range sortedKeys(filtered) {
		r.attributes.set(k, filtered[k])
	}
	r.attributes.ClearChanged()
}
