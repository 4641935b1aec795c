package hyper

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Siren implements application/vnd.siren+json. Properties become
// attributes, links and actions become links, and sub-entities become
// embedded objects under each of their relations.
type Siren struct {
	jsonCodec
}

var _ Adapter = Siren{}

func (Siren) Name() string { return AdapterSiren }

func (Siren) MediaType() string { return "application/vnd.siren+json" }

func (s Siren) Apply(body map[string]any, r *Resource) error {
	var result *multierror.Error

	r.objects = newObjects()
	r.links = newLinks()
	if err := s.applyEntities(body, r); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.applyLinks(body, r); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.applyActions(body, r); err != nil {
		result = multierror.Append(result, err)
	}
	props, _ := body["properties"].(map[string]any)
	applyAttributes(props, r, func(string) bool { return false })

	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	r.loaded = true
	if href := sirenSelfHref(body); href != "" {
		r.href = href
	}
	return nil
}

func (s Siren) applyEntities(body map[string]any, r *Resource) error {
	entities, _ := body["entities"].([]any)

	var result *multierror.Error
	grouped := map[string][]*Resource{}
	var order []string
	for i, item := range entities {
		entity, ok := item.(map[string]any)
		if !ok {
			result = multierror.Append(result, &ValidationError{
				Field:   fmt.Sprintf("entities[%d]", i),
				Message: fmt.Sprintf("entity must be an object, got %T", item),
			})
			continue
		}

		// Embedded links carry only an href; they become unloaded resources.
		var child *Resource
		if href, ok := entity["href"].(string); ok && entity["properties"] == nil {
			child = r.spawn(href, r.typ)
		} else {
			var err error
			child, err = r.embed(entity, s)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("entities[%d]: %w", i, err))
				continue
			}
		}

		for _, rel := range stringList(entity["rel"]) {
			name := relShortName(rel)
			if _, seen := grouped[name]; !seen {
				order = append(order, name)
			}
			grouped[name] = append(grouped[name], child)
		}
	}

	for _, name := range order {
		r.objects.SetList(name, grouped[name])
	}
	return result.ErrorOrNil()
}

func (Siren) applyLinks(body map[string]any, r *Resource) error {
	links, _ := body["links"].([]any)

	var result *multierror.Error
	for i, item := range links {
		spec, ok := item.(map[string]any)
		if !ok {
			result = multierror.Append(result, &ValidationError{
				Field:   fmt.Sprintf("links[%d]", i),
				Message: fmt.Sprintf("link must be an object, got %T", item),
			})
			continue
		}
		link, err := linkFromBody(r, spec)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("links[%d]: %w", i, err))
			continue
		}
		for _, rel := range stringList(spec["rel"]) {
			r.links.Set(rel, link)
		}
	}
	return result.ErrorOrNil()
}

// applyActions registers each action as a link under its name, carrying
// the action's method.
func (Siren) applyActions(body map[string]any, r *Resource) error {
	actions, _ := body["actions"].([]any)

	var result *multierror.Error
	for i, item := range actions {
		action, ok := item.(map[string]any)
		if !ok {
			result = multierror.Append(result, &ValidationError{
				Field:   fmt.Sprintf("actions[%d]", i),
				Message: fmt.Sprintf("action must be an object, got %T", item),
			})
			continue
		}
		name, _ := action["name"].(string)
		if name == "" {
			result = multierror.Append(result, &ValidationError{
				Field:   fmt.Sprintf("actions[%d].name", i),
				Message: "cannot be blank",
			})
			continue
		}
		link, err := linkFromBody(r, action)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("action %q: %w", name, err))
			continue
		}
		r.links.Set(name, link)
	}
	return result.ErrorOrNil()
}

func sirenSelfHref(body map[string]any) string {
	links, _ := body["links"].([]any)
	for _, item := range links {
		link, _ := item.(map[string]any)
		for _, rel := range stringList(link["rel"]) {
			if rel == "self" {
				href, _ := link["href"].(string)
				return href
			}
		}
	}
	return ""
}

// stringList accepts a string or a list of strings.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
