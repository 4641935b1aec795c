package get

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/hyperresource/internal/cmd/base"
	"github.com/hashicorp-forge/hyperresource/pkg/config"
	"github.com/hashicorp-forge/hyperresource/pkg/hyper"
	"github.com/hashicorp-forge/hyperresource/pkg/transport"
)

type Command struct {
	*base.Command

	// Fs is the filesystem configuration files are read from. Defaults to
	// the OS filesystem.
	Fs afero.Fs

	// OpenURL opens a URL in the user's browser. Defaults to
	// browser.OpenURL.
	OpenURL func(string) error

	flagConfig    string
	flagNamespace string
	flagAdapter   string
	flagTimeout   time.Duration
	flagRetries   int
	flagOpen      bool
}

// Summary is what the command prints for the resource it ends on.
type Summary struct {
	Type       string            `json:"type"`
	URL        string            `json:"url"`
	Attributes map[string]any    `json:"attributes"`
	Links      map[string]string `json:"links"`
	Objects    map[string]int    `json:"objects"`
}

func (c *Command) Synopsis() string {
	return "Fetch a resource and follow its links"
}

func (c *Command) Help() string {
	return `Usage: hyperctl get [options] ROOT [REL...]

  Fetch the resource at ROOT, then follow each REL in turn and print the
  resource it ends on as JSON. A REL names a link, an embedded object or,
  as the last REL, an attribute. Template parameters are given as a query:

    hyperctl get https://api.example.com/ widgets 'widget?id=7'` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("get", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL or YAML configuration file.",
	)
	f.StringVar(
		&c.flagNamespace, "namespace", "",
		"Namespace resolved resource types are nested under.",
	)
	f.StringVar(
		&c.flagAdapter, "adapter", "",
		"Hypermedia format of the root host: hal_json or siren.",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 0,
		"Timeout for each request.",
	)
	f.IntVar(
		&c.flagRetries, "retries", 0,
		"Number of retries for failed idempotent requests.",
	)
	f.BoolVar(
		&c.flagOpen, "open", false,
		"Open the final resource URL in a browser.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log, c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() < 1 {
		ui.Error("a root URL is required")
		ui.Error(c.Help())
		return 1
	}
	rootURL, rels := f.Arg(0), f.Args()[1:]

	opts, err := c.resourceOptions()
	if err != nil {
		ui.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	client := hyper.NewClient(hyper.WithLogger(logger))
	defer client.Close()

	root, err := hyper.New(rootURL, append(opts, hyper.WithClient(client))...)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating root resource: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	current, err := root.Get(ctx)
	if err != nil {
		ui.Error(fmt.Sprintf("error fetching %s: %v", rootURL, err))
		return 1
	}

	for i, rel := range rels {
		name, params, err := parseRel(rel)
		if err != nil {
			ui.Error(err.Error())
			return 1
		}

		v, err := current.Member(ctx, name, params...)
		if err != nil {
			ui.Error(fmt.Sprintf("error resolving %q: %v", rel, err))
			return 1
		}

		next, err := follow(ctx, v)
		if err != nil {
			ui.Error(fmt.Sprintf("error following %q: %v", rel, err))
			return 1
		}
		if next == nil {
			if i != len(rels)-1 {
				ui.Error(fmt.Sprintf("%q is an attribute and cannot be followed", rel))
				return 1
			}
			return c.output(v)
		}
		logger.Debug("followed relation", "rel", rel, "url", next.URL(), "type", next.Type().Name())
		current = next
	}

	if c.flagOpen {
		open := c.OpenURL
		if open == nil {
			open = browser.OpenURL
		}
		if err := open(current.URL()); err != nil {
			ui.Warn(fmt.Sprintf("error opening browser: %v", err))
		}
	}

	return c.output(Summarize(current))
}

func (c *Command) resourceOptions() ([]hyper.Option, error) {
	var opts []hyper.Option

	if c.flagConfig != "" {
		fs := c.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		store, err := config.LoadFile(fs, c.flagConfig)
		if err != nil {
			return nil, err
		}
		opts = append(opts, hyper.WithConfig(store))
	}
	if c.flagNamespace != "" {
		opts = append(opts, hyper.WithNamespace(c.flagNamespace))
	}
	if c.flagAdapter != "" {
		opts = append(opts, hyper.WithAdapterName(c.flagAdapter))
	}
	if c.flagTimeout != 0 || c.flagRetries != 0 {
		ro := transport.DefaultOptions()
		ro.Timeout = c.flagTimeout
		ro.MaxRetries = c.flagRetries
		if err := ro.Validate(); err != nil {
			return nil, err
		}
		opts = append(opts, hyper.WithRequestOptions(ro))
	}
	return opts, nil
}

func (c *Command) output(v any) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error encoding output: %v", err))
		return 1
	}
	c.UI.Output(string(out))
	return 0
}

// follow turns a member value into the resource it leads to. It returns
// nil for attribute values.
func follow(ctx context.Context, v any) (*hyper.Resource, error) {
	switch t := v.(type) {
	case *hyper.Link:
		return t.Follow(ctx)
	case []*hyper.Link:
		if len(t) == 0 {
			return nil, fmt.Errorf("relation has no links")
		}
		return t[0].Follow(ctx)
	case *hyper.Resource:
		if !t.Loaded() {
			return t.Get(ctx)
		}
		return t, nil
	case []*hyper.Resource:
		if len(t) == 0 {
			return nil, fmt.Errorf("embedded collection is empty")
		}
		return follow(ctx, t[0])
	default:
		return nil, nil
	}
}

// parseRel splits "widget?id=7" into the name and its template parameters.
func parseRel(rel string) (string, []map[string]any, error) {
	name, query, found := strings.Cut(rel, "?")
	if name == "" {
		return "", nil, fmt.Errorf("invalid relation %q", rel)
	}
	if !found {
		return name, nil, nil
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return "", nil, fmt.Errorf("invalid parameters for %q: %w", name, err)
	}
	params := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			params[k] = vs[0]
		} else {
			params[k] = vs
		}
	}
	return name, []map[string]any{params}, nil
}

// Summarize describes a resource for output. Templated links are shown
// unexpanded.
func Summarize(r *hyper.Resource) Summary {
	s := Summary{
		Type:       r.Type().Name(),
		URL:        r.URL(),
		Attributes: r.Attributes().Map(),
		Links:      map[string]string{},
		Objects:    map[string]int{},
	}
	for _, rel := range r.Links().Rels() {
		link := r.Links().Get(rel)
		if link == nil {
			continue
		}
		s.Links[rel] = link.BaseHref()
	}
	for _, name := range r.Objects().Keys() {
		s.Objects[name] = len(r.Objects().Resources(name))
	}
	return s
}
