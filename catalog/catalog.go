// Package catalog loads and validates the context catalog.
//
// A context is a named bundle of focus areas, enabled activities, prompt
// and template references, and an analysis depth. The catalog is read
// from a YAML file, validated as a whole, and immutable afterwards:
// picking up edits requires a fresh Load, never an in-place update.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when the catalog source is missing, malformed,
// or any context violates a load-time invariant. It is fatal to
// initialization: there is no valid state to operate from until the
// configuration is fixed.
var ErrInvalid = errors.New("invalid context catalog")

// ErrNotFound is returned when a named context is absent.
var ErrNotFound = errors.New("context not found")

// Depth is the analysis depth a context requests from activities.
type Depth string

const (
	DepthShallow  Depth = "shallow"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// Valid reports whether d is a known depth.
func (d Depth) Valid() bool {
	switch d {
	case DepthShallow, DepthStandard, DepthDeep:
		return true
	}
	return false
}

const (
	defaultDepth          = DepthStandard
	defaultOutputTemplate = "standard"
)

// Context is one validated, read-only catalog entry.
type Context struct {
	// Name is the unique catalog key.
	Name string `yaml:"name" json:"name"`

	// Description is the human-readable summary shown in listings.
	Description string `yaml:"description" json:"description"`

	// Focus is the ordered list of focus tags for this context.
	Focus []string `yaml:"focus" json:"focus,omitempty"`

	// EnabledActivities is the ordered allowlist of activity names a
	// pipeline under this context executes. The order is a configuration
	// contract: pipelines run steps exactly in this order.
	EnabledActivities []string `yaml:"enabled_activities" json:"enabled_activities"`

	// PromptBundle references the prompt set used by activities that
	// consume prompts. Opaque to the engine.
	PromptBundle string `yaml:"prompt_bundle" json:"prompt_bundle,omitempty"`

	// OutputTemplate references the template the external renderer uses
	// for this context's reports. Opaque to the engine.
	OutputTemplate string `yaml:"output_template" json:"output_template"`

	// Depth is the analysis depth passed to every activity.
	Depth Depth `yaml:"depth" json:"depth"`
}

// Enabled reports whether the named activity is in the context's
// allowlist.
func (c Context) Enabled(name string) bool {
	for _, a := range c.EnabledActivities {
		if a == name {
			return true
		}
	}
	return false
}

// ActivitySet reports which activity names are known. *activity.Registry
// satisfies this; the indirection keeps the catalog free of a dependency
// on the registry implementation.
type ActivitySet interface {
	Has(name string) bool
}

// Store holds the validated catalog. Read-only after Load.
type Store struct {
	contexts map[string]Context
	order    []string
}

// catalogFile is the on-disk shape of the catalog.
type catalogFile struct {
	Contexts []Context `yaml:"contexts"`
}

// Load reads the catalog from path and validates every context against
// the known activity set. The load is all-or-nothing: a single invalid
// context rejects the whole catalog, so callers never operate under a
// partial catalog.
func Load(path string, known ActivitySet) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrInvalid, path, err)
	}
	defer f.Close()

	var file catalogFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalid, path, err)
	}

	return New(file.Contexts, known)
}

// New builds a Store from in-memory contexts, applying defaults and
// validating each entry. Used by Load and by tests.
func New(contexts []Context, known ActivitySet) (*Store, error) {
	if len(contexts) == 0 {
		return nil, fmt.Errorf("%w: no contexts defined", ErrInvalid)
	}

	s := &Store{
		contexts: make(map[string]Context, len(contexts)),
		order:    make([]string, 0, len(contexts)),
	}

	for i, c := range contexts {
		c.setDefaults()
		if err := c.validate(known); err != nil {
			return nil, fmt.Errorf("%w: context %d (%q): %w", ErrInvalid, i, c.Name, err)
		}
		if _, dup := s.contexts[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate context %q", ErrInvalid, c.Name)
		}
		s.contexts[c.Name] = c
		s.order = append(s.order, c.Name)
	}

	return s, nil
}

// Get returns the named context, or ErrNotFound.
func (s *Store) Get(name string) (Context, error) {
	c, exists := s.contexts[name]
	if !exists {
		return Context{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c, nil
}

// All returns every context in catalog order.
func (s *Store) All() []Context {
	out := make([]Context, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.contexts[name])
	}
	return out
}

// Len returns the number of contexts in the catalog.
func (s *Store) Len() int {
	return len(s.order)
}

func (c *Context) setDefaults() {
	if c.Depth == "" {
		c.Depth = defaultDepth
	}
	if c.OutputTemplate == "" {
		c.OutputTemplate = defaultOutputTemplate
	}
}

func (c *Context) validate(known ActivitySet) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.EnabledActivities) == 0 {
		return fmt.Errorf("enabled_activities must not be empty")
	}
	seen := make(map[string]bool, len(c.EnabledActivities))
	for _, name := range c.EnabledActivities {
		if seen[name] {
			return fmt.Errorf("activity %q enabled twice", name)
		}
		seen[name] = true
		if known != nil && !known.Has(name) {
			return fmt.Errorf("activity %q is not registered", name)
		}
	}
	if !c.Depth.Valid() {
		return fmt.Errorf("depth %q must be one of shallow, standard, deep", c.Depth)
	}
	return nil
}
