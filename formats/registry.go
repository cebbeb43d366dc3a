package formats

import (
	"fmt"
	"log/slog"
	"strings"

	"labdata/internal/config"
)

// Registry is an ordered collection of format handlers. Detection is
// first-registered-wins, so specific formats are registered before the
// generic fallback. A registry is populated once at startup and is
// read-only afterwards, which makes concurrent resolution safe.
type Registry struct {
	handlers []Handler
	byName   map[string]Handler
	aliases  map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]Handler),
		aliases: make(map[string]string),
	}
}

// Register appends a handler to the resolution order. Registering two
// handlers under the same name is a configuration fault and fails
// immediately.
func (r *Registry) Register(h Handler) error {
	name := strings.ToLower(h.Name())
	if name == "" {
		return fmt.Errorf("handler has an empty name")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("duplicate format handler %q", name)
	}
	if _, dup := r.aliases[name]; dup {
		return fmt.Errorf("format handler %q collides with a registered alias", name)
	}
	r.byName[name] = h
	r.handlers = append(r.handlers, h)
	return nil
}

// RegisterAlias makes alias resolve to the handler registered under
// name, e.g. "keysight_34970a" for "keysight".
func (r *Registry) RegisterAlias(alias, name string) error {
	alias = strings.ToLower(alias)
	name = strings.ToLower(name)
	if _, ok := r.byName[name]; !ok {
		return fmt.Errorf("cannot alias %q: unknown format %q", alias, name)
	}
	if _, dup := r.byName[alias]; dup {
		return fmt.Errorf("alias %q collides with a registered format", alias)
	}
	if _, dup := r.aliases[alias]; dup {
		return fmt.Errorf("duplicate alias %q", alias)
	}
	r.aliases[alias] = name
	return nil
}

// Resolve returns the first registered handler whose Detect claims the
// file, or (nil, false) when none does.
func (r *Registry) Resolve(path string) (Handler, bool) {
	for _, h := range r.handlers {
		if h.Detect(path) {
			slog.Debug("format detected",
				slog.String("format", h.Name()),
				slog.String("path", path))
			return h, true
		}
	}
	return nil, false
}

// Get returns the handler registered under name (or one of its
// aliases). Lookup is case-insensitive. Unknown names are an error
// listing the available formats.
func (r *Registry) Get(name string) (Handler, error) {
	key := strings.ToLower(name)
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	h, ok := r.byName[key]
	if !ok {
		return nil, fmt.Errorf("format %q not found; available formats: %s",
			name, strings.Join(r.Names(), ", "))
	}
	return h, nil
}

// Names returns the registered format names in resolution order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.handlers))
	for i, h := range r.handlers {
		names[i] = h.Name()
	}
	return names
}

// NewDefaultRegistry builds the standard registry: every instrument
// family in detection order, with the generic delimited-text fallback
// last so it only claims files no richer variant wants. A nil cfg uses
// the built-in defaults.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = config.Default()
	}

	r := NewRegistry()
	for _, h := range []Handler{
		NewDewesoftHandler(cfg),
		NewKeysightHandler(cfg),
		NewHiokiHandler(cfg),
		NewFlukeHandler(cfg),
		NewYokogawaHandler(cfg),
		NewKeithleyHandler(cfg),
		NewTektronixHandler(cfg),
		NewRigolHandler(cfg),
		NewGenericCSVHandler(cfg),
	} {
		if err := r.Register(h); err != nil {
			// The default set is static; a duplicate here is a bug.
			panic(err)
		}
	}
	if err := r.RegisterAlias("keysight_34970a", "keysight"); err != nil {
		panic(err)
	}
	return r
}
