package plugin

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrDuplicateName reports a registration under an already-taken name.
var ErrDuplicateName = errors.New("duplicate plugin name")

type entry struct {
	plugin   Plugin
	pausable Pausable // nil when the plugin is not pausable
}

// Registry holds every registered plugin, indexed by unique name and by
// category. Dispatch reads category lists on every message, so the category
// index is maintained eagerly instead of scanning the name map.
type Registry struct {
	mu         sync.RWMutex
	plugins    map[string]entry
	byCategory map[Category][]string // registration order per category
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:    make(map[string]entry),
		byCategory: make(map[Category][]string),
	}
}

// Register adds a plugin under the given name. An empty name defaults to
// the plugin's concrete type name. Duplicate names fail with
// ErrDuplicateName and leave the registry untouched.
func (r *Registry) Register(p Plugin, name string) error {
	if p == nil {
		return errors.New("cannot register a nil plugin")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName(p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateName)
	}

	e := entry{plugin: p}
	// The pausable capability is fixed here, at registration time, so
	// pause/resume never probe the plugin again.
	if pausable, ok := p.(Pausable); ok {
		e.pausable = pausable
	}

	r.plugins[name] = e
	r.byCategory[p.Category()] = append(r.byCategory[p.Category()], name)

	return nil
}

// RegisterAll registers plugins in order under their default names. The
// first failure aborts the remaining registrations; plugins registered
// before the failure stay registered, since registration happens once at
// startup and a partial batch is easier to diagnose than a rollback.
func (r *Registry) RegisterAll(plugins []Plugin) error {
	for _, p := range plugins {
		if err := r.Register(p, ""); err != nil {
			return err
		}
	}

	return nil
}

// Unregister removes the named plugin, reporting whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.plugins[name]
	if !ok {
		return false
	}

	delete(r.plugins, name)

	category := e.plugin.Category()
	names := r.byCategory[category]
	for i, candidate := range names {
		if candidate == name {
			r.byCategory[category] = append(names[:i], names[i+1:]...)
			break
		}
	}
	if len(r.byCategory[category]) == 0 {
		delete(r.byCategory, category)
	}

	return true
}

// Get looks up a plugin by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.plugins[name]
	if !ok {
		return nil, false
	}
	return e.plugin, true
}

// ByCategory returns the plugins of one category in registration order.
// The returned slice is a copy.
func (r *Registry) ByCategory(category Category) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.byCategory[category]
	out := make([]Plugin, 0, len(names))
	for _, name := range names {
		out = append(out, r.plugins[name].plugin)
	}
	return out
}

// OpeningUps returns registered opening-up plugins in registration order.
func (r *Registry) OpeningUps() []OpeningUp {
	plugins := r.ByCategory(CategoryOpeningUp)
	out := make([]OpeningUp, 0, len(plugins))
	for _, p := range plugins {
		if opener, ok := p.(OpeningUp); ok {
			out = append(out, opener)
		}
	}
	return out
}

// Commands returns registered command plugins in registration order.
func (r *Registry) Commands() []Command {
	plugins := r.ByCategory(CategoryCommand)
	out := make([]Command, 0, len(plugins))
	for _, p := range plugins {
		if cmd, ok := p.(Command); ok {
			out = append(out, cmd)
		}
	}
	return out
}

// Filters returns registered filter plugins in registration order.
func (r *Registry) Filters() []Filter {
	plugins := r.ByCategory(CategoryFilter)
	out := make([]Filter, 0, len(plugins))
	for _, p := range plugins {
		if f, ok := p.(Filter); ok {
			out = append(out, f)
		}
	}
	return out
}

// Responders returns registered responder plugins in registration order.
func (r *Registry) Responders() []Responder {
	plugins := r.ByCategory(CategoryResponder)
	out := make([]Responder, 0, len(plugins))
	for _, p := range plugins {
		if responder, ok := p.(Responder); ok {
			out = append(out, responder)
		}
	}
	return out
}

// EndingUps returns registered ending-up plugins in registration order.
func (r *Registry) EndingUps() []EndingUp {
	plugins := r.ByCategory(CategoryEndingUp)
	out := make([]EndingUp, 0, len(plugins))
	for _, p := range plugins {
		if ender, ok := p.(EndingUp); ok {
			out = append(out, ender)
		}
	}
	return out
}

// All returns a copy of the name-to-plugin map.
func (r *Registry) All() map[string]Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Plugin, len(r.plugins))
	for name, e := range r.plugins {
		out[name] = e.plugin
	}
	return out
}

// Pause pauses the named plugin. It returns false when the plugin is
// unknown or does not expose the pausable capability.
func (r *Registry) Pause(name string) bool {
	r.mu.RLock()
	e, ok := r.plugins[name]
	r.mu.RUnlock()

	if !ok || e.pausable == nil {
		return false
	}
	e.pausable.Pause()
	return true
}

// Resume resumes the named plugin. It returns false when the plugin is
// unknown or does not expose the pausable capability.
func (r *Registry) Resume(name string) bool {
	r.mu.RLock()
	e, ok := r.plugins[name]
	r.mu.RUnlock()

	if !ok || e.pausable == nil {
		return false
	}
	e.pausable.Resume()
	return true
}

// defaultName derives a registry name from the plugin's concrete type.
func defaultName(p Plugin) string {
	name := fmt.Sprintf("%T", p)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
