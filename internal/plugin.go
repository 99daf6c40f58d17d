package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// PluginStatus is the lifecycle state of a registered plugin.
type PluginStatus int

const (
	PluginUnregistered PluginStatus = iota
	PluginRegistering
	PluginRegistered
	PluginStarting
	PluginStarted
	PluginStopping
	PluginStopped
)

var pluginStatusNames = map[PluginStatus]string{
	PluginUnregistered: "unregistered",
	PluginRegistering:  "registering",
	PluginRegistered:   "registered",
	PluginStarting:     "starting",
	PluginStarted:      "started",
	PluginStopping:     "stopping",
	PluginStopped:      "stopped",
}

func (s PluginStatus) String() string {
	if name, ok := pluginStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// PluginMetadata describes a plugin. Name is the unique registration
// key; Dependencies must name plugins registered earlier.
type PluginMetadata struct {
	Name         string
	Version      string
	Description  string
	Dependencies []string
	Tags         []string
}

// HookFunc is a lifecycle hook. Hooks run synchronously in the plugin's
// lifecycle sequence; an error aborts the remaining sequence.
type HookFunc func(ctx context.Context, pc *PluginContext) error

// PluginHooks are the optional lifecycle hooks of a plugin. Any field
// may be nil. For a plugin taken through registration and start the
// firing order is BeforeRegister, Register, AfterRegister, BeforeStart,
// AfterStart; stop mirrors start.
type PluginHooks struct {
	BeforeRegister HookFunc
	AfterRegister  HookFunc
	BeforeStart    HookFunc
	AfterStart     HookFunc
	BeforeStop     HookFunc
	AfterStop      HookFunc
}

// Plugin is a self-contained feature bundle: it can add routes,
// middleware, and services, and participates in the ordered
// startup/shutdown lifecycle.
type Plugin struct {
	Register func(ctx context.Context, pc *PluginContext) error
	Metadata PluginMetadata
	Hooks    PluginHooks
}

// RegisterOption configures a single plugin registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	prefix string
}

// WithPluginPrefix mounts everything the plugin registers (routes and
// middleware) under the given path prefix.
func WithPluginPrefix(prefix string) RegisterOption {
	return func(o *registerOptions) {
		o.prefix = prefix
	}
}

// pluginState tracks one registered plugin.
type pluginState struct {
	plugin *Plugin
	ctx    *PluginContext
	status PluginStatus
	// ownServices maps the bare names this plugin registered to their
	// qualified registry keys. Bare lookups resolve here only.
	ownServices map[string]string
}

// pluginManager registers plugins, validates declared dependencies,
// runs ordered lifecycle hooks, and holds the name-scoped service
// registry. The registry is append-only during the registration phase
// and effectively read-only afterwards; the RWMutex covers the
// multi-threaded case the single-threaded original never faced.
type pluginManager struct {
	app      *App
	log      *slog.Logger
	plugins  map[string]*pluginState
	services map[string]any
	order    []string
	mu       sync.RWMutex
}

func newPluginManager(app *App, log *slog.Logger) *pluginManager {
	return &pluginManager{
		app:      app,
		log:      log,
		plugins:  make(map[string]*pluginState),
		services: make(map[string]any),
	}
}

// register takes a plugin through the registration sequence:
// duplicate check, dependency validation, BeforeRegister, context
// construction, Register, AfterRegister.
//
// Registration is non-transactional: a failure aborts before the plugin
// is marked registered, but routes and middleware already added by
// plugin.Register are not rolled back. A failed name is released so the
// caller may retry.
func (m *pluginManager) register(ctx context.Context, p *Plugin, opts ...RegisterOption) error {
	if p == nil || p.Register == nil {
		return fmt.Errorf("relay: plugin must provide a Register function")
	}
	name := p.Metadata.Name
	if name == "" {
		return fmt.Errorf("relay: plugin name must not be empty")
	}

	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	m.mu.Lock()
	if _, exists := m.plugins[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicatePlugin, name)
	}
	for _, dep := range p.Metadata.Dependencies {
		st, ok := m.plugins[dep]
		if !ok || st.status < PluginRegistered {
			m.mu.Unlock()
			return fmt.Errorf("%w: plugin %q requires %q", ErrMissingDependency, name, dep)
		}
	}
	state := &pluginState{
		plugin:      p,
		status:      PluginRegistering,
		ownServices: make(map[string]string),
	}
	m.plugins[name] = state
	m.mu.Unlock()

	pc := &PluginContext{
		manager: m,
		state:   state,
		prefix:  o.prefix,
		storage: make(map[string]any),
		log:     m.log.With(slog.String("plugin", name)),
	}
	state.ctx = pc

	fail := func(err error) error {
		m.mu.Lock()
		delete(m.plugins, name)
		m.mu.Unlock()
		return err
	}

	if p.Hooks.BeforeRegister != nil {
		if err := p.Hooks.BeforeRegister(ctx, pc); err != nil {
			return fail(fmt.Errorf("plugin %q: before register: %w", name, err))
		}
	}

	if err := p.Register(ctx, pc); err != nil {
		return fail(fmt.Errorf("plugin %q: register: %w", name, err))
	}

	m.mu.Lock()
	state.status = PluginRegistered
	m.order = append(m.order, name)
	m.mu.Unlock()

	if p.Hooks.AfterRegister != nil {
		if err := p.Hooks.AfterRegister(ctx, pc); err != nil {
			// The plugin stays registered: its side effects are live and
			// registration is non-transactional by contract.
			return fmt.Errorf("plugin %q: after register: %w", name, err)
		}
	}

	m.log.InfoContext(ctx, "plugin registered",
		slog.String("plugin", name),
		slog.String("version", p.Metadata.Version),
	)
	return nil
}

// startAll runs BeforeStart then AfterStart for every registered plugin
// in registration order. A hook error aborts the remaining sequence.
func (m *pluginManager) startAll(ctx context.Context) error {
	for _, name := range m.snapshot() {
		state := m.get(name)
		if state == nil {
			continue
		}

		m.setStatus(state, PluginStarting)
		if err := runHook(ctx, state.plugin.Hooks.BeforeStart, state.ctx); err != nil {
			return fmt.Errorf("%w: plugin %q: before start: %w", ErrLifecycleHook, name, err)
		}
		if err := runHook(ctx, state.plugin.Hooks.AfterStart, state.ctx); err != nil {
			return fmt.Errorf("%w: plugin %q: after start: %w", ErrLifecycleHook, name, err)
		}
		m.setStatus(state, PluginStarted)

		m.log.InfoContext(ctx, "plugin started", slog.String("plugin", name))
	}
	return nil
}

// stopAll mirrors startAll with the stop hooks, in registration order.
func (m *pluginManager) stopAll(ctx context.Context) error {
	for _, name := range m.snapshot() {
		state := m.get(name)
		if state == nil {
			continue
		}

		m.setStatus(state, PluginStopping)
		if err := runHook(ctx, state.plugin.Hooks.BeforeStop, state.ctx); err != nil {
			return fmt.Errorf("%w: plugin %q: before stop: %w", ErrLifecycleHook, name, err)
		}
		if err := runHook(ctx, state.plugin.Hooks.AfterStop, state.ctx); err != nil {
			return fmt.Errorf("%w: plugin %q: after stop: %w", ErrLifecycleHook, name, err)
		}
		m.setStatus(state, PluginStopped)

		m.log.InfoContext(ctx, "plugin stopped", slog.String("plugin", name))
	}
	return nil
}

func runHook(ctx context.Context, hook HookFunc, pc *PluginContext) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, pc)
}

func (m *pluginManager) snapshot() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

func (m *pluginManager) get(name string) *pluginState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.plugins[name]
}

func (m *pluginManager) setStatus(state *pluginState, s PluginStatus) {
	m.mu.Lock()
	state.status = s
	m.mu.Unlock()
}

// status returns the lifecycle status for a plugin name;
// PluginUnregistered when unknown.
func (m *pluginManager) status(name string) PluginStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.plugins[name]; ok {
		return st.status
	}
	return PluginUnregistered
}

// service looks up a fully qualified "<plugin>:<service>" registry key.
func (m *pluginManager) service(qualified string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.services[qualified]
	return v, ok
}

// PluginContext is the per-plugin view handed to Register and the
// lifecycle hooks. Storage is private to the owning plugin; services
// are exposed under "<plugin>:<service>".
type PluginContext struct {
	manager *pluginManager
	state   *pluginState
	log     *slog.Logger
	storage map[string]any
	prefix  string
}

// Name returns the owning plugin's name.
func (pc *PluginContext) Name() string {
	return pc.state.plugin.Metadata.Name
}

// Metadata returns the owning plugin's metadata.
func (pc *PluginContext) Metadata() PluginMetadata {
	return pc.state.plugin.Metadata
}

// Server returns the application the plugin is registered on.
func (pc *PluginContext) Server() *App {
	return pc.manager.app
}

// Router returns a route declaration view. Routes and scoped middleware
// declared through it are mounted under the registration prefix, if any.
func (pc *PluginContext) Router() Router {
	return &routerScope{app: pc.manager.app, prefix: pc.prefix}
}

// Use appends middleware through the plugin's mount: global when the
// plugin was registered without a prefix, scoped to the prefix otherwise.
func (pc *PluginContext) Use(mw ...Middleware) {
	pc.Router().Use(mw...)
}

// Log returns a logger scoped to the plugin.
func (pc *PluginContext) Log() *slog.Logger {
	return pc.log
}

// Store saves a value in the plugin's private storage.
// No other plugin can observe it.
func (pc *PluginContext) Store(key string, value any) {
	pc.manager.mu.Lock()
	defer pc.manager.mu.Unlock()
	pc.storage[key] = value
}

// Load reads a value from the plugin's private storage.
func (pc *PluginContext) Load(key string) (any, bool) {
	pc.manager.mu.RLock()
	defer pc.manager.mu.RUnlock()
	v, ok := pc.storage[key]
	return v, ok
}

// RegisterService exposes a value in the shared registry under the
// qualified name "<plugin>:<name>". The bare name remains resolvable
// for this plugin's own later lookups only.
func (pc *PluginContext) RegisterService(name string, value any) {
	qualified := pc.Name() + ":" + name

	pc.manager.mu.Lock()
	defer pc.manager.mu.Unlock()
	pc.manager.services[qualified] = value
	pc.state.ownServices[name] = qualified
}

// GetService resolves a service. Qualified names ("plugin:service") are
// visible from any plugin; a bare name resolves only against services
// the calling plugin itself registered.
func (pc *PluginContext) GetService(name string) (any, bool) {
	pc.manager.mu.RLock()
	defer pc.manager.mu.RUnlock()

	if strings.Contains(name, ":") {
		v, ok := pc.manager.services[name]
		return v, ok
	}
	if qualified, ok := pc.state.ownServices[name]; ok {
		v, ok := pc.manager.services[qualified]
		return v, ok
	}
	return nil, false
}
