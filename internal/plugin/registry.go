package plugin

import (
	"context"
	"fmt"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/logger"
	opalerrors "github.com/opalmirror/opal/pkg/errors"
)

// CallError records one plugin's failure during a fan-out. Collecting these
// instead of returning an error keeps one broken plugin from blocking the
// rest.
type CallError struct {
	Plugin string
	Err    error
}

func (e CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Plugin, e.Err)
}

// Registry holds the active plugin set in registration order and implements
// the capability fan-outs every pipeline stage is built on.
type Registry struct {
	plugins []Plugin
	log     *logger.Logger
}

// NewRegistry instantiates every registered factory with the full
// configuration. A constructor failure is logged as a warning and excludes
// that plugin; the rest of startup is unaffected.
func NewRegistry(cfg *config.Config, log *logger.Logger) *Registry {
	r := &Registry{log: log.Component("registry")}

	for _, entry := range factories {
		p, err := entry.factory(cfg, log)
		if err != nil {
			r.log.Error(opalerrors.NewPluginError(entry.name, err), "plugin excluded: construction failed")
			continue
		}
		if p == nil {
			r.log.WithFields(map[string]any{"plugin": entry.name}).
				Warn("plugin excluded: factory returned nil")
			continue
		}
		r.log.WithFields(map[string]any{"plugin": p.Name()}).Debug("plugin registered")
		r.plugins = append(r.plugins, p)
	}

	return r
}

// NewRegistryFrom builds a registry from explicit instances (for tests and
// embedding).
func NewRegistryFrom(log *logger.Logger, plugins ...Plugin) *Registry {
	return &Registry{plugins: plugins, log: log.Component("registry")}
}

// Plugins returns the active set in registration order.
func (r *Registry) Plugins() []Plugin {
	return r.plugins
}

// VerifyAll runs VerifyOptions on every plugin that declares it. The first
// error is returned as-is: option verification failures are configuration
// errors and fatal.
func (r *Registry) VerifyAll(cfg *config.Config) error {
	for _, p := range r.plugins {
		v, ok := p.(OptionVerifier)
		if !ok {
			continue
		}
		if err := v.VerifyOptions(cfg); err != nil {
			return opalerrors.NewValidationError("plugins."+p.Name(), err.Error(), err)
		}
	}
	return nil
}

// LoginAll runs Login on every plugin that declares it, isolating failures.
func (r *Registry) LoginAll(ctx context.Context) []CallError {
	var errs []CallError
	for _, p := range r.plugins {
		a, ok := p.(Authenticator)
		if !ok {
			continue
		}
		if err := a.Login(ctx); err != nil {
			errs = append(errs, CallError{Plugin: p.Name(), Err: err})
			r.log.Error(err, "plugin login failed")
		}
	}
	return errs
}

// ImportAll invokes ImportPost on every importer, in registration order.
// Only records that carry at least one source URL are returned; per-plugin
// errors are collected, never propagated.
func (r *Registry) ImportAll(ctx context.Context, post *feed.Post) ([]*ImportRecord, []CallError) {
	var records []*ImportRecord
	var errs []CallError

	for _, p := range r.plugins {
		imp, ok := p.(Importer)
		if !ok {
			continue
		}
		rec, err := imp.ImportPost(ctx, post)
		if err != nil {
			errs = append(errs, CallError{Plugin: p.Name(), Err: err})
			r.log.WithFields(map[string]any{"plugin": p.Name(), "post": post.ID}).
				Error(err, "import failed")
			continue
		}
		if !rec.Useful() {
			continue
		}
		records = append(records, rec)
	}

	return records, errs
}

// ExportAll fans one import record out to every exporter, in registration
// order. Empty results are dropped; per-plugin errors are collected.
func (r *Registry) ExportAll(ctx context.Context, rec *ImportRecord) ([]*ExportRecord, []CallError) {
	var records []*ExportRecord
	var errs []CallError

	for _, p := range r.plugins {
		exp, ok := p.(Exporter)
		if !ok {
			continue
		}
		out, err := exp.ExportImport(ctx, rec)
		if err != nil {
			errs = append(errs, CallError{Plugin: p.Name(), Err: err})
			r.log.WithFields(map[string]any{"plugin": p.Name()}).
				Error(err, "export failed")
			continue
		}
		if out == nil || out.LinkDisplay == "" {
			continue
		}
		records = append(records, out)
	}

	return records, errs
}

// DeletersFor returns every active plugin whose name matches and which
// implements delete. An empty result makes the caller's rollback for that
// record a no-op.
func (r *Registry) DeletersFor(name string) []Deleter {
	var out []Deleter
	for _, p := range r.plugins {
		if p.Name() != name {
			continue
		}
		if d, ok := p.(Deleter); ok {
			out = append(out, d)
		}
	}
	return out
}
