package plugin

import (
	"context"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/logger"
)

// Plugin is the base contract every adapter satisfies. Participation in a
// pipeline stage is expressed through the optional capability interfaces
// below; the registry discovers them by type assertion.
type Plugin interface {
	// Name identifies the plugin. Export records reference it to locate the
	// owning plugin when a delete is needed, so it must be stable and unique.
	Name() string
}

// Authenticator is implemented by plugins that need a session with their
// backing service. Login is called once after construction; a failure is
// isolated to the plugin.
type Authenticator interface {
	Login(ctx context.Context) error
}

// OptionVerifier is implemented by plugins that require configuration beyond
// construction. An error from VerifyOptions is a fatal configuration error.
type OptionVerifier interface {
	VerifyOptions(cfg *config.Config) error
}

// Importer recognizes posts linking to a known media host and extracts the
// mirrorable URLs. Returning (nil, nil) means the post is not applicable.
type Importer interface {
	ImportPost(ctx context.Context, post *feed.Post) (*ImportRecord, error)
}

// Exporter re-hosts the media of one import on a mirror service. Returning
// (nil, nil) means the record is not applicable (for example a video given
// to an image host).
type Exporter interface {
	ExportImport(ctx context.Context, rec *ImportRecord) (*ExportRecord, error)
}

// Deleter removes a previously created export, identified by the opaque
// token the same plugin emitted. Best-effort cleanup.
type Deleter interface {
	DeleteExport(ctx context.Context, token string) error
}

// Factory constructs one plugin instance from the full configuration. A
// factory error excludes that plugin and never aborts loading of the others.
type Factory func(cfg *config.Config, log *logger.Logger) (Plugin, error)

type factoryEntry struct {
	name    string
	factory Factory
}

// factories preserves registration order; plugin invocation order is defined
// by it.
var factories []factoryEntry

// RegisterFactory adds a plugin factory under the given name. Called from
// plugin package init functions; the blank-import list in cmd/opal fixes the
// order.
func RegisterFactory(name string, f Factory) {
	if name == "" || f == nil {
		panic("plugin: RegisterFactory requires a name and a factory")
	}
	for _, e := range factories {
		if e.name == name {
			panic("plugin: duplicate factory " + name)
		}
	}
	factories = append(factories, factoryEntry{name: name, factory: f})
}

// resetFactories clears registrations (for tests).
func resetFactories() {
	factories = nil
}
