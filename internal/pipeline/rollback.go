package pipeline

import (
	"context"

	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/plugin"
)

// Rollback undoes the exports of a post whose reply could not be published.
// Every delete attempt is independent; nothing here retries or escalates.
// Its sole purpose is to avoid leaking uploaded media.
type Rollback struct {
	reg *plugin.Registry
	log *logger.Logger
}

// NewRollback builds a rollback manager over the active plugin set.
func NewRollback(reg *plugin.Registry, log *logger.Logger) *Rollback {
	return &Rollback{reg: reg, log: log.Component("rollback")}
}

// Run walks the export table and invokes DeleteExport for every record that
// carries both a delete token and an exporter name. It returns the number of
// delete attempts made.
func (r *Rollback) Run(ctx context.Context, table plugin.ExportTable) int {
	attempts := 0
	for _, entry := range table {
		for _, export := range entry.Exports {
			if !export.Deletable() {
				continue
			}

			deleters := r.reg.DeletersFor(export.Exporter)
			if len(deleters) == 0 {
				r.log.WithFields(map[string]any{"exporter": export.Exporter}).
					Warn("no deleter for export, leaving it in place")
				continue
			}

			for _, d := range deleters {
				attempts++
				if err := d.DeleteExport(ctx, export.DeleteToken); err != nil {
					r.log.WithFields(map[string]any{"exporter": export.Exporter}).
						Error(err, "delete export failed")
				}
			}
		}
	}
	return attempts
}
