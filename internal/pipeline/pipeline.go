// Package pipeline runs one post through the import, export, compose and
// publish stages, with best-effort rollback when publishing fails.
package pipeline

import (
	"context"

	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/plugin"
	opalerrors "github.com/opalmirror/opal/pkg/errors"
)

// State is the terminal state of one post's trip through the pipeline.
type State int

const (
	// StateDropped means no reply was warranted: already answered, no
	// imports, or no exports.
	StateDropped State = iota
	// StatePublished means the reply was posted.
	StatePublished
	// StateFailed means publishing failed; exports were rolled back.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDropped:
		return "dropped"
	case StatePublished:
		return "published"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes the outcome of processing one post.
type Result struct {
	State  State
	Reason string
	Err    error
}

// Pipeline orchestrates the stages for a single post. One instance serves
// the whole scan loop; it holds no per-post state.
type Pipeline struct {
	reg      *plugin.Registry
	feed     feed.Client
	composer *Composer
	rollback *Rollback
	log      *logger.Logger
}

// New wires a pipeline over the active plugin set and feed client.
func New(reg *plugin.Registry, fc feed.Client, composer *Composer, log *logger.Logger) *Pipeline {
	return &Pipeline{
		reg:      reg,
		feed:     fc,
		composer: composer,
		rollback: NewRollback(reg, log),
		log:      log.Component("pipeline"),
	}
}

// Process runs one post through the state machine. It never returns an error
// for per-plugin failures; only the post-level outcome.
func (p *Pipeline) Process(ctx context.Context, post *feed.Post) Result {
	log := p.log.WithFields(map[string]any{"post": post.ID, "url": post.URL})
	log.Debug("processing post")

	answered, err := p.alreadyAnswered(ctx, post)
	if err != nil {
		return Result{State: StateFailed, Reason: "comment check failed", Err: err}
	}
	if answered {
		log.Debug("already replied, skipping")
		return Result{State: StateDropped, Reason: "already replied"}
	}

	imports, _ := p.reg.ImportAll(ctx, post)
	if len(imports) == 0 {
		log.Debug("no importer recognized the post")
		return Result{State: StateDropped, Reason: "no imports"}
	}

	var table plugin.ExportTable
	for _, rec := range imports {
		exports, _ := p.reg.ExportAll(ctx, rec)
		if len(exports) == 0 {
			continue
		}
		table = append(table, plugin.ExportEntry{
			Header:  rec.Header,
			Footer:  rec.Footer,
			Exports: exports,
			Import:  rec,
		})
	}

	if len(table) == 0 {
		log.Warn("imports done, but no exports")
		return Result{State: StateDropped, Reason: "no exports"}
	}

	body, err := p.composer.Compose(post, table)
	if err != nil {
		log.Error(err, "compose failed, rolling back exports")
		p.rollback.Run(ctx, table)
		return Result{State: StateFailed, Reason: "compose failed", Err: err}
	}

	commentID, err := p.feed.Reply(ctx, post, body)
	if err != nil {
		log.Error(err, "publish failed, rolling back exports")
		p.rollback.Run(ctx, table)
		return Result{State: StateFailed, Reason: "publish failed",
			Err: opalerrors.NewPublishError(post.ID, err)}
	}

	if p.feed.PinReply(ctx, commentID) {
		log.Debug("reply pinned")
	}

	log.WithFields(map[string]any{"comment": commentID}).Info("reply published")
	return Result{State: StatePublished}
}

// alreadyAnswered reports whether any existing comment on the post was
// authored by the bot's own account.
func (p *Pipeline) alreadyAnswered(ctx context.Context, post *feed.Post) (bool, error) {
	comments, err := p.feed.Comments(ctx, post)
	if err != nil {
		return false, err
	}
	me := p.feed.Me()
	for _, c := range comments {
		if c.Author == me {
			return true, nil
		}
	}
	return false, nil
}
