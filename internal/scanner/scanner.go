// Package scanner drives the continuous poll-and-process loop over the feed.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/pipeline"
	"github.com/opalmirror/opal/internal/seen"
)

// Processor runs one post through the import/export pipeline.
type Processor interface {
	Process(ctx context.Context, post *feed.Post) pipeline.Result
}

// TokenRefresher renews the access credential between cycles.
type TokenRefresher interface {
	Refresh(ctx context.Context) error
}

// Scanner polls the feed, deduplicates posts against the seen store, and
// hands each unseen post to the pipeline. Single-threaded by design: posts
// and plugins are never processed concurrently.
type Scanner struct {
	cfg    *config.Config
	feed   feed.Client
	pipe   Processor
	seen   seen.Store
	tokens TokenRefresher
	log    *logger.Logger
}

// New wires a scanner. tokens may be nil when no renewable credential is in
// play.
func New(cfg *config.Config, fc feed.Client, pipe Processor, store seen.Store, tokens TokenRefresher, log *logger.Logger) *Scanner {
	return &Scanner{
		cfg:    cfg,
		feed:   fc,
		pipe:   pipe,
		seen:   store,
		tokens: tokens,
		log:    log.Component("scanner"),
	}
}

// Run loops until the context is cancelled or a cycle-level error occurs.
// On a cycle error the caller is expected to rebuild the whole system and
// call Run again after a cooldown; Run itself never retries.
func (s *Scanner) Run(ctx context.Context) error {
	s.log.WithFields(map[string]any{
		"subreddit": s.cfg.Subreddit,
		"interval":  s.cfg.PollInterval.String(),
	}).Info("scan loop started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.cycle(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.PollInterval.Duration):
		}

		if s.tokens != nil {
			if err := s.tokens.Refresh(ctx); err != nil {
				s.log.Error(err, "token refresh failed, continuing with cached token")
			}
		}
	}
}

// cycle performs one poll: forward inbox messages, fetch the newest posts,
// and process every unseen one. Every post is marked seen regardless of its
// pipeline outcome, so it is never retried within this store's lifetime.
func (s *Scanner) cycle(ctx context.Context) error {
	if s.cfg.ForwardMessages {
		s.forwardMessages(ctx)
	}

	posts, err := s.feed.FetchNew(ctx, s.cfg.ScanLimit)
	if err != nil {
		return fmt.Errorf("fetch new posts: %w", err)
	}

	for _, post := range posts {
		already, err := s.seen.Seen(post.ID)
		if err != nil {
			return fmt.Errorf("seen lookup: %w", err)
		}
		if already {
			continue
		}

		res := s.pipe.Process(ctx, post)
		log := s.log.WithFields(map[string]any{"post": post.ID, "state": res.State.String()})
		switch res.State {
		case pipeline.StateFailed:
			log.Error(res.Err, "post processing failed")
		default:
			log.Debug("post processed")
		}

		if err := s.seen.Add(post.ID); err != nil {
			return fmt.Errorf("seen record: %w", err)
		}
	}

	return nil
}

// forwardMessages drains the unread inbox to the maintainer. All failures
// here are swallowed; message forwarding must never disturb scanning.
func (s *Scanner) forwardMessages(ctx context.Context) {
	messages, err := s.feed.UnreadMessages(ctx)
	if err != nil {
		s.log.Error(err, "reading inbox failed")
		return
	}

	for _, m := range messages {
		subject := fmt.Sprintf("[opal] from %s: %s", m.Author, m.Subject)
		if err := s.feed.SendMessage(ctx, s.cfg.Maintainer, subject, m.Body); err != nil {
			s.log.Error(err, "forwarding message failed")
			continue
		}
		if err := s.feed.MarkRead(ctx, m.FullID); err != nil {
			s.log.Error(err, "marking message read failed")
		}
	}
}
