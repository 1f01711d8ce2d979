package feed

import (
	"context"
	"time"
)

// Post is one submission from the polled subreddit. Immutable during
// processing; owned by the feed client.
type Post struct {
	ID        string
	FullID    string
	Title     string
	Author    string
	URL       string
	Permalink string
	Created   time.Time
}

// Comment is an existing reply on a post, used to detect whether the bot has
// already answered.
type Comment struct {
	ID     string
	Author string
	Body   string
}

// Message is one private message from the bot's inbox.
type Message struct {
	ID      string
	FullID  string
	Author  string
	Subject string
	Body    string
}

// Client is the narrow surface the orchestration needs from the feed
// platform. The production implementation talks to Reddit; tests substitute
// a fake.
type Client interface {
	// FetchNew returns up to limit newest posts from the configured subreddit.
	FetchNew(ctx context.Context, limit int) ([]*Post, error)

	// Comments lists the existing top-level comments on a post.
	Comments(ctx context.Context, post *Post) ([]*Comment, error)

	// Reply publishes body as a comment on the post and returns the new
	// comment's fullname.
	Reply(ctx context.Context, post *Post, body string) (string, error)

	// PinReply distinguishes and stickies a published reply. Best-effort:
	// a failure is reported as false, never as an error.
	PinReply(ctx context.Context, commentID string) bool

	// UnreadMessages drains the unread private-message inbox.
	UnreadMessages(ctx context.Context) ([]*Message, error)

	// MarkRead marks the given messages as read.
	MarkRead(ctx context.Context, ids ...string) error

	// SendMessage sends a private message.
	SendMessage(ctx context.Context, to, subject, body string) error

	// Me returns the bot's own account name.
	Me() string
}
