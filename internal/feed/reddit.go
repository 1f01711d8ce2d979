package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/logger"
)

const defaultDistinguishURL = "https://oauth.reddit.com/api/distinguish"

// RedditClient implements Client on top of the Reddit API.
type RedditClient struct {
	client    *reddit.Client
	limiter   *rate.Limiter
	tokens    *TokenSource
	http      *http.Client
	log       *logger.Logger
	subreddit string
	username  string
	userAgent string

	// distinguishURL is overridable in tests.
	distinguishURL string
}

// NewRedditClient builds the production feed client. The token source is
// shared with the scan loop, which refreshes it on a schedule.
func NewRedditClient(cfg *config.Config, tokens *TokenSource, log *logger.Logger) (*RedditClient, error) {
	creds := reddit.Credentials{
		ID:       cfg.Creds.ClientID,
		Secret:   cfg.Creds.ClientSecret,
		Username: cfg.Creds.Username,
		Password: cfg.Creds.Password,
	}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent(cfg.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}

	return &RedditClient{
		client: client,
		// Stay well under the authenticated quota of ~60 requests/minute.
		limiter:        rate.NewLimiter(rate.Every(time.Second), 1),
		tokens:         tokens,
		http:           &http.Client{Timeout: 15 * time.Second},
		log:            log.Component("feed"),
		subreddit:      cfg.Subreddit,
		username:       cfg.Creds.Username,
		userAgent:      cfg.UserAgent,
		distinguishURL: defaultDistinguishURL,
	}, nil
}

func (c *RedditClient) FetchNew(ctx context.Context, limit int) ([]*Post, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	posts, _, err := c.client.Subreddit.NewPosts(ctx, c.subreddit, &reddit.ListOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("fetch new posts: %w", err)
	}

	result := make([]*Post, 0, len(posts))
	for _, p := range posts {
		post := &Post{
			ID:        p.ID,
			FullID:    p.FullID,
			Title:     p.Title,
			Author:    p.Author,
			URL:       p.URL,
			Permalink: "https://www.reddit.com" + p.Permalink,
		}
		if p.Created != nil {
			post.Created = p.Created.Time
		}
		result = append(result, post)
	}
	return result, nil
}

func (c *RedditClient) Comments(ctx context.Context, post *Post) ([]*Comment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pc, _, err := c.client.Post.Get(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch comments for %s: %w", post.ID, err)
	}

	comments := make([]*Comment, 0, len(pc.Comments))
	for _, cm := range pc.Comments {
		comments = append(comments, &Comment{ID: cm.FullID, Author: cm.Author, Body: cm.Body})
	}
	return comments, nil
}

func (c *RedditClient) Reply(ctx context.Context, post *Post, body string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	comment, _, err := c.client.Comment.Submit(ctx, post.FullID, body)
	if err != nil {
		return "", fmt.Errorf("reply to %s: %w", post.ID, err)
	}
	return comment.FullID, nil
}

// PinReply distinguishes and stickies the bot's reply. The listing client
// does not cover moderation endpoints, so this goes through a plain form
// request with the shared token source.
func (c *RedditClient) PinReply(ctx context.Context, commentID string) bool {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.log.Error(err, "pin skipped: no access token")
		return false
	}

	form := url.Values{}
	form.Set("id", commentID)
	form.Set("how", "yes")
	form.Set("sticky", "true")
	form.Set("api_type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.distinguishURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(err, "pin request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(map[string]any{"status": resp.StatusCode, "comment": commentID}).
			Warn("pin rejected")
		return false
	}
	return true
}

func (c *RedditClient) UnreadMessages(ctx context.Context) ([]*Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	_, messages, _, err := c.client.Message.InboxUnread(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch unread messages: %w", err)
	}

	result := make([]*Message, 0, len(messages))
	for _, m := range messages {
		result = append(result, &Message{
			ID:      m.ID,
			FullID:  m.FullID,
			Author:  m.Author,
			Subject: m.Subject,
			Body:    m.Text,
		})
	}
	return result, nil
}

func (c *RedditClient) MarkRead(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.client.Message.Read(ctx, ids...); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

func (c *RedditClient) SendMessage(ctx context.Context, to, subject, body string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.client.Message.Send(ctx, &reddit.SendMessageRequest{
		To:      to,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("send message to %s: %w", to, err)
	}
	return nil
}

func (c *RedditClient) Me() string {
	return c.username
}
