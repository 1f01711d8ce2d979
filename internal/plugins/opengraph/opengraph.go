// Package opengraph imports media from arbitrary pages via their Open Graph
// meta tags. It is the generic fallback rule next to host-specific importers.
package opengraph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/plugin"
)

func init() {
	plugin.RegisterFactory("opengraph", New)
}

// Plugin fetches the linked page and extracts og:image / og:video targets.
type Plugin struct {
	log       *logger.Logger
	http      *http.Client
	userAgent string
	hosts     map[string]bool
}

// New constructs the scraper. An empty host list means any host may be
// scraped.
func New(cfg *config.Config, log *logger.Logger) (plugin.Plugin, error) {
	hosts := make(map[string]bool, len(cfg.Plugins.OpenGraph.Hosts))
	for _, h := range cfg.Plugins.OpenGraph.Hosts {
		hosts[strings.ToLower(h)] = true
	}

	return &Plugin{
		log:       log.Component("opengraph"),
		http:      &http.Client{Timeout: 15 * time.Second},
		userAgent: cfg.UserAgent,
		hosts:     hosts,
	}, nil
}

func (p *Plugin) Name() string { return "opengraph" }

func (p *Plugin) ImportPost(ctx context.Context, post *feed.Post) (*plugin.ImportRecord, error) {
	u, err := url.Parse(post.URL)
	if err != nil || u.Scheme == "" {
		return nil, nil
	}

	host := strings.ToLower(u.Hostname())
	if len(p.hosts) > 0 && !p.hosts[host] {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, post.URL, nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	video := metaContent(doc, "og:video", "og:video:url", "og:video:secure_url")
	image := metaContent(doc, "og:image", "og:image:secure_url")

	target := image
	isVideo := false
	if video != "" {
		target = video
		isVideo = true
	}
	if target == "" {
		return nil, nil
	}

	author := metaContent(doc, "og:site_name")
	if author == "" {
		author = host
	}

	p.log.WithFields(map[string]any{"post": post.ID, "host": host}).Debug("open graph media found")

	return &plugin.ImportRecord{
		SourceURLs: []string{target},
		Author:     author,
		Source:     post.URL,
		Video:      isVideo,
		Header:     fmt.Sprintf("Mirrored from %s:\n\n", host),
	}, nil
}

func metaContent(doc *goquery.Document, properties ...string) string {
	for _, prop := range properties {
		sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, prop)).First()
		if content, ok := sel.Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}
