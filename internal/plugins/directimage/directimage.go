// Package directimage imports posts that link straight to a media file.
package directimage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/plugin"
)

func init() {
	plugin.RegisterFactory("directimage", New)
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
}

var videoExts = map[string]bool{
	".gifv": true, ".mp4": true, ".webm": true,
}

// Plugin recognizes URLs whose path ends in a known media extension.
type Plugin struct {
	log *logger.Logger
}

// New constructs the direct-image importer. It needs no configuration.
func New(cfg *config.Config, log *logger.Logger) (plugin.Plugin, error) {
	return &Plugin{log: log.Component("directimage")}, nil
}

func (p *Plugin) Name() string { return "directimage" }

func (p *Plugin) ImportPost(ctx context.Context, post *feed.Post) (*plugin.ImportRecord, error) {
	u, err := url.Parse(post.URL)
	if err != nil || u.Scheme == "" {
		return nil, nil
	}

	ext := strings.ToLower(path.Ext(u.Path))
	video := videoExts[ext]
	if !imageExts[ext] && !video {
		return nil, nil
	}

	kind := "image"
	if video {
		kind = "video"
	}

	p.log.WithFields(map[string]any{"post": post.ID, "kind": kind}).Debug("direct media link matched")

	return &plugin.ImportRecord{
		SourceURLs: []string{post.URL},
		Author:     "u/" + post.Author,
		Source:     post.Permalink,
		Video:      video,
		Header:     fmt.Sprintf("Mirrored %s:\n\n", kind),
	}, nil
}
