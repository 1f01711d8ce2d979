package pipeline

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/plugin"
	opalerrors "github.com/opalmirror/opal/pkg/errors"
)

const defaultReplyTemplate = "{links}\n\n---\n^(Opal Mirror {version})"

// TemplateData is what a configured template file renders against.
type TemplateData struct {
	Links      string
	LinksParts []string
	Table      plugin.ExportTable
	Post       *feed.Post
	Config     *config.Config
}

// Composer turns an export table into the reply body. The default is a
// placeholder-substitution template; a template_file swaps in text/template
// rendering with the full data set.
type Composer struct {
	cfg      *config.Config
	format   string
	rendered *template.Template
}

// NewComposer builds a composer from the configuration, parsing the template
// file eagerly so a broken template is a startup error, not a per-post one.
func NewComposer(cfg *config.Config) (*Composer, error) {
	c := &Composer{cfg: cfg, format: cfg.ReplyTemplate}
	if c.format == "" {
		c.format = defaultReplyTemplate
	}

	if cfg.TemplateFile != "" {
		tmpl, err := template.ParseFiles(cfg.TemplateFile)
		if err != nil {
			return nil, opalerrors.NewValidationError("template_file", err.Error(), err)
		}
		c.rendered = tmpl
	}
	return c, nil
}

// Compose renders the reply for one post. Each table entry contributes its
// header, its export links in fan-out order, and its footer.
func (c *Composer) Compose(post *feed.Post, table plugin.ExportTable) (string, error) {
	var parts []string
	for _, entry := range table {
		parts = append(parts, entry.Header)
		for _, export := range entry.Exports {
			parts = append(parts, export.LinkDisplay)
		}
		parts = append(parts, entry.Footer)
	}
	links := strings.Join(parts, "")

	if c.rendered != nil {
		var buf strings.Builder
		err := c.rendered.Execute(&buf, TemplateData{
			Links:      links,
			LinksParts: parts,
			Table:      table,
			Post:       post,
			Config:     c.cfg,
		})
		if err != nil {
			return "", fmt.Errorf("render template: %w", err)
		}
		return buf.String(), nil
	}

	replacer := strings.NewReplacer(
		"{links}", links,
		"{version}", config.Version,
		"{maintainer}", c.cfg.Maintainer,
		"{subreddit}", c.cfg.Subreddit,
	)
	return replacer.Replace(c.format), nil
}
