package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/plugin"
)

func sampleTable() plugin.ExportTable {
	return plugin.ExportTable{
		{
			Header: "A-head|",
			Footer: "|A-foot",
			Exports: []*plugin.ExportRecord{
				{Exporter: "x", LinkDisplay: "a1"},
				{Exporter: "y", LinkDisplay: "a2"},
			},
		},
		{
			Header: "B-head|",
			Footer: "|B-foot",
			Exports: []*plugin.ExportRecord{
				{Exporter: "x", LinkDisplay: "b1"},
			},
		},
	}
}

func TestComposeOrdersEntriesWithoutLeakage(t *testing.T) {
	t.Parallel()

	c, err := NewComposer(&config.Config{Subreddit: "pics", Maintainer: "m"})
	require.NoError(t, err)

	out, err := c.Compose(&feed.Post{ID: "p"}, sampleTable())
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "A-head|a1a2|A-footB-head|b1|B-foot"))
	require.Contains(t, out, "---\n^(Opal Mirror "+config.Version+")")

	// No entry's content crosses another's boundaries.
	require.Less(t, strings.Index(out, "|A-foot"), strings.Index(out, "B-head|"))
}

func TestComposeCustomInlineTemplate(t *testing.T) {
	t.Parallel()

	c, err := NewComposer(&config.Config{
		Subreddit:     "pics",
		Maintainer:    "someone",
		ReplyTemplate: "mirrors: {links} (ping {maintainer}, v{version})",
	})
	require.NoError(t, err)

	out, err := c.Compose(&feed.Post{ID: "p"}, plugin.ExportTable{
		{Exports: []*plugin.ExportRecord{{Exporter: "x", LinkDisplay: "L"}}},
	})
	require.NoError(t, err)
	require.Equal(t, "mirrors: L (ping someone, v"+config.Version+")", out)
}

func TestComposeTemplateFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reply.tmpl")
	require.NoError(t, os.WriteFile(path,
		[]byte("{{.Links}} via {{.Post.ID}} ({{len .Table}} blocks)"), 0o644))

	c, err := NewComposer(&config.Config{Subreddit: "pics", Maintainer: "m", TemplateFile: path})
	require.NoError(t, err)

	out, err := c.Compose(&feed.Post{ID: "abc"}, sampleTable())
	require.NoError(t, err)
	require.Equal(t, "A-head|a1a2|A-footB-head|b1|B-foot via abc (2 blocks)", out)
}

func TestNewComposerRejectsMissingTemplateFile(t *testing.T) {
	t.Parallel()

	_, err := NewComposer(&config.Config{TemplateFile: filepath.Join(t.TempDir(), "absent.tmpl")})
	require.Error(t, err)
}
