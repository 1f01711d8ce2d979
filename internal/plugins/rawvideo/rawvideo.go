// Package rawvideo exports video imports by linking the raw file directly,
// after checking that the URL really serves a video content type.
package rawvideo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/plugin"
)

func init() {
	plugin.RegisterFactory("rawvideo", New)
}

// Plugin posts direct links for raw video sources. No re-hosting happens,
// so there is nothing to delete on rollback.
type Plugin struct {
	log       *logger.Logger
	http      *http.Client
	userAgent string
}

// New constructs the raw-video exporter.
func New(cfg *config.Config, log *logger.Logger) (plugin.Plugin, error) {
	return &Plugin{
		log:       log.Component("rawvideo"),
		http:      &http.Client{Timeout: 15 * time.Second},
		userAgent: cfg.UserAgent,
	}, nil
}

func (p *Plugin) Name() string { return "rawvideo" }

func (p *Plugin) ExportImport(ctx context.Context, rec *plugin.ImportRecord) (*plugin.ExportRecord, error) {
	if !rec.Video || len(rec.SourceURLs) == 0 {
		return nil, nil
	}

	src := rec.SourceURLs[0]
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, src, nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check video source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "video/") {
		return nil, nil
	}

	return &plugin.ExportRecord{
		Exporter:    "rawvideo",
		LinkDisplay: fmt.Sprintf("[Direct video link](%s)  \n", src),
	}, nil
}
