// Package imgur re-hosts imported images on Imgur through its anonymous v3
// API. Uploads record their deletehash so a failed reply can be rolled back.
package imgur

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/plugin"
)

func init() {
	plugin.RegisterFactory("imgur", New)
}

const defaultBaseURL = "https://api.imgur.com/3"

// albumTokenPrefix marks delete tokens that refer to an album rather than a
// single image; the token stays opaque to everyone but this plugin.
const albumTokenPrefix = "album:"

// Plugin uploads image imports to Imgur.
type Plugin struct {
	log      *logger.Logger
	http     *http.Client
	clientID string
	baseURL  string
}

// New constructs the exporter. A missing client_id excludes the plugin
// without affecting the rest of startup.
func New(cfg *config.Config, log *logger.Logger) (plugin.Plugin, error) {
	if cfg.Plugins.Imgur.ClientID == "" {
		return nil, errors.New("plugins.imgur.client_id is not set")
	}

	base := cfg.Plugins.Imgur.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	return &Plugin{
		log:      log.Component("imgur"),
		http:     &http.Client{Timeout: 60 * time.Second},
		clientID: cfg.Plugins.Imgur.ClientID,
		baseURL:  strings.TrimRight(base, "/"),
	}, nil
}

func (p *Plugin) Name() string { return "imgur" }

func (p *Plugin) ExportImport(ctx context.Context, rec *plugin.ImportRecord) (*plugin.ExportRecord, error) {
	if rec.Video {
		return nil, nil
	}

	description := fmt.Sprintf("Mirror of a work by %s, originally at %s", rec.Author, rec.Source)

	if len(rec.SourceURLs) == 1 {
		img, err := p.uploadURL(ctx, rec.SourceURLs[0], "", description)
		if err != nil {
			return nil, err
		}
		return &plugin.ExportRecord{
			Exporter:    "imgur",
			LinkDisplay: fmt.Sprintf("[Imgur](%s)  \n", strings.Replace(img.Link, "http://", "https://", 1)),
			DeleteToken: img.DeleteHash,
		}, nil
	}

	album, err := p.createAlbum(ctx, description)
	if err != nil {
		return nil, err
	}

	var uploaded []imgurImage
	for _, src := range rec.SourceURLs {
		img, err := p.uploadURL(ctx, src, album.DeleteHash, description)
		if err != nil {
			// Do not leak the partial album.
			for _, done := range uploaded {
				p.deleteByPath(ctx, "/image/"+done.DeleteHash)
			}
			p.deleteByPath(ctx, "/album/"+album.DeleteHash)
			return nil, fmt.Errorf("upload %s: %w", src, err)
		}
		uploaded = append(uploaded, img)
	}

	return &plugin.ExportRecord{
		Exporter:    "imgur",
		LinkDisplay: fmt.Sprintf("[Imgur Album](https://imgur.com/a/%s)  \n", album.ID),
		DeleteToken: albumTokenPrefix + album.DeleteHash,
	}, nil
}

// DeleteExport removes an uploaded image or album by its deletehash.
func (p *Plugin) DeleteExport(ctx context.Context, token string) error {
	path := "/image/" + token
	if hash, ok := strings.CutPrefix(token, albumTokenPrefix); ok {
		path = "/album/" + hash
	}
	if !p.deleteByPath(ctx, path) {
		return fmt.Errorf("imgur delete failed for %s", path)
	}
	return nil
}

type imgurImage struct {
	ID         string `json:"id"`
	Link       string `json:"link"`
	DeleteHash string `json:"deletehash"`
}

type imgurEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Status  int             `json:"status"`
}

func (p *Plugin) uploadURL(ctx context.Context, src, albumHash, description string) (imgurImage, error) {
	form := url.Values{}
	form.Set("image", src)
	form.Set("type", "url")
	form.Set("description", description)
	if albumHash != "" {
		form.Set("album", albumHash)
	}

	var img imgurImage
	if err := p.call(ctx, http.MethodPost, "/upload", form, &img); err != nil {
		return imgurImage{}, fmt.Errorf("upload: %w", err)
	}
	return img, nil
}

func (p *Plugin) createAlbum(ctx context.Context, description string) (imgurImage, error) {
	form := url.Values{}
	form.Set("description", description)

	var album imgurImage
	if err := p.call(ctx, http.MethodPost, "/album", form, &album); err != nil {
		return imgurImage{}, fmt.Errorf("create album: %w", err)
	}
	return album, nil
}

func (p *Plugin) deleteByPath(ctx context.Context, path string) bool {
	if err := p.call(ctx, http.MethodDelete, path, nil, nil); err != nil {
		p.log.Error(err, "delete request failed")
		return false
	}
	return true
}

func (p *Plugin) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Client-ID "+p.clientID)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope imgurEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("api status %d", envelope.Status)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
