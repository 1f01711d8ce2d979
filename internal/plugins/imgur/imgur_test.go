package imgur

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/plugin"
)

type fakeImgur struct {
	t *testing.T

	uploads    []string // image form values, in order
	albums     int
	deletes    []string // method+path
	failUpload int      // fail the nth upload (1-based), 0 = never
}

func (f *fakeImgur) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "Client-ID test-id", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			require.NoError(f.t, r.ParseForm())
			f.uploads = append(f.uploads, r.PostForm.Get("image"))
			if f.failUpload > 0 && len(f.uploads) == f.failUpload {
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "status": 400})
				return
			}
			n := len(f.uploads)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": map[string]any{
					"id":         fmt.Sprintf("img%d", n),
					"link":       fmt.Sprintf("http://i.imgur.com/img%d.png", n),
					"deletehash": fmt.Sprintf("del%d", n),
				},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/album":
			f.albums++
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"id": "alb1", "deletehash": "albdel"},
			})
		case r.Method == http.MethodDelete:
			f.deletes = append(f.deletes, r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": true})
		default:
			f.t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
}

func newPlugin(t *testing.T, baseURL string) *Plugin {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Plugins.Imgur = config.ImgurSettings{ClientID: "test-id", BaseURL: baseURL}

	p, err := New(cfg, log)
	require.NoError(t, err)
	return p.(*Plugin)
}

func TestNewRequiresClientID(t *testing.T) {
	t.Parallel()

	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)

	_, err = New(&config.Config{}, log)
	require.ErrorContains(t, err, "client_id")
}

func TestExportSingleImage(t *testing.T) {
	t.Parallel()

	fake := &fakeImgur{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := newPlugin(t, srv.URL)
	rec, err := p.ExportImport(context.Background(), &plugin.ImportRecord{
		SourceURLs: []string{"https://cdn.example.com/a.png"},
		Author:     "artist",
		Source:     "https://example.com/work",
	})

	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "imgur", rec.Exporter)
	require.Equal(t, "[Imgur](https://i.imgur.com/img1.png)  \n", rec.LinkDisplay)
	require.Equal(t, "del1", rec.DeleteToken)
	require.Zero(t, fake.albums)
}

func TestExportMultipleImagesCreatesAlbum(t *testing.T) {
	t.Parallel()

	fake := &fakeImgur{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := newPlugin(t, srv.URL)
	rec, err := p.ExportImport(context.Background(), &plugin.ImportRecord{
		SourceURLs: []string{"u1", "u2", "u3"},
	})

	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, 1, fake.albums)
	require.Equal(t, []string{"u1", "u2", "u3"}, fake.uploads)
	require.Equal(t, "[Imgur Album](https://imgur.com/a/alb1)  \n", rec.LinkDisplay)
	require.Equal(t, "album:albdel", rec.DeleteToken)
}

func TestExportCleansUpPartialAlbumOnFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeImgur{t: t, failUpload: 2}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := newPlugin(t, srv.URL)
	rec, err := p.ExportImport(context.Background(), &plugin.ImportRecord{
		SourceURLs: []string{"u1", "u2"},
	})

	require.Error(t, err)
	require.Nil(t, rec)
	require.Equal(t, []string{"/image/del1", "/album/albdel"}, fake.deletes)
}

func TestExportSkipsVideoRecords(t *testing.T) {
	t.Parallel()

	p := newPlugin(t, "http://unused")
	rec, err := p.ExportImport(context.Background(), &plugin.ImportRecord{
		SourceURLs: []string{"https://cdn.example.com/clip.mp4"},
		Video:      true,
	})

	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestDeleteExportRoutesImageAndAlbumTokens(t *testing.T) {
	t.Parallel()

	fake := &fakeImgur{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := newPlugin(t, srv.URL)
	require.NoError(t, p.DeleteExport(context.Background(), "del1"))
	require.NoError(t, p.DeleteExport(context.Background(), "album:albdel"))

	require.Equal(t, []string{"/image/del1", "/album/albdel"}, fake.deletes)
}
