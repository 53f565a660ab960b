package stages

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/media"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/stage"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

const defaultAudioExt = ".mp3"

// Downloader streams episode audio into the incoming directory.
type Downloader struct {
	cfg       *config.Config
	locations media.Locations
	client    *http.Client
	logger    *slog.Logger
}

// NewDownloader constructs the download stage handler.
func NewDownloader(cfg *config.Config, logger *slog.Logger) *Downloader {
	return NewDownloaderWithClient(cfg, &http.Client{Timeout: 30 * time.Minute}, logger)
}

// NewDownloaderWithClient allows injecting the HTTP client (used in tests).
func NewDownloaderWithClient(cfg *config.Config, client *http.Client, logger *slog.Logger) *Downloader {
	return &Downloader{
		cfg:       cfg,
		locations: media.NewLocations(cfg),
		client:    client,
		logger:    componentLogger(logger, "download"),
	}
}

// SetLogger installs a stage-scoped logger.
func (d *Downloader) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

func (d *Downloader) Prepare(_ context.Context, item *store.Item) error {
	parsed, err := url.Parse(strings.TrimSpace(item.AudioURL))
	if err != nil || !parsed.IsAbs() {
		return services.Wrap(services.ErrValidation, "download", "validate", "episode has no usable audio url", err)
	}
	return nil
}

func (d *Downloader) Execute(ctx context.Context, item *store.Item) (store.StageResult, error) {
	var empty store.StageResult

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.AudioURL, nil)
	if err != nil {
		return empty, services.Wrap(services.ErrValidation, "download", "fetch", "build request", err)
	}
	req.Header.Set("User-Agent", "podsum/0.1")

	resp, err := d.client.Do(req)
	if err != nil {
		return empty, services.Wrap(services.ErrExternalService, "download", "fetch", "request audio", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return empty, services.Wrap(services.ErrExternalService, "download", "fetch",
			fmt.Sprintf("audio server returned %d", resp.StatusCode), nil)
	}

	dest := d.locations.IncomingPath(media.Filename(item.Title, item.PublishedAt, item.GUID, audioExt(item.AudioURL)))
	written, err := d.streamTo(dest, resp.Body)
	if err != nil {
		_ = d.locations.Purge(dest)
		return empty, err
	}

	d.logger.InfoContext(ctx, "audio downloaded",
		logging.String("path", dest),
		logging.Int64("bytes", written))
	return store.StageResult{AudioPath: dest}, nil
}

// streamTo copies the response body to dest, enforcing the configured size
// cap on actual bytes received. The feed's declared enclosure length is
// advisory only.
func (d *Downloader) streamTo(dest string, body io.Reader) (int64, error) {
	maxBytes := int64(d.cfg.Limits.MaxAudioMB) * 1024 * 1024

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, services.Wrap(services.ErrValidation, "download", "write", "create incoming directory", err)
	}
	file, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "download", "write", "create audio file", err)
	}
	defer file.Close()

	written, err := io.Copy(file, io.LimitReader(body, maxBytes+1))
	if err != nil {
		return written, services.Wrap(services.ErrExternalService, "download", "write", "stream audio", err)
	}
	if written > maxBytes {
		return written, services.Wrap(services.ErrTooLarge, "download", "write",
			fmt.Sprintf("audio exceeds %d MB limit", d.cfg.Limits.MaxAudioMB), nil)
	}
	return written, nil
}

func (d *Downloader) HealthCheck(_ context.Context) stage.Health {
	if err := os.MkdirAll(d.locations.Incoming, 0o755); err != nil {
		return stage.Unhealthy("download", "incoming directory unavailable: "+err.Error())
	}
	return stage.Healthy("download")
}

func audioExt(audioURL string) string {
	parsed, err := url.Parse(audioURL)
	if err != nil {
		return defaultAudioExt
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	switch ext {
	case ".mp3", ".m4a", ".aac", ".ogg", ".opus", ".wav", ".flac":
		return ext
	}
	return defaultAudioExt
}
