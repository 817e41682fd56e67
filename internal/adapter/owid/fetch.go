package owid

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher downloads the dataset over HTTP. The download goes through a
// temporary file and a rename, so a failed or cancelled transfer never leaves
// a truncated dataset where the loader would find it.
type Fetcher struct {
	client *resty.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. The timeout bounds the whole transfer; the
// compact dataset is tens of megabytes, so give it minutes, not seconds.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: resty.New().SetTimeout(timeout),
		logger: logger,
	}
}

// Fetch downloads url to dest, creating parent directories as needed.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}

	tmp := dest + ".partial"
	resp, err := f.client.R().
		SetContext(ctx).
		SetOutput(tmp).
		Get(url)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: %w", url, err)
	}
	if resp.IsError() {
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status())
	}
	if resp.Size() == 0 {
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: empty response body", url)
	}

	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("move dataset into place: %w", err)
	}

	f.logger.Info("dataset downloaded", "url", url, "path", dest, "bytes", resp.Size())
	return nil
}
