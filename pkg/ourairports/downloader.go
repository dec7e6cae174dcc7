package ourairports

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is the public-domain OurAirports airport list
const DefaultURL = "https://davidmegginson.github.io/ourairports-data/airports.csv"

type Downloader struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewDownloader(url string, timeout time.Duration, logger *slog.Logger) *Downloader {
	return &Downloader{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "airports_downloader"),
	}
}

// Download fetches the raw CSV
func (d *Downloader) Download(ctx context.Context) ([]byte, error) {
	start := time.Now()
	d.logger.Info("starting airports download",
		"url", d.url,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		d.logger.Error("failed to create request", "error", err)
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "AirportMath/1.0")
	req.Header.Set("Accept", "text/csv")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("failed to download airports",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("download airports: %w", err)
	}
	defer resp.Body.Close()

	d.logger.Debug("received HTTP response",
		"status_code", resp.StatusCode,
		"content_length", resp.ContentLength,
		"content_type", resp.Header.Get("Content-Type"),
	)

	if resp.StatusCode != http.StatusOK {
		d.logger.Error("unexpected HTTP status",
			"status_code", resp.StatusCode,
			"status", resp.Status,
		)
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		d.logger.Error("failed to read response body",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("read body: %w", err)
	}

	d.logger.Info("airports download completed",
		"size_mb", fmt.Sprintf("%.2f", float64(len(data))/(1024*1024)),
		"total_duration_ms", time.Since(start).Milliseconds(),
	)

	return data, nil
}
