// Package source fetches the record document once, from a local file or an
// http(s) URL.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/pkg/logger"
	"github.com/okian/barrace/pkg/metrics"
)

const defaultTimeout = 30 * time.Second

// Loader reads record documents.
type Loader struct {
	client  *http.Client
	timeout time.Duration
	logger  logger.Logger
}

// NewLoader creates a loader with configuration options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client:  http.DefaultClient,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("source")
	}
	return l
}

// Load reads records with a default loader.
func Load(ctx context.Context, location string) ([]model.Record, error) {
	return NewLoader().Load(ctx, location)
}

// Load fetches and decodes the document at location.
//
// A missing, empty or null document yields ErrNoData. An empty array is a
// valid document with no records.
func (l *Loader) Load(ctx context.Context, location string) ([]model.Record, error) {
	start := time.Now()
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrLocation
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var (
		body []byte
		err  error
	)
	if isURL(location) {
		body, err = l.fetch(ctx, location)
	} else {
		body, err = os.ReadFile(location)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		}
	}
	if err != nil {
		metrics.RecordLoadError("fetch")
		return nil, err
	}

	records, err := Decode(body)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			metrics.RecordLoadError("empty")
		} else {
			metrics.RecordLoadError("decode")
		}
		return nil, err
	}

	metrics.RecordLoad(len(records), float64(time.Since(start).Milliseconds()))
	l.logger.Info(ctx, "records loaded",
		logger.String("location", location),
		logger.Int("records", len(records)),
		logger.Duration("took", time.Since(start)),
	)
	return records, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return body, nil
}

// Decode parses a JSON array of records.
func Decode(body []byte) ([]model.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNoData
	}

	var records []model.Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
