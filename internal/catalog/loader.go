package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/corpix/uarand"

	apperrors "github.com/martinvidela/cursobot-go/internal/errors"
)

// Source yields the raw catalog bytes from wherever the deployment keeps
// them: a local file, an HTTP export, or an object-store snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}

// ParseRecords decodes the raw catalog document. The root must be a JSON
// array; anything else is a fatal load error and the caller falls back to
// an empty catalog. An element that is not an object is replaced by an
// empty record and reported in malformed, so one broken entry never
// discards the rest of the catalog.
func ParseRecords(data []byte) (records []RawRecord, malformed []error, err error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, nil, fmt.Errorf("%w: root is not a record sequence: %v", apperrors.ErrCatalogLoad, err)
	}

	records = make([]RawRecord, len(elements))
	for i, raw := range elements {
		if err := json.Unmarshal(raw, &records[i]); err != nil {
			records[i] = RawRecord{}
			malformed = append(malformed, apperrors.NewMalformedRecordError(i, "", err))
		}
	}
	return records, malformed, nil
}

// FileSource reads the catalog from a local JSON file.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", apperrors.ErrCatalogLoad, s.Path, err)
	}
	return data, nil
}

// URLSource fetches the catalog over HTTP.
type URLSource struct {
	URL    string
	Client *http.Client
}

// NewURLSource creates an HTTP catalog source with a bounded timeout.
func NewURLSource(url string, timeout time.Duration) *URLSource {
	return &URLSource{
		URL: url,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *URLSource) Name() string { return "url:" + s.URL }

func (s *URLSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperrors.ErrCatalogLoad, err)
	}
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", apperrors.ErrCatalogLoad, s.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fetch %s: status %d", apperrors.ErrCatalogLoad, s.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", apperrors.ErrCatalogLoad, err)
	}
	return data, nil
}

// Downloader fetches an object by key. Satisfied by the object-store client.
type Downloader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// SnapshotSource reads the catalog from an object-store snapshot.
type SnapshotSource struct {
	Store Downloader
	Key   string
}

func (s *SnapshotSource) Name() string { return "snapshot:" + s.Key }

func (s *SnapshotSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := s.Store.Download(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot %s: %v", apperrors.ErrCatalogLoad, s.Key, err)
	}
	return data, nil
}

// Load fetches, parses and normalizes the catalog from the given source.
// On any load failure it returns an empty catalog plus the error so the
// caller can keep serving in degraded mode.
func Load(ctx context.Context, source Source) ([]Course, Stats, error) {
	data, err := source.Fetch(ctx)
	if err != nil {
		return nil, Stats{}, err
	}

	records, malformed, err := ParseRecords(data)
	if err != nil {
		return nil, Stats{}, err
	}

	courses, stats := Normalize(records)
	stats.Malformed = malformed
	return courses, stats, nil
}
