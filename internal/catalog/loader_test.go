package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/martinvidela/cursobot-go/internal/errors"
)

const sampleCatalogJSON = `[
	{
		"id": "soldadura-basica",
		"nombre": "Soldadura Básica",
		"fecha_inicio": "2026-03-12",
		"estado": "abierto",
		"link_inscripcion": "https://forms.example/soldadura"
	},
	{
		"id": "herreria",
		"nombre": "Herrería",
		"estado": "finalizado"
	}
]`

func TestParseRecords(t *testing.T) {
	t.Parallel()

	t.Run("Array root", func(t *testing.T) {
		t.Parallel()
		records, malformed, err := ParseRecords([]byte(sampleCatalogJSON))
		if err != nil {
			t.Fatalf("ParseRecords: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("got %d records, want 2", len(records))
		}
		if len(malformed) != 0 {
			t.Errorf("got %d malformed entries, want 0", len(malformed))
		}
	})

	t.Run("Object root is fatal", func(t *testing.T) {
		t.Parallel()
		_, _, err := ParseRecords([]byte(`{"cursos": []}`))
		if !errors.Is(err, apperrors.ErrCatalogLoad) {
			t.Errorf("want ErrCatalogLoad, got %v", err)
		}
	})

	t.Run("Invalid JSON is fatal", func(t *testing.T) {
		t.Parallel()
		_, _, err := ParseRecords([]byte(`not json`))
		if !errors.Is(err, apperrors.ErrCatalogLoad) {
			t.Errorf("want ErrCatalogLoad, got %v", err)
		}
	})

	t.Run("Empty array", func(t *testing.T) {
		t.Parallel()
		records, _, err := ParseRecords([]byte(`[]`))
		if err != nil {
			t.Fatalf("ParseRecords: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("got %d records, want 0", len(records))
		}
	})

	t.Run("Non-object entry is tolerated", func(t *testing.T) {
		t.Parallel()
		records, malformed, err := ParseRecords([]byte(`[{"id": "soldadura"}, "no soy un curso", {"id": "herreria"}]`))
		if err != nil {
			t.Fatalf("ParseRecords: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("got %d records, want 3", len(records))
		}
		if len(malformed) != 1 {
			t.Fatalf("got %d malformed entries, want 1", len(malformed))
		}
		var recErr *apperrors.MalformedRecordError
		if !errors.As(malformed[0], &recErr) || recErr.Index != 1 {
			t.Errorf("malformed[0] = %v, want MalformedRecordError at index 1", malformed[0])
		}
		if len(records[1]) != 0 {
			t.Errorf("broken entry should become an empty record, got %v", records[1])
		}
	})
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	t.Run("Reads existing file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cursos.json")
		if err := os.WriteFile(path, []byte(sampleCatalogJSON), 0o600); err != nil {
			t.Fatal(err)
		}

		src := &FileSource{Path: path}
		data, err := src.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(data) != sampleCatalogJSON {
			t.Error("data mismatch")
		}
	})

	t.Run("Missing file is a load error", func(t *testing.T) {
		t.Parallel()
		src := &FileSource{Path: filepath.Join(t.TempDir(), "nope.json")}
		_, err := src.Fetch(context.Background())
		if !errors.Is(err, apperrors.ErrCatalogLoad) {
			t.Errorf("want ErrCatalogLoad, got %v", err)
		}
	})
}

func TestURLSource(t *testing.T) {
	t.Parallel()

	t.Run("Successful fetch", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("User-Agent") == "" {
				t.Error("request lacks User-Agent")
			}
			_, _ = w.Write([]byte(sampleCatalogJSON))
		}))
		defer server.Close()

		src := NewURLSource(server.URL, 5*time.Second)
		data, err := src.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(data) != sampleCatalogJSON {
			t.Error("data mismatch")
		}
	})

	t.Run("Server error", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		src := NewURLSource(server.URL, 5*time.Second)
		_, err := src.Fetch(context.Background())
		if !errors.Is(err, apperrors.ErrCatalogLoad) {
			t.Errorf("want ErrCatalogLoad, got %v", err)
		}
	})
}

type fakeDownloader struct {
	data []byte
	err  error
}

func (f *fakeDownloader) Download(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

func TestSnapshotSource(t *testing.T) {
	t.Parallel()

	t.Run("Downloads snapshot", func(t *testing.T) {
		t.Parallel()
		src := &SnapshotSource{Store: &fakeDownloader{data: []byte(sampleCatalogJSON)}, Key: "catalog/latest.json"}
		data, err := src.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(data) == 0 {
			t.Error("empty data")
		}
	})

	t.Run("Store failure is a load error", func(t *testing.T) {
		t.Parallel()
		src := &SnapshotSource{Store: &fakeDownloader{err: errors.New("connection refused")}, Key: "catalog/latest.json"}
		_, err := src.Fetch(context.Background())
		if !errors.Is(err, apperrors.ErrCatalogLoad) {
			t.Errorf("want ErrCatalogLoad, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("End to end from file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cursos.json")
		if err := os.WriteFile(path, []byte(sampleCatalogJSON), 0o600); err != nil {
			t.Fatal(err)
		}

		courses, stats, err := Load(context.Background(), &FileSource{Path: path})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(courses) != 2 {
			t.Fatalf("got %d courses, want 2", len(courses))
		}
		if courses[0].StartDateHuman != "12 de marzo de 2026" {
			t.Errorf("StartDateHuman = %q", courses[0].StartDateHuman)
		}
		if courses[1].Status != StatusFinished {
			t.Errorf("Status = %q", courses[1].Status)
		}
		if stats.Records != 2 {
			t.Errorf("stats.Records = %d", stats.Records)
		}
	})

	t.Run("Malformed source degrades to empty", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cursos.json")
		if err := os.WriteFile(path, []byte(`{"not": "a list"}`), 0o600); err != nil {
			t.Fatal(err)
		}

		courses, _, err := Load(context.Background(), &FileSource{Path: path})
		if !errors.Is(err, apperrors.ErrCatalogLoad) {
			t.Errorf("want ErrCatalogLoad, got %v", err)
		}
		if len(courses) != 0 {
			t.Errorf("got %d courses, want 0", len(courses))
		}
	})
}
