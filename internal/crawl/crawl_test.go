package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cognicore/handrit/pkg/handrit/internalerr"
)

const sampleTEI = `<TEI xmlns="http://www.tei-c.org/ns/1.0"><msDesc xml:id="AM02-0115-is"/></TEI>`

func newCatalogueServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/xml/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch strings.TrimPrefix(r.URL.Path, "/xml/") {
		case "AM02-0115-is", "AM02-0115-da":
			w.Write([]byte(sampleTEI))
		case "broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/browse", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<a href="/manuscript/view/is/AM02-0115">AM 115 fol.</a>
<a href="https://handrit.is/xml/AM02-0115-da.xml">xml</a>
<a href="/xml/AM02-0115-da">xml again</a>
<a href="/about">About</a>
</body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchXML(t *testing.T) {
	var hits int32
	srv := newCatalogueServer(t, &hits)
	src := NewHTTPSource(Options{BaseURL: srv.URL})

	data, err := src.FetchXML(context.Background(), "AM02-0115-is")
	if err != nil {
		t.Fatalf("FetchXML failed: %v", err)
	}
	if string(data) != sampleTEI {
		t.Errorf("Unexpected body: %s", data)
	}
}

func TestFetchXMLNotFound(t *testing.T) {
	var hits int32
	srv := newCatalogueServer(t, &hits)
	src := NewHTTPSource(Options{BaseURL: srv.URL})

	_, err := src.FetchXML(context.Background(), "nope")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestFetchXMLRejectsPathIDs(t *testing.T) {
	src := NewHTTPSource(Options{BaseURL: "http://127.0.0.1:1"})
	for _, id := range []string{"", "..", "../etc/passwd", `a\b`} {
		if _, err := src.FetchXML(context.Background(), id); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("id %q: expected ErrInvalidInput, got %v", id, err)
		}
	}
}

func TestFetchXMLCache(t *testing.T) {
	var hits int32
	srv := newCatalogueServer(t, &hits)
	cacheDir := t.TempDir()
	src := NewHTTPSource(Options{BaseURL: srv.URL, CacheDir: cacheDir})

	for i := 0; i < 3; i++ {
		if _, err := src.FetchXML(context.Background(), "AM02-0115-is"); err != nil {
			t.Fatalf("FetchXML failed: %v", err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected one request with cache, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "AM02-0115-is.xml")); err != nil {
		t.Errorf("Cache file missing: %v", err)
	}
}

func TestListManuscriptIDs(t *testing.T) {
	var hits int32
	srv := newCatalogueServer(t, &hits)
	src := NewHTTPSource(Options{BaseURL: srv.URL})

	ids, err := src.ListManuscriptIDs(context.Background(), srv.URL+"/browse")
	if err != nil {
		t.Fatalf("ListManuscriptIDs failed: %v", err)
	}
	want := []string{"AM02-0115", "AM02-0115-da"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestFetchAll(t *testing.T) {
	var hits int32
	srv := newCatalogueServer(t, &hits)
	src := NewHTTPSource(Options{BaseURL: srv.URL})

	ids := []string{"AM02-0115-is", "missing", "broken", "AM02-0115-da"}
	res, err := FetchAll(context.Background(), src, ids, 2, nil)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if len(res.Documents) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(res.Documents))
	}
	if res.Documents[0].Name != "AM02-0115-is.xml" || res.Documents[1].Name != "AM02-0115-da.xml" {
		t.Errorf("Documents should keep request order: %s, %s", res.Documents[0].Name, res.Documents[1].Name)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "missing" {
		t.Errorf("Expected missing [missing], got %v", res.Missing)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "broken" {
		t.Errorf("Expected failed [broken], got %v", res.Failed)
	}
}

func TestFetchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewHTTPSource(Options{BaseURL: "http://127.0.0.1:1"})
	if _, err := FetchAll(ctx, src, []string{"a", "b"}, 1, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestWriteDocuments(t *testing.T) {
	var hits int32
	srv := newCatalogueServer(t, &hits)
	src := NewHTTPSource(Options{BaseURL: srv.URL})

	res, err := FetchAll(context.Background(), src, []string{"AM02-0115-is"}, 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "xml")
	if err := WriteDocuments(dir, res.Documents); err != nil {
		t.Fatalf("WriteDocuments failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "AM02-0115-is.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleTEI {
		t.Errorf("Unexpected file content: %s", data)
	}
}
