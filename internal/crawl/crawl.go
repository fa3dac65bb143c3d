package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/handrit/pkg/handrit/ingest"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
	"github.com/cognicore/handrit/pkg/handrit/logging"
)

// DefaultBaseURL is the public catalogue.
const DefaultBaseURL = "https://handrit.is"

// maxDocumentSize bounds a single download.
const maxDocumentSize = 32 << 20

// Source yields catalogue documents by catalogue id.
type Source interface {
	FetchXML(ctx context.Context, id string) ([]byte, error)
}

// HTTPSource downloads documents from {base}/xml/{id}. When a cache
// directory is set, downloads are kept there and served from disk on later
// calls.
type HTTPSource struct {
	baseURL  string
	client   *http.Client
	cacheDir string
	log      *zap.Logger
}

// Options configures an HTTPSource.
type Options struct {
	BaseURL  string
	Client   *http.Client
	CacheDir string
	Logger   *zap.Logger
}

// NewHTTPSource creates an HTTPSource. An empty CacheDir disables caching.
func NewHTTPSource(opts Options) *HTTPSource {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{
		baseURL:  base,
		client:   client,
		cacheDir: opts.CacheDir,
		log:      logging.OrNop(opts.Logger).Named("crawl"),
	}
}

// FetchXML returns the TEI document for id. A missing document yields
// internalerr.ErrNotFound.
func (s *HTTPSource) FetchXML(ctx context.Context, id string) ([]byte, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: catalogue id %q", internalerr.ErrInvalidInput, id)
	}

	if data, ok := s.cached(id); ok {
		s.log.Debug("cache hit", zap.String("id", id))
		return data, nil
	}

	data, err := s.get(ctx, s.baseURL+"/xml/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}

	if s.cacheDir != "" {
		if err := s.store(id, data); err != nil {
			s.log.Warn("cache write failed", zap.String("id", id), zap.Error(err))
		}
	}
	return data, nil
}

// ListManuscriptIDs reads a browse page and returns the catalogue ids it
// links to, sorted and deduplicated.
func (s *HTTPSource) ListManuscriptIDs(ctx context.Context, pageURL string) ([]string, error) {
	data, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch browse page: %w", err)
	}
	return ParseIDs(bytes.NewReader(data))
}

func (s *HTTPSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, internalerr.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}

func (s *HTTPSource) cachePath(id string) string {
	return filepath.Join(s.cacheDir, id+".xml")
}

func (s *HTTPSource) cached(id string) ([]byte, bool) {
	if s.cacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(s.cachePath(id))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (s *HTTPSource) store(id string, data []byte) error {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return err
	}
	tmp := s.cachePath(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.cachePath(id))
}

// validID rejects ids that would escape the cache directory or the URL path.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// ParseIDs collects catalogue ids from the links of an HTML page. Links to
// /xml/{id} and /manuscript/view/.../{id} are recognized.
func ParseIDs(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" {
					continue
				}
				if id, ok := idFromHref(a.Val); ok {
					seen[id] = struct{}{}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func idFromHref(href string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	p := path.Clean(u.Path)
	if !strings.Contains(p, "/xml/") && !strings.Contains(p, "/manuscript/view/") {
		return "", false
	}
	id := strings.TrimSuffix(path.Base(p), ".xml")
	if !validID(id) || id == "xml" || id == "view" {
		return "", false
	}
	return id, true
}

// Result reports the outcome of FetchAll.
type Result struct {
	Documents []ingest.RawDocument
	Missing   []string
	Failed    []string
}

// FetchAll downloads ids with at most workers concurrent requests. Missing
// and failing documents are logged and reported, not returned as errors;
// only cancellation aborts the crawl. Documents keep the order of ids.
func FetchAll(ctx context.Context, src Source, ids []string, workers int, log *zap.Logger) (*Result, error) {
	log = logging.OrNop(log).Named("crawl")
	if workers <= 0 {
		workers = 1
	}

	type outcome struct {
		data    []byte
		missing bool
		failed  bool
	}
	outcomes := make([]outcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := src.FetchXML(gctx, id)
			switch {
			case err == nil:
				outcomes[i].data = data
			case errors.Is(err, internalerr.ErrNotFound):
				log.Warn("document not found", zap.String("id", id))
				outcomes[i].missing = true
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				log.Error("download failed", zap.String("id", id), zap.Error(err))
				outcomes[i].failed = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i, o := range outcomes {
		switch {
		case o.missing:
			res.Missing = append(res.Missing, ids[i])
		case o.failed:
			res.Failed = append(res.Failed, ids[i])
		default:
			res.Documents = append(res.Documents, ingest.RawDocument{Name: ids[i] + ".xml", Data: o.data})
		}
	}
	log.Info("crawl complete",
		zap.Int("requested", len(ids)),
		zap.Int("downloaded", len(res.Documents)),
		zap.Int("missing", len(res.Missing)),
		zap.Int("failed", len(res.Failed)))
	return res, nil
}

// WriteDocuments saves documents under dir, one file per document.
func WriteDocuments(dir string, docs []ingest.RawDocument) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, d := range docs {
		name := filepath.Base(d.Name)
		if !validID(name) {
			return fmt.Errorf("%w: document name %q", internalerr.ErrInvalidInput, d.Name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), d.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
