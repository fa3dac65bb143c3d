package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/logging"
	"github.com/cognicore/handrit/pkg/handrit/tei"
)

// Corpus collects the records of a walk.
type Corpus struct {
	Entries []catalogue.Entry
	Persons []catalogue.PersonRelation
	Texts   []catalogue.TextRelation
	Stats   Stats
}

// Stats counts the outcome of a walk.
type Stats struct {
	Documents int
	Processed int
	Degraded  int
	Skipped   int
	// Failures lists the sources that were skipped.
	Failures []string
}

// RawDocument is an unparsed document held in memory, e.g. a crawl result.
type RawDocument struct {
	Name string
	Data []byte
}

// Walker runs the builder over a document collection. Documents are
// processed concurrently; the output keeps input order.
type Walker struct {
	builder *Builder
	log     *zap.Logger
	workers int
}

// NewWalker creates a walker running at most workers documents at a time.
func NewWalker(builder *Builder, workers int, log *zap.Logger) *Walker {
	if workers < 1 {
		workers = 1
	}
	return &Walker{builder: builder, log: logging.OrNop(log).Named("walker"), workers: workers}
}

// WalkDir processes every .xml file below dir.
func (w *Walker) WalkDir(ctx context.Context, dir string) (*Corpus, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.log.Warn("unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return w.walkFiles(ctx, dir, paths)
}

// WalkFiles processes the given files.
func (w *Walker) WalkFiles(ctx context.Context, paths []string) (*Corpus, error) {
	return w.walkFiles(ctx, "", paths)
}

func (w *Walker) walkFiles(ctx context.Context, root string, paths []string) (*Corpus, error) {
	return w.run(ctx, root, len(paths), func(i int) (*tei.Document, string, error) {
		doc, err := tei.ParseFile(paths[i])
		return doc, paths[i], err
	})
}

// WalkDocuments processes documents already held in memory.
func (w *Walker) WalkDocuments(ctx context.Context, docs []RawDocument) (*Corpus, error) {
	return w.run(ctx, "", len(docs), func(i int) (*tei.Document, string, error) {
		doc, err := tei.Parse(docs[i].Data, docs[i].Name)
		return doc, docs[i].Name, err
	})
}

type outcome struct {
	record Record
	source string
	err    error
}

func (w *Walker) run(ctx context.Context, root string, n int, load func(int) (*tei.Document, string, error)) (*Corpus, error) {
	results := make([]outcome, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = w.process(i, root, load)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	corpus := &Corpus{Stats: Stats{Documents: n}}
	for _, res := range results {
		if res.err != nil {
			corpus.Stats.Skipped++
			corpus.Stats.Failures = append(corpus.Stats.Failures, res.source)
			w.log.Warn("document skipped", zap.String("source", res.source), zap.Error(res.err))
			continue
		}
		corpus.Stats.Processed++
		if res.record.Entry.Degraded() {
			corpus.Stats.Degraded++
		}
		corpus.Entries = append(corpus.Entries, res.record.Entry)
		corpus.Persons = append(corpus.Persons, res.record.Persons...)
		corpus.Texts = append(corpus.Texts, res.record.Texts...)
	}

	w.log.Info("walk complete",
		zap.Int("documents", corpus.Stats.Documents),
		zap.Int("processed", corpus.Stats.Processed),
		zap.Int("degraded", corpus.Stats.Degraded),
		zap.Int("skipped", corpus.Stats.Skipped))
	return corpus, nil
}

// process loads and builds one document; a panic is reported as that
// document's failure.
func (w *Walker) process(i int, root string, load func(int) (*tei.Document, string, error)) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("build panicked: %v", r)
		}
	}()

	doc, source, err := load(i)
	out.source = source
	if err != nil {
		out.err = err
		return out
	}
	out.record = w.builder.BuildAs(doc, placeholder(root, source, i))
	return out
}

// placeholder names a document for its sentinel id: the source path below
// root (or its base name without a root), without extension, plus the
// document's 1-based position in the walk.
func placeholder(root, source string, i int) string {
	name := filepath.Base(source)
	if root != "" {
		if rel, err := filepath.Rel(root, source); err == nil {
			name = rel
		}
	}
	name = strings.TrimSuffix(filepath.ToSlash(name), filepath.Ext(name))
	if name == "" || name == "." {
		name = "unknown"
	}
	return fmt.Sprintf("%s-%d", name, i+1)
}
