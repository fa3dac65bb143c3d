package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/groups"
	"github.com/cognicore/handrit/pkg/handrit/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu          sync.RWMutex
	entries     map[string]catalogue.Entry
	manuscripts map[string]catalogue.Manuscript
	order       []string
	persRels    []catalogue.PersonRelation
	textRels    []catalogue.TextRelation
	persons     map[string]catalogue.Person
	groups      map[string]groups.Group
	runs        []store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		entries:     make(map[string]catalogue.Entry),
		manuscripts: make(map[string]catalogue.Manuscript),
		persons:     make(map[string]catalogue.Person),
		groups:      make(map[string]groups.Group),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ReplaceCorpus drops the previous corpus and stores snap.
func (s *Store) ReplaceCorpus(ctx context.Context, snap store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]catalogue.Entry, len(snap.Entries))
	for _, e := range snap.Entries {
		s.entries[e.CatalogueID] = copyEntry(e)
	}

	s.manuscripts = make(map[string]catalogue.Manuscript, len(snap.Manuscripts))
	s.order = s.order[:0]
	for _, m := range snap.Manuscripts {
		if _, ok := s.manuscripts[m.ManuscriptID]; !ok {
			s.order = append(s.order, m.ManuscriptID)
		}
		s.manuscripts[m.ManuscriptID] = copyManuscript(m)
	}
	sort.Strings(s.order)

	s.persRels = dedupPersons(snap.Persons)
	s.textRels = dedupTexts(snap.Texts)
	return nil
}

// GetEntry returns a catalogue entry by id.
func (s *Store) GetEntry(ctx context.Context, catalogueID string) (catalogue.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[catalogueID]
	if !ok {
		return catalogue.Entry{}, false, nil
	}
	return copyEntry(e), true, nil
}

// GetManuscript returns a manuscript by id.
func (s *Store) GetManuscript(ctx context.Context, manuscriptID string) (catalogue.Manuscript, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.manuscripts[manuscriptID]
	if !ok {
		return catalogue.Manuscript{}, false, nil
	}
	return copyManuscript(m), true, nil
}

// ListManuscripts returns manuscripts ordered by id.
func (s *Store) ListManuscripts(ctx context.Context, limit int) ([]catalogue.Manuscript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = store.DefaultLimit
	}
	out := make([]catalogue.Manuscript, 0, min(limit, len(s.order)))
	for _, id := range s.order {
		if len(out) >= limit {
			break
		}
		out = append(out, copyManuscript(s.manuscripts[id]))
	}
	return out, nil
}

// Relations returns all stored relationship tuples.
func (s *Store) Relations(ctx context.Context) ([]catalogue.PersonRelation, []catalogue.TextRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons := append([]catalogue.PersonRelation(nil), s.persRels...)
	texts := append([]catalogue.TextRelation(nil), s.textRels...)
	return persons, texts, nil
}

// UpsertPersons inserts or replaces persons by id.
func (s *Store) UpsertPersons(ctx context.Context, persons []catalogue.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range persons {
		if p.PersID == "" {
			continue
		}
		s.persons[p.PersID] = p
	}
	return nil
}

// GetPerson returns a person by id.
func (s *Store) GetPerson(ctx context.Context, persID string) (catalogue.Person, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[persID]
	return p, ok, nil
}

// ListPersons returns all persons ordered by id.
func (s *Store) ListPersons(ctx context.Context) ([]catalogue.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalogue.Person, 0, len(s.persons))
	for _, p := range s.persons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersID < out[j].PersID })
	return out, nil
}

// SaveGroup stores g, replacing any group with the same id.
func (s *Store) SaveGroup(ctx context.Context, g groups.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.Items = append([]string(nil), g.Items...)
	s.groups[g.ID] = g
	return nil
}

// GetGroup returns a group by id.
func (s *Store) GetGroup(ctx context.Context, id string) (groups.Group, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return groups.Group{}, false, nil
	}
	g.Items = append([]string(nil), g.Items...)
	return g, true, nil
}

// ListGroups returns the groups of type t (all groups when t is empty),
// oldest first.
func (s *Store) ListGroups(ctx context.Context, t groups.Type) ([]groups.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []groups.Group
	for _, g := range s.groups {
		if t != "" && g.Type != t {
			continue
		}
		g.Items = append([]string(nil), g.Items...)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// RecordRun appends a run summary.
func (s *Store) RecordRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, r)
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = store.DefaultLimit
	}
	out := make([]store.Run, 0, min(limit, len(s.runs)))
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

func copyEntry(e catalogue.Entry) catalogue.Entry {
	e.Texts = append([]string(nil), e.Texts...)
	e.People = append([]string(nil), e.People...)
	return e
}

func copyManuscript(m catalogue.Manuscript) catalogue.Manuscript {
	m.Texts = append([]string(nil), m.Texts...)
	m.People = append([]string(nil), m.People...)
	m.CatalogueIDs = append([]string(nil), m.CatalogueIDs...)
	m.SourceFilenames = append([]string(nil), m.SourceFilenames...)
	return m
}

func dedupPersons(in []catalogue.PersonRelation) []catalogue.PersonRelation {
	seen := make(map[catalogue.PersonRelation]struct{}, len(in))
	out := make([]catalogue.PersonRelation, 0, len(in))
	for _, r := range in {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func dedupTexts(in []catalogue.TextRelation) []catalogue.TextRelation {
	seen := make(map[catalogue.TextRelation]struct{}, len(in))
	out := make([]catalogue.TextRelation, 0, len(in))
	for _, r := range in {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
