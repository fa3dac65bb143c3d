package store

import (
	"context"
	"time"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/groups"
)

// Store persists the pipeline's normalized records and answers lookups
type Store interface {
	Close() error

	// Corpus (derived data, replaced wholesale on every build)
	ReplaceCorpus(ctx context.Context, snap Snapshot) error
	GetEntry(ctx context.Context, catalogueID string) (catalogue.Entry, bool, error)
	GetManuscript(ctx context.Context, manuscriptID string) (catalogue.Manuscript, bool, error)
	ListManuscripts(ctx context.Context, limit int) ([]catalogue.Manuscript, error)
	Relations(ctx context.Context) ([]catalogue.PersonRelation, []catalogue.TextRelation, error)

	// Persons
	UpsertPersons(ctx context.Context, persons []catalogue.Person) error
	GetPerson(ctx context.Context, persID string) (catalogue.Person, bool, error)
	ListPersons(ctx context.Context) ([]catalogue.Person, error)

	// Groups are replaced wholesale by id
	SaveGroup(ctx context.Context, g groups.Group) error
	GetGroup(ctx context.Context, id string) (groups.Group, bool, error)
	ListGroups(ctx context.Context, t groups.Type) ([]groups.Group, error)

	// Build runs
	RecordRun(ctx context.Context, r Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Snapshot is the full output of one build.
type Snapshot struct {
	Entries     []catalogue.Entry
	Manuscripts []catalogue.Manuscript
	Persons     []catalogue.PersonRelation
	Texts       []catalogue.TextRelation
}

// Run summarizes one build.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Documents     int
	Processed     int
	Degraded      int
	Skipped       int
	Manuscripts   int
	FoldedGroups  int
	SkippedGroups int
	Conflicts     int
}

// DefaultLimit caps list queries that pass a non-positive limit.
const DefaultLimit = 100
