package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/groups"
	"github.com/cognicore/handrit/pkg/handrit/store"
)

func openTemp(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "handrit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleSnapshot() store.Snapshot {
	entry := catalogue.Entry{
		CatalogueID:  "AM01-0001-is",
		ManuscriptID: "AM01-0001",
		Language:     "is",
		SourceFile:   "AM01-0001-is.xml",
		Shelfmark:    "AM 1 fol.",
		Title:        "Njáls saga",
		Description:  "Parchment, 95 folios, 325 x 220 mm",
		DateString:   "1450-1475",
		PostQuem:     1450,
		AnteQuem:     1475,
		DateMean:     1462,
		DateRange:    25,
		Support:      "Parchment",
		FolioCount:   95,
		Height:       325,
		Width:        220,
		Origin:       "Iceland",
		Country:      "Iceland",
		Settlement:   "Reykjavík",
		Repository:   "Stofnun Árna Magnússonar",
		Texts:        []string{"Njáls saga"},
		People:       []string{"JonOla"},
	}
	noPeople := catalogue.Entry{
		CatalogueID:   "AM01-0002-is",
		ManuscriptID:  "AM01-0002",
		PeopleMissing: true,
		TextsMissing:  true,
	}
	return store.Snapshot{
		Entries: []catalogue.Entry{entry, noPeople},
		Manuscripts: []catalogue.Manuscript{
			{
				ManuscriptID:    "AM01-0001",
				Shelfmark:       "AM 1 fol.",
				Origin:          "Iceland | Norway",
				DateMean:        1462,
				DateStdDev:      12.5,
				Texts:           []string{"Njáls saga"},
				People:          []string{"JonOla"},
				EntryCount:      2,
				CatalogueIDs:    []string{"AM01-0001-da", "AM01-0001-is"},
				SourceFilenames: []string{"AM01-0001-da.xml", "AM01-0001-is.xml"},
			},
			{ManuscriptID: "AM01-0002", EntryCount: 1},
		},
		Persons: []catalogue.PersonRelation{
			{ManuscriptID: "AM01-0001", PersonID: "JonOla"},
			{ManuscriptID: "AM01-0001", PersonID: "JonOla"},
			{ManuscriptID: "AM01-0001", PersonID: ""},
		},
		Texts: []catalogue.TextRelation{
			{ManuscriptID: "AM01-0001", Title: "Njáls saga"},
		},
	}
}

func TestReplaceCorpusRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	snap := sampleSnapshot()

	require.NoError(t, st.ReplaceCorpus(ctx, snap))

	e, ok, err := st.GetEntry(ctx, "AM01-0001-is")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.Entries[0], e)

	e, ok, err = st.GetEntry(ctx, "AM01-0002-is")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.PeopleMissing)
	assert.True(t, e.TextsMissing)
	assert.Nil(t, e.People)

	m, ok, err := st.GetManuscript(ctx, "AM01-0001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.Manuscripts[0], m)

	_, ok, err = st.GetManuscript(ctx, "AM99")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := st.ListManuscripts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AM01-0001", list[0].ManuscriptID)

	list, err = st.ListManuscripts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRelations(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	require.NoError(t, st.ReplaceCorpus(ctx, sampleSnapshot()))

	ps, ts, err := st.Relations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalogue.PersonRelation{{ManuscriptID: "AM01-0001", PersonID: "JonOla"}}, ps)
	assert.Equal(t, []catalogue.TextRelation{{ManuscriptID: "AM01-0001", Title: "Njáls saga"}}, ts)
}

func TestReplaceCorpusDropsPrevious(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	require.NoError(t, st.ReplaceCorpus(ctx, sampleSnapshot()))

	next := store.Snapshot{
		Manuscripts: []catalogue.Manuscript{{ManuscriptID: "AM02-0001", EntryCount: 1}},
	}
	require.NoError(t, st.ReplaceCorpus(ctx, next))

	_, ok, err := st.GetManuscript(ctx, "AM01-0001")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = st.GetEntry(ctx, "AM01-0001-is")
	require.NoError(t, err)
	assert.False(t, ok)

	ps, ts, err := st.Relations(ctx)
	require.NoError(t, err)
	assert.Empty(t, ps)
	assert.Empty(t, ts)
}

func TestPersonsUpsert(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	require.NoError(t, st.UpsertPersons(ctx, []catalogue.Person{
		{PersID: "JonOla", FirstName: "Jón", LastName: "Ólafsson"},
		{PersID: "ArnMag", FirstName: "Árni", LastName: "Magnússon"},
		{FirstName: "Nameless"},
	}))
	require.NoError(t, st.UpsertPersons(ctx, []catalogue.Person{
		{PersID: "JonOla", FirstName: "Jón", LastName: "Ólafsson úr Grunnavík"},
	}))

	p, ok, err := st.GetPerson(ctx, "JonOla")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ólafsson úr Grunnavík", p.LastName)

	_, ok, err = st.GetPerson(ctx, "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := st.ListPersons(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ArnMag", all[0].PersID)
}

func TestGroups(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	a := groups.New(groups.TypeManuscript, "sagas", []string{"AM01-0002", "AM01-0001"})
	b := groups.New(groups.TypePerson, "scribes", []string{"JonOla"})
	empty := groups.New(groups.TypeManuscript, "nothing", nil)
	for _, g := range []groups.Group{a, b, empty} {
		require.NoError(t, st.SaveGroup(ctx, g))
	}

	got, ok, err := st.GetGroup(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.Type, got.Type)
	assert.Equal(t, "sagas", got.Name)
	assert.Equal(t, []string{"AM01-0001", "AM01-0002"}, got.Items)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))

	got, ok, err = st.GetGroup(ctx, empty.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{}, got.Items)

	// Saving again under the same id replaces the items.
	a.Items = []string{"AM03"}
	require.NoError(t, st.SaveGroup(ctx, a))
	got, _, err = st.GetGroup(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"AM03"}, got.Items)

	ms, err := st.ListGroups(ctx, groups.TypeManuscript)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, a.ID, ms[0].ID)
	assert.Equal(t, empty.ID, ms[1].ID)

	all, err := st.ListGroups(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, ok, err = st.GetGroup(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, st.RecordRun(ctx, store.Run{
			ID:          id,
			StartedAt:   base.Add(time.Duration(i) * time.Hour),
			FinishedAt:  base.Add(time.Duration(i)*time.Hour + time.Minute),
			Documents:   10 + i,
			Manuscripts: 5,
			Conflicts:   i,
		}))
	}

	runs, err := st.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, 12, runs[0].Documents)
	assert.Equal(t, 2, runs[0].Conflicts)
	assert.Equal(t, time.Minute, runs[0].FinishedAt.Sub(runs[0].StartedAt))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "handrit.db")

	st, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, st.ReplaceCorpus(ctx, sampleSnapshot()))
	require.NoError(t, st.Close())

	st, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	_, ok, err := st.GetManuscript(ctx, "AM01-0001")
	require.NoError(t, err)
	assert.True(t, ok)
}
