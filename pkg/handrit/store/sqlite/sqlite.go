package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/groups"
	"github.com/cognicore/handrit/pkg/handrit/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS entries (
	catalogue_id TEXT PRIMARY KEY,
	manuscript_id TEXT NOT NULL,
	language TEXT,
	source_file TEXT,
	shelfmark TEXT,
	title TEXT,
	description TEXT,
	date_string TEXT,
	terminus_post_quem INTEGER NOT NULL DEFAULT 0,
	terminus_ante_quem INTEGER NOT NULL DEFAULT 0,
	date_mean INTEGER NOT NULL DEFAULT 0,
	dating_range INTEGER NOT NULL DEFAULT 0,
	support TEXT,
	folio_count INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	width INTEGER NOT NULL DEFAULT 0,
	extent_text TEXT,
	origin TEXT,
	creator TEXT,
	country TEXT,
	settlement TEXT,
	repository TEXT,
	texts TEXT,
	people TEXT,
	texts_missing INTEGER NOT NULL DEFAULT 0,
	people_missing INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_entries_manuscript ON entries(manuscript_id);

CREATE TABLE IF NOT EXISTS manuscripts (
	manuscript_id TEXT PRIMARY KEY,
	shelfmark TEXT,
	title TEXT,
	description TEXT,
	date_string TEXT,
	terminus_post_quem INTEGER NOT NULL DEFAULT 0,
	terminus_ante_quem INTEGER NOT NULL DEFAULT 0,
	date_mean INTEGER NOT NULL DEFAULT 0,
	dating_range INTEGER NOT NULL DEFAULT 0,
	date_standard_deviation REAL NOT NULL DEFAULT 0,
	support TEXT,
	folio_count INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	width INTEGER NOT NULL DEFAULT 0,
	extent_text TEXT,
	origin TEXT,
	creator TEXT,
	country TEXT,
	settlement TEXT,
	repository TEXT,
	texts TEXT,
	people TEXT,
	catalogue_entries INTEGER NOT NULL DEFAULT 1,
	catalogue_ids TEXT,
	source_filenames TEXT
);

CREATE TABLE IF NOT EXISTS manuscript_persons (
	manuscript_id TEXT NOT NULL,
	person_id TEXT NOT NULL,
	PRIMARY KEY(manuscript_id, person_id)
);

CREATE INDEX IF NOT EXISTS idx_manuscript_persons_person ON manuscript_persons(person_id);

CREATE TABLE IF NOT EXISTS manuscript_texts (
	manuscript_id TEXT NOT NULL,
	title TEXT NOT NULL,
	PRIMARY KEY(manuscript_id, title)
);

CREATE INDEX IF NOT EXISTS idx_manuscript_texts_title ON manuscript_texts(title);

CREATE TABLE IF NOT EXISTS persons (
	pers_id TEXT PRIMARY KEY,
	first_name TEXT,
	last_name TEXT
);

CREATE TABLE IF NOT EXISTS search_groups (
	group_id TEXT PRIMARY KEY,
	group_type TEXT NOT NULL,
	name TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS group_items (
	group_id TEXT NOT NULL,
	item TEXT NOT NULL,
	PRIMARY KEY(group_id, item),
	FOREIGN KEY(group_id) REFERENCES search_groups(group_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	documents INTEGER NOT NULL DEFAULT 0,
	processed INTEGER NOT NULL DEFAULT 0,
	degraded INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	manuscripts INTEGER NOT NULL DEFAULT 0,
	folded_groups INTEGER NOT NULL DEFAULT 0,
	skipped_groups INTEGER NOT NULL DEFAULT 0,
	conflicts INTEGER NOT NULL DEFAULT 0
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// ReplaceCorpus drops the previous corpus and stores snap in one transaction
func (s *sqliteStore) ReplaceCorpus(ctx context.Context, snap store.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"entries", "manuscripts", "manuscript_persons", "manuscript_texts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertEntries(ctx, tx, snap.Entries); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}
	if err := insertManuscripts(ctx, tx, snap.Manuscripts); err != nil {
		return fmt.Errorf("insert manuscripts: %w", err)
	}
	if err := insertPairs(ctx, tx, `INSERT OR IGNORE INTO manuscript_persons (manuscript_id, person_id) VALUES (?, ?)`, personPairs(snap.Persons)); err != nil {
		return fmt.Errorf("insert person relations: %w", err)
	}
	if err := insertPairs(ctx, tx, `INSERT OR IGNORE INTO manuscript_texts (manuscript_id, title) VALUES (?, ?)`, textPairs(snap.Texts)); err != nil {
		return fmt.Errorf("insert text relations: %w", err)
	}

	return tx.Commit()
}

func insertEntries(ctx context.Context, tx *sql.Tx, entries []catalogue.Entry) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO entries (
	catalogue_id, manuscript_id, language, source_file, shelfmark, title, description,
	date_string, terminus_post_quem, terminus_ante_quem, date_mean, dating_range,
	support, folio_count, height, width, extent_text, origin, creator,
	country, settlement, repository, texts, people, texts_missing, people_missing
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.CatalogueID, e.ManuscriptID, e.Language, e.SourceFile, e.Shelfmark, e.Title, e.Description,
			e.DateString, e.PostQuem, e.AnteQuem, e.DateMean, e.DateRange,
			e.Support, e.FolioCount, e.Height, e.Width, e.ExtentText, e.Origin, e.Creator,
			e.Country, e.Settlement, e.Repository, encodeList(e.Texts), encodeList(e.People),
			boolInt(e.TextsMissing), boolInt(e.PeopleMissing),
		); err != nil {
			return err
		}
	}
	return nil
}

func insertManuscripts(ctx context.Context, tx *sql.Tx, manuscripts []catalogue.Manuscript) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO manuscripts (
	manuscript_id, shelfmark, title, description,
	date_string, terminus_post_quem, terminus_ante_quem, date_mean, dating_range, date_standard_deviation,
	support, folio_count, height, width, extent_text, origin, creator,
	country, settlement, repository, texts, people,
	catalogue_entries, catalogue_ids, source_filenames
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range manuscripts {
		if _, err := stmt.ExecContext(ctx,
			m.ManuscriptID, m.Shelfmark, m.Title, m.Description,
			m.DateString, m.PostQuem, m.AnteQuem, m.DateMean, m.DateRange, m.DateStdDev,
			m.Support, m.FolioCount, m.Height, m.Width, m.ExtentText, m.Origin, m.Creator,
			m.Country, m.Settlement, m.Repository, encodeList(m.Texts), encodeList(m.People),
			m.EntryCount, encodeList(m.CatalogueIDs), encodeList(m.SourceFilenames),
		); err != nil {
			return err
		}
	}
	return nil
}

func insertPairs(ctx context.Context, tx *sql.Tx, query string, pairs [][2]string) error {
	if len(pairs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range pairs {
		if p[0] == "" || p[1] == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

const entryColumns = `catalogue_id, manuscript_id, language, source_file, shelfmark, title, description,
	date_string, terminus_post_quem, terminus_ante_quem, date_mean, dating_range,
	support, folio_count, height, width, extent_text, origin, creator,
	country, settlement, repository, texts, people, texts_missing, people_missing`

// GetEntry retrieves a catalogue entry by id
func (s *sqliteStore) GetEntry(ctx context.Context, catalogueID string) (catalogue.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE catalogue_id = ?`, catalogueID)

	var (
		e                           catalogue.Entry
		texts, people               string
		textsMissing, peopleMissing int
	)
	err := row.Scan(
		&e.CatalogueID, &e.ManuscriptID, &e.Language, &e.SourceFile, &e.Shelfmark, &e.Title, &e.Description,
		&e.DateString, &e.PostQuem, &e.AnteQuem, &e.DateMean, &e.DateRange,
		&e.Support, &e.FolioCount, &e.Height, &e.Width, &e.ExtentText, &e.Origin, &e.Creator,
		&e.Country, &e.Settlement, &e.Repository, &texts, &people, &textsMissing, &peopleMissing,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return catalogue.Entry{}, false, nil
	}
	if err != nil {
		return catalogue.Entry{}, false, err
	}
	e.Texts = decodeList(texts)
	e.People = decodeList(people)
	e.TextsMissing = textsMissing != 0
	e.PeopleMissing = peopleMissing != 0
	return e, true, nil
}

const manuscriptColumns = `manuscript_id, shelfmark, title, description,
	date_string, terminus_post_quem, terminus_ante_quem, date_mean, dating_range, date_standard_deviation,
	support, folio_count, height, width, extent_text, origin, creator,
	country, settlement, repository, texts, people,
	catalogue_entries, catalogue_ids, source_filenames`

type scanner interface {
	Scan(dest ...any) error
}

func scanManuscript(row scanner) (catalogue.Manuscript, error) {
	var (
		m                                  catalogue.Manuscript
		texts, people, catIDs, sourceFiles string
	)
	err := row.Scan(
		&m.ManuscriptID, &m.Shelfmark, &m.Title, &m.Description,
		&m.DateString, &m.PostQuem, &m.AnteQuem, &m.DateMean, &m.DateRange, &m.DateStdDev,
		&m.Support, &m.FolioCount, &m.Height, &m.Width, &m.ExtentText, &m.Origin, &m.Creator,
		&m.Country, &m.Settlement, &m.Repository, &texts, &people,
		&m.EntryCount, &catIDs, &sourceFiles,
	)
	if err != nil {
		return catalogue.Manuscript{}, err
	}
	m.Texts = decodeList(texts)
	m.People = decodeList(people)
	m.CatalogueIDs = decodeList(catIDs)
	m.SourceFilenames = decodeList(sourceFiles)
	return m, nil
}

// GetManuscript retrieves a manuscript by id
func (s *sqliteStore) GetManuscript(ctx context.Context, manuscriptID string) (catalogue.Manuscript, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+manuscriptColumns+` FROM manuscripts WHERE manuscript_id = ?`, manuscriptID)
	m, err := scanManuscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalogue.Manuscript{}, false, nil
	}
	if err != nil {
		return catalogue.Manuscript{}, false, err
	}
	return m, true, nil
}

// ListManuscripts returns manuscripts ordered by id
func (s *sqliteStore) ListManuscripts(ctx context.Context, limit int) ([]catalogue.Manuscript, error) {
	if limit <= 0 {
		limit = store.DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+manuscriptColumns+` FROM manuscripts ORDER BY manuscript_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalogue.Manuscript
	for rows.Next() {
		m, err := scanManuscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Relations returns all stored relationship tuples
func (s *sqliteStore) Relations(ctx context.Context) ([]catalogue.PersonRelation, []catalogue.TextRelation, error) {
	var persons []catalogue.PersonRelation
	err := s.scanPairs(ctx, `SELECT manuscript_id, person_id FROM manuscript_persons ORDER BY manuscript_id, person_id`, func(a, b string) {
		persons = append(persons, catalogue.PersonRelation{ManuscriptID: a, PersonID: b})
	})
	if err != nil {
		return nil, nil, err
	}

	var texts []catalogue.TextRelation
	err = s.scanPairs(ctx, `SELECT manuscript_id, title FROM manuscript_texts ORDER BY manuscript_id, title`, func(a, b string) {
		texts = append(texts, catalogue.TextRelation{ManuscriptID: a, Title: b})
	})
	if err != nil {
		return nil, nil, err
	}
	return persons, texts, nil
}

func (s *sqliteStore) scanPairs(ctx context.Context, query string, fn func(a, b string)) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return err
		}
		fn(a, b)
	}
	return rows.Err()
}

// UpsertPersons inserts or updates persons by id
func (s *sqliteStore) UpsertPersons(ctx context.Context, persons []catalogue.Person) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO persons (pers_id, first_name, last_name) VALUES (?, ?, ?)
ON CONFLICT(pers_id) DO UPDATE SET
	first_name=excluded.first_name,
	last_name=excluded.last_name;
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range persons {
		if p.PersID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, p.PersID, p.FirstName, p.LastName); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetPerson retrieves a person by id
func (s *sqliteStore) GetPerson(ctx context.Context, persID string) (catalogue.Person, bool, error) {
	var p catalogue.Person
	err := s.db.QueryRowContext(ctx, `SELECT pers_id, first_name, last_name FROM persons WHERE pers_id = ?`, persID).
		Scan(&p.PersID, &p.FirstName, &p.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return catalogue.Person{}, false, nil
	}
	if err != nil {
		return catalogue.Person{}, false, err
	}
	return p, true, nil
}

// ListPersons returns all persons ordered by id
func (s *sqliteStore) ListPersons(ctx context.Context) ([]catalogue.Person, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pers_id, first_name, last_name FROM persons ORDER BY pers_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalogue.Person
	for rows.Next() {
		var p catalogue.Person
		if err := rows.Scan(&p.PersID, &p.FirstName, &p.LastName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveGroup stores a group, replacing any group with the same id
func (s *sqliteStore) SaveGroup(ctx context.Context, g groups.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO search_groups (group_id, group_type, name, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT(group_id) DO UPDATE SET
	group_type=excluded.group_type,
	name=excluded.name,
	created_at=excluded.created_at;
`, g.ID, string(g.Type), g.Name, g.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_items WHERE group_id = ?`, g.ID); err != nil {
		return err
	}
	pairs := make([][2]string, 0, len(g.Items))
	for _, it := range g.Items {
		pairs = append(pairs, [2]string{g.ID, it})
	}
	if err := insertPairs(ctx, tx, `INSERT OR IGNORE INTO group_items (group_id, item) VALUES (?, ?)`, pairs); err != nil {
		return err
	}
	return tx.Commit()
}

// GetGroup retrieves a group by id
func (s *sqliteStore) GetGroup(ctx context.Context, id string) (groups.Group, bool, error) {
	var (
		g         groups.Group
		gType     string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT group_id, group_type, name, created_at FROM search_groups WHERE group_id = ?`, id).
		Scan(&g.ID, &gType, &g.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return groups.Group{}, false, nil
	}
	if err != nil {
		return groups.Group{}, false, err
	}
	g.Type = groups.Type(gType)
	g.CreatedAt = parseTime(createdAt)

	items, err := s.groupItems(ctx, g.ID)
	if err != nil {
		return groups.Group{}, false, err
	}
	g.Items = items
	return g, true, nil
}

func (s *sqliteStore) groupItems(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item FROM group_items WHERE group_id = ? ORDER BY item`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var it string
		if err := rows.Scan(&it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListGroups returns the groups of type t (all groups when t is empty), oldest first
func (s *sqliteStore) ListGroups(ctx context.Context, t groups.Type) ([]groups.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT group_id FROM search_groups
WHERE ? = '' OR group_type = ?
ORDER BY group_id`, string(t), string(t))
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]groups.Group, 0, len(ids))
	for _, id := range ids {
		g, ok, err := s.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// RecordRun stores a run summary
func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO runs (
	run_id, started_at, finished_at, documents, processed, degraded, skipped,
	manuscripts, folded_groups, skipped_groups, conflicts
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339Nano), r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Documents, r.Processed, r.Degraded, r.Skipped,
		r.Manuscripts, r.FoldedGroups, r.SkippedGroups, r.Conflicts)
	return err
}

// ListRuns returns the most recent runs first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = store.DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, started_at, finished_at, documents, processed, degraded, skipped,
	manuscripts, folded_groups, skipped_groups, conflicts
FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		var (
			r                 store.Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Documents, &r.Processed, &r.Degraded, &r.Skipped,
			&r.Manuscripts, &r.FoldedGroups, &r.SkippedGroups, &r.Conflicts); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

func personPairs(in []catalogue.PersonRelation) [][2]string {
	out := make([][2]string, 0, len(in))
	for _, r := range in {
		out = append(out, [2]string{r.ManuscriptID, r.PersonID})
	}
	return out
}

func textPairs(in []catalogue.TextRelation) [][2]string {
	out := make([][2]string, 0, len(in))
	for _, r := range in {
		out = append(out, [2]string{r.ManuscriptID, r.Title})
	}
	return out
}

func encodeList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
