package catalogue

import "strings"

// Manuscript is the unified record of one physical manuscript, aggregating
// every catalogue entry that shares its manuscript id.
type Manuscript struct {
	ManuscriptID string

	Shelfmark   string
	Title       string
	Description string

	DateString string
	PostQuem   int
	AnteQuem   int
	DateMean   int
	DateRange  int
	DateStdDev float64

	Support    string
	FolioCount int
	Height     int
	Width      int
	ExtentText string

	Origin  string
	Creator string

	Country    string
	Settlement string
	Repository string

	Texts  []string
	People []string

	EntryCount      int
	CatalogueIDs    []string
	SourceFilenames []string
}

// FromEntry promotes a single entry to a manuscript record.
func FromEntry(e Entry) Manuscript {
	return Manuscript{
		ManuscriptID:    e.ManuscriptID,
		Shelfmark:       e.Shelfmark,
		Title:           e.Title,
		Description:     e.Description,
		DateString:      e.DateString,
		PostQuem:        e.PostQuem,
		AnteQuem:        e.AnteQuem,
		DateMean:        e.DateMean,
		DateRange:       e.DateRange,
		Support:         e.Support,
		FolioCount:      e.FolioCount,
		Height:          e.Height,
		Width:           e.Width,
		ExtentText:      e.ExtentText,
		Origin:          e.Origin,
		Creator:         e.Creator,
		Country:         e.Country,
		Settlement:      e.Settlement,
		Repository:      e.Repository,
		Texts:           UniqueSorted(e.Texts),
		People:          UniqueSorted(e.People),
		EntryCount:      1,
		CatalogueIDs:    []string{e.CatalogueID},
		SourceFilenames: nonEmpty(e.SourceFile),
	}
}

// Person is an entry of the person authority file.
type Person struct {
	PersID    string
	FirstName string
	LastName  string
}

// DisplayName joins first and last name.
func (p Person) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// PersonRelation links a manuscript to a referenced person.
type PersonRelation struct {
	ManuscriptID string
	PersonID     string
}

// TextRelation links a manuscript to a contained text.
type TextRelation struct {
	ManuscriptID string
	Title        string
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
