package persons

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
	"github.com/cognicore/handrit/pkg/handrit/logging"
	"github.com/cognicore/handrit/pkg/handrit/tei"
)

// Directory maps person-authority ids to names. It is built once and only
// read afterwards, so it may be shared between goroutines.
type Directory struct {
	people map[string]catalogue.Person
}

// Load parses the authority file at path.
func Load(path string, log *zap.Logger) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrAuthorityUnreadable, err)
	}
	return Parse(data, path, log)
}

// Parse builds a directory from the raw authority file. An unparseable file
// is fatal and returns an error wrapping internalerr.ErrAuthorityUnreadable.
func Parse(data []byte, source string, log *zap.Logger) (*Directory, error) {
	log = logging.OrNop(log).Named("persons")

	doc, err := tei.Parse(data, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrAuthorityUnreadable, err)
	}

	dir := &Directory{people: make(map[string]catalogue.Person)}
	for _, el := range tei.All(doc.Root(), "person") {
		id, ok := tei.Attr(el, "xml:id")
		if !ok {
			log.Debug("person without id")
			continue
		}
		p := catalogue.Person{PersID: id}
		if name, ok := tei.First(el, "persName"); ok {
			p.FirstName = joinTexts(tei.All(name, "forename"))
			p.LastName = joinTexts(tei.All(name, "surname"))
			if p.FirstName == "" && p.LastName == "" {
				p.LastName = tei.Text(name)
			}
		}
		if _, dup := dir.people[id]; dup {
			log.Warn("duplicate person id", zap.String("pers_id", id))
		}
		dir.people[id] = p
	}

	if len(dir.people) == 0 {
		log.Warn("authority file lists no persons", zap.String("source", source))
	}
	return dir, nil
}

// FromPersons builds a directory from already-normalized records.
func FromPersons(list []catalogue.Person) *Directory {
	dir := &Directory{people: make(map[string]catalogue.Person, len(list))}
	for _, p := range list {
		if p.PersID == "" {
			continue
		}
		dir.people[p.PersID] = p
	}
	return dir
}

// Len returns the number of persons.
func (d *Directory) Len() int { return len(d.people) }

// Get returns the person with the given id.
func (d *Directory) Get(id string) (catalogue.Person, bool) {
	p, ok := d.people[id]
	return p, ok
}

// DisplayName returns "first last" for the given id.
func (d *Directory) DisplayName(id string) (string, bool) {
	p, ok := d.people[id]
	if !ok {
		return "", false
	}
	return p.DisplayName(), true
}

// Persons returns all persons sorted by id.
func (d *Directory) Persons() []catalogue.Person {
	out := make([]catalogue.Person, 0, len(d.people))
	for _, p := range d.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersID < out[j].PersID })
	return out
}

// Inverse maps each display name to the ids carrying it, so that search can
// offer every person of the same name.
func (d *Directory) Inverse() map[string][]string {
	inv := make(map[string][]string)
	for id, p := range d.people {
		name := p.DisplayName()
		inv[name] = append(inv[name], id)
	}
	for name := range inv {
		sort.Strings(inv[name])
	}
	return inv
}

// Lookup returns the ids of every person whose display name equals name,
// ignoring case.
func (d *Directory) Lookup(name string) []string {
	var ids []string
	for id, p := range d.people {
		if strings.EqualFold(p.DisplayName(), strings.TrimSpace(name)) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func joinTexts(els []*etree.Element) string {
	parts := make([]string, 0, len(els))
	for _, el := range els {
		if t := tei.Text(el); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
