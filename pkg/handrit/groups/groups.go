package groups

import (
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
)

// Type is the kind of id a group holds.
type Type string

const (
	TypeManuscript Type = "Manuscript"
	TypeText       Type = "Text"
	TypePerson     Type = "Person"
)

// ParseType accepts a group type name in any case.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{TypeManuscript, TypeText, TypePerson} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: group type %q", internalerr.ErrInvalidInput, s)
}

// Op is a set operation used to combine groups.
type Op string

const (
	Union        Op = "union"
	Intersection Op = "intersection"
)

// Group is a named, persisted set of ids produced by a search.
type Group struct {
	ID        string
	Type      Type
	Name      string
	Items     []string
	CreatedAt time.Time
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// New creates a group with a fresh id. Items are deduplicated and sorted.
func New(t Type, name string, items []string) Group {
	now := time.Now().UTC()
	return Group{
		ID:        newID(now),
		Type:      t,
		Name:      name,
		Items:     catalogue.UniqueSorted(items),
		CreatedAt: now,
	}
}

// Contains reports whether id is a member of g.
func (g Group) Contains(id string) bool {
	i := sort.SearchStrings(g.Items, id)
	return i < len(g.Items) && g.Items[i] == id
}

// Combine builds a new group from a and b. Both must have the same type.
func Combine(a, b Group, op Op, name string) (Group, error) {
	if a.Type != b.Type {
		return Group{}, fmt.Errorf("%w: %s and %s", internalerr.ErrTypeMismatch, a.Type, b.Type)
	}

	var items []string
	switch op {
	case Union:
		items = append(append(items, a.Items...), b.Items...)
	case Intersection:
		inB := make(map[string]struct{}, len(b.Items))
		for _, it := range b.Items {
			inB[it] = struct{}{}
		}
		for _, it := range a.Items {
			if _, ok := inB[it]; ok {
				items = append(items, it)
			}
		}
	default:
		return Group{}, fmt.Errorf("%w: operation %q", internalerr.ErrInvalidInput, op)
	}

	if name == "" {
		name = fmt.Sprintf("%s %s %s", a.Name, op, b.Name)
	}
	return New(a.Type, name, items), nil
}
