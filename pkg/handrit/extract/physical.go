package extract

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit/tei"
)

// maxFolios bounds plausible leaf counts; anything with more than three
// digits is a misread.
const maxFolios = 999

var digitGroup = regexp.MustCompile(`\d+`)

// Dimensions are the page measurements in millimetres. Text keeps the
// measurements as recorded, with their original unit.
type Dimensions struct {
	Height int
	Width  int
	Unit   string
	Text   string
}

// FolioCount returns the number of leaves recorded in the extent element,
// or 0 when it cannot be determined.
func (x *Extractor) FolioCount(e *etree.Element) (n int) {
	defer x.recover("folio_count", func() { n = 0 })

	extent, ok := tei.First(e, "extent")
	if !ok {
		x.log.Warn("no extent", zap.String("field", "folio_count"))
		return 0
	}
	text := tei.TextExcluding(extent, "dimensions", "locus")
	n = x.foliosFromText(text)
	if n > maxFolios {
		x.log.Warn("implausible folio count", zap.String("field", "folio_count"), zap.Int("value", n), zap.String("text", text))
		return 0
	}
	if n == 0 {
		x.log.Warn("no folio count", zap.String("field", "folio_count"), zap.String("text", text))
	}
	return n
}

// foliosFromText applies, in order: plain number, explicit total marker,
// blank-leaf marker cut, bracket stripping with a fallback to the digits
// inside brackets.
func (x *Extractor) foliosFromText(text string) int {
	compact := strings.NewReplacer(".", "", " ", "").Replace(text)
	if compact != "" && allDigits(compact) {
		return atoi(compact)
	}

	lower := strings.ToLower(text)
	if idx := markerIndex(lower, x.vocab.TotalMarkers); idx >= 0 {
		outside, _ := splitAsides(lower[:idx])
		return sumDigits(outside)
	}

	if idx := markerIndex(lower, x.vocab.EmptyMarkers); idx >= 0 {
		lower = lower[:idx]
	}
	outside, inside := splitAsides(lower)
	if n := sumDigits(outside); n > 0 {
		return n
	}
	return sumDigits(strings.Join(inside, " "))
}

// Dimensions reads height and width from the dimensions element. The unit
// comes from the unit attribute or, failing that, from the width's digit
// count: three digits are millimetres, two are centimetres.
func (x *Extractor) Dimensions(e *etree.Element) (d Dimensions) {
	defer x.recover("dimensions", func() { d = Dimensions{Text: DimensionsNA} })

	dims, ok := tei.First(e, "dimensions")
	if !ok {
		x.log.Debug("no dimensions", zap.String("field", "dimensions"))
		return Dimensions{Text: NoDimensions}
	}

	hRaw := firstDigits(childText(dims, "height"))
	wRaw := firstDigits(childText(dims, "width"))
	if hRaw == "" || wRaw == "" {
		x.log.Debug("incomplete dimensions", zap.String("field", "dimensions"))
		return Dimensions{Text: DimensionsNA}
	}

	unit, _ := tei.Attr(dims, "unit")
	if unit == "" {
		if h := dims.SelectElement("height"); h != nil {
			unit, _ = tei.Attr(h, "unit")
		}
	}
	unit = strings.ToLower(unit)
	if unit == "" {
		switch len(wRaw) {
		case 3:
			unit = "mm"
		case 2:
			unit = "cm"
		}
	}

	h, w := atoi(hRaw), atoi(wRaw)
	d = Dimensions{Unit: unit, Text: fmt.Sprintf("%d x %d %s", h, w, unit)}
	if unit == "" {
		d.Text = fmt.Sprintf("%d x %d", h, w)
	}
	switch unit {
	case "cm":
		d.Height, d.Width = times10(h), times10(w)
	default:
		d.Height, d.Width = h, w
	}
	return d
}

// markerIndex returns the byte offset of the first marker found in s.
func markerIndex(s string, markers []string) int {
	for _, m := range markers {
		if idx := strings.Index(s, m); idx >= 0 {
			return idx
		}
	}
	return -1
}

// splitAsides separates text outside brackets from bracketed fragments.
// An unclosed bracket runs to the end of s.
func splitAsides(s string) (string, []string) {
	var outside strings.Builder
	var inside []string
	var cur strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[':
			if depth == 0 {
				cur.Reset()
			} else {
				cur.WriteRune(r)
			}
			depth++
		case ')', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				inside = append(inside, cur.String())
				outside.WriteByte(' ')
			} else {
				cur.WriteRune(r)
			}
		default:
			if depth > 0 {
				cur.WriteRune(r)
			} else {
				outside.WriteRune(r)
			}
		}
	}
	if depth > 0 {
		inside = append(inside, cur.String())
	}
	return outside.String(), inside
}

// sumDigits adds the digit groups of s, saturating at math.MaxInt.
func sumDigits(s string) int {
	total := 0
	for _, g := range digitGroup.FindAllString(s, -1) {
		n := atoi(g)
		if n > math.MaxInt-total {
			return math.MaxInt
		}
		total += n
	}
	return total
}

func firstDigits(s string) string {
	return digitGroup.FindString(s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// atoi parses a digit run. Runs too long for an int saturate at
// math.MaxInt so that range checks still see them.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt
	}
	if err != nil {
		return 0
	}
	return n
}

func times10(n int) int {
	if n > math.MaxInt/10 {
		return math.MaxInt
	}
	return n * 10
}
