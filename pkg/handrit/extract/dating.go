package extract

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit/tei"
)

// Dating is the normalized date of origin. Zero years mean unknown.
type Dating struct {
	DateString string
	PostQuem   int
	AnteQuem   int
	Mean       int
	Range      int
}

// Dating reads the origin date. Attribute patterns are tried in order:
// notBefore/notAfter, when, from/to. A missing bound in a pair takes the
// value of the other bound.
func (x *Extractor) Dating(e *etree.Element) (d Dating) {
	defer x.recover("dating", func() { d = Dating{} })

	date, ok := tei.First(e, "origDate")
	if !ok {
		x.log.Warn("no origin date", zap.String("field", "dating"))
		return Dating{}
	}
	d.DateString = tei.Text(date)

	notBefore, hasNB := tei.Attr(date, "notBefore")
	notAfter, hasNA := tei.Attr(date, "notAfter")
	when, hasWhen := tei.Attr(date, "when")
	from, hasFrom := tei.Attr(date, "from")
	to, hasTo := tei.Attr(date, "to")

	switch {
	case hasNB || hasNA:
		d.PostQuem, d.AnteQuem = x.bounds(notBefore, notAfter)
	case hasWhen:
		y := x.year(when)
		d.PostQuem, d.AnteQuem = y, y
	case hasFrom || hasTo:
		d.PostQuem, d.AnteQuem = x.bounds(from, to)
	default:
		x.log.Warn("origin date without bounds", zap.String("field", "dating"), zap.String("text", d.DateString))
		return d
	}

	d.Mean, d.Range = meanAndRange(d.PostQuem, d.AnteQuem)
	if d.DateString == "" && d.PostQuem != 0 {
		d.DateString = formatSpan(d.PostQuem, d.AnteQuem)
	}
	return d
}

func (x *Extractor) bounds(lo, hi string) (int, int) {
	post, ante := 0, 0
	if lo != "" {
		post = x.year(lo)
	}
	if hi != "" {
		ante = x.year(hi)
	}
	if post == 0 {
		post = ante
	}
	if ante == 0 {
		ante = post
	}
	return post, ante
}

// year parses a year attribute. Values longer than four characters carry
// month and day digits and are cut to their first four.
func (x *Extractor) year(raw string) int {
	s := strings.TrimSpace(raw)
	if r := []rune(s); len(r) > 4 {
		s = string(r[:4])
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		x.log.Warn("unparseable year", zap.String("field", "dating"), zap.String("value", raw))
		return 0
	}
	return y
}

func meanAndRange(post, ante int) (int, int) {
	if post == 0 || ante == 0 {
		return post + ante, 0
	}
	return (post + ante) / 2, ante - post
}

func formatSpan(post, ante int) string {
	if post == ante {
		return strconv.Itoa(post)
	}
	return strconv.Itoa(post) + "-" + strconv.Itoa(ante)
}
