package extract

import (
	"testing"

	"github.com/beevik/etree"

	"github.com/cognicore/handrit/pkg/handrit/tei"
)

// element parses a snippet and returns its root element.
func element(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc, err := tei.Parse([]byte(xml), "test.xml")
	if err != nil {
		t.Fatalf("parse snippet: %v", err)
	}
	return doc.Root()
}

type fakeResolver map[string]string

func (f fakeResolver) DisplayName(id string) (string, bool) {
	name, ok := f[id]
	return name, ok
}

func TestDating(t *testing.T) {
	x := New(Options{})
	tests := []struct {
		name string
		xml  string
		want Dating
	}{
		{
			name: "notBefore/notAfter",
			xml:  `<msDesc><origDate notBefore="1450" notAfter="1475">c. 1450-1475</origDate></msDesc>`,
			want: Dating{DateString: "c. 1450-1475", PostQuem: 1450, AnteQuem: 1475, Mean: 1462, Range: 25},
		},
		{
			name: "when",
			xml:  `<msDesc><origDate when="1500"/></msDesc>`,
			want: Dating{DateString: "1500", PostQuem: 1500, AnteQuem: 1500, Mean: 1500, Range: 0},
		},
		{
			name: "from/to",
			xml:  `<msDesc><origDate from="1600" to="1700">17th century</origDate></msDesc>`,
			want: Dating{DateString: "17th century", PostQuem: 1600, AnteQuem: 1700, Mean: 1650, Range: 100},
		},
		{
			name: "full dates are cut to the year",
			xml:  `<msDesc><origDate notBefore="1625-03-01" notAfter="1630-12-31"/></msDesc>`,
			want: Dating{DateString: "1625-1630", PostQuem: 1625, AnteQuem: 1630, Mean: 1627, Range: 5},
		},
		{
			name: "missing upper bound",
			xml:  `<msDesc><origDate notBefore="1400">after 1400</origDate></msDesc>`,
			want: Dating{DateString: "after 1400", PostQuem: 1400, AnteQuem: 1400, Mean: 1400, Range: 0},
		},
		{
			name: "missing lower bound",
			xml:  `<msDesc><origDate notAfter="1300"/></msDesc>`,
			want: Dating{DateString: "1300", PostQuem: 1300, AnteQuem: 1300, Mean: 1300, Range: 0},
		},
		{
			name: "text only",
			xml:  `<msDesc><origDate>Middle Ages</origDate></msDesc>`,
			want: Dating{DateString: "Middle Ages"},
		},
		{
			name: "unparseable year",
			xml:  `<msDesc><origDate when="15th"/></msDesc>`,
			want: Dating{},
		},
		{
			name: "no date",
			xml:  `<msDesc/>`,
			want: Dating{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.Dating(element(t, tt.xml))
			if got != tt.want {
				t.Errorf("Dating() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDatingRangeNonNegative(t *testing.T) {
	x := New(Options{})
	d := x.Dating(element(t, `<msDesc><origDate notBefore="1200" notAfter="1299"/></msDesc>`))
	if d.Range < 0 || d.Mean < d.PostQuem || d.Mean > d.AnteQuem {
		t.Errorf("Mean and range out of bounds: %+v", d)
	}
}

func TestSupport(t *testing.T) {
	x := New(Options{})
	tests := map[string]string{
		`<msDesc><supportDesc material="chart"/></msDesc>`: SupportPaper,
		`<msDesc><supportDesc material="perg"/></msDesc>`:  SupportParchment,
		`<msDesc><supportDesc material="Chart"/></msDesc>`: SupportPaper,
		`<msDesc><supportDesc material="mixed"/></msDesc>`: "mixed",
		`<msDesc><supportDesc/></msDesc>`:                  "",
		`<msDesc/>`:                                        "",
	}
	for xml, want := range tests {
		if got := x.Support(element(t, xml)); got != want {
			t.Errorf("Support(%s) = %q, want %q", xml, got, want)
		}
	}
}

func TestOrigin(t *testing.T) {
	x := New(Options{})
	tests := []struct {
		xml  string
		want string
	}{
		{`<msDesc><origPlace><country key="IS">Ísland</country></origPlace></msDesc>`, "Iceland"},
		{`<msDesc><origPlace key="dk"/></msDesc>`, "Denmark"},
		{`<msDesc><origPlace><country key="xx"/></origPlace></msDesc>`, UnknownCountryKey},
		{`<msDesc><origPlace>Skálholt</origPlace></msDesc>`, "Skálholt"},
		{`<msDesc><origPlace/></msDesc>`, OriginUnknown},
		{`<msDesc/>`, OriginUnknown},
	}
	for _, tt := range tests {
		if got := x.Origin(element(t, tt.xml)); got != tt.want {
			t.Errorf("Origin(%s) = %q, want %q", tt.xml, got, tt.want)
		}
	}
}

func TestOriginCustomVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.Merge(Vocabulary{CountryCodes: map[string]string{"GL": "Greenland"}})
	x := New(Options{Vocabulary: &vocab})

	got := x.Origin(element(t, `<msDesc><origPlace><country key="gl"/></origPlace></msDesc>`))
	if got != "Greenland" {
		t.Errorf("Expected Greenland, got %q", got)
	}
}

func TestLocation(t *testing.T) {
	x := New(Options{})
	loc := x.Location(element(t, `<msDesc><msIdentifier>
  <country>Iceland</country>
  <settlement>Reykjavík</settlement>
  <repository>Stofnun Árna Magnússonar</repository>
  <idno>AM 132 fol.</idno>
  <altIdentifier><idno>Möðruvallabók</idno></altIdentifier>
</msIdentifier></msDesc>`))

	want := Location{
		Country:    "Iceland",
		Settlement: "Reykjavík",
		Repository: "Stofnun Árna Magnússonar",
		Shelfmark:  "AM 132 fol.",
	}
	if loc != want {
		t.Errorf("Location() = %+v, want %+v", loc, want)
	}

	if got := x.Location(element(t, `<msDesc/>`)); got != (Location{}) {
		t.Errorf("Missing identifier should yield zero location, got %+v", got)
	}
}

func TestShortTitle(t *testing.T) {
	x := New(Options{})
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{
			name: "manuscript name wins",
			xml: `<TEI><teiHeader><titleStmt><title>Header</title></titleStmt></teiHeader>
<msDesc><msIdentifier><msName>Möðruvallabók</msName></msIdentifier></msDesc></TEI>`,
			want: "Möðruvallabók",
		},
		{
			name: "header title",
			xml: `<TEI><teiHeader><titleStmt><title> Njáls
 saga </title></titleStmt></teiHeader><msDesc/></TEI>`,
			want: "Njáls saga",
		},
		{
			name: "summary title",
			xml:  `<TEI><msDesc><msContents><summary><title>Sögur</title></summary></msContents></msDesc></TEI>`,
			want: "Sögur",
		},
		{
			name: "first item title",
			xml:  `<TEI><msDesc><msContents><msItem><title>Egils saga</title></msItem></msContents></msDesc></TEI>`,
			want: "Egils saga",
		},
		{
			name: "none",
			xml:  `<TEI><msDesc/></TEI>`,
			want: TitleNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := element(t, tt.xml)
			ms, _ := tei.First(root, "msDesc")
			if got := x.ShortTitle(ms); got != tt.want {
				t.Errorf("ShortTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreators(t *testing.T) {
	x := New(Options{Persons: fakeResolver{"JonOla": "Jón Ólafsson"}})
	e := element(t, `<msDesc><physDesc><handDesc>
  <handNote><name key="JonOla" type="person">Jón</name></handNote>
  <handNote><name type="person">Unnamed scribe</name></handNote>
  <handNote><name key="JonOla" type="person"/></handNote>
  <handNote><name key="Skal" type="place">Skálholt</name></handNote>
  <handNote><name key="Unk" type="person"/></handNote>
</handDesc></physDesc></msDesc>`)

	want := "Jón Ólafsson; Unnamed scribe; Unk"
	if got := x.Creators(e); got != want {
		t.Errorf("Creators() = %q, want %q", got, want)
	}

	if got := x.Creators(element(t, `<msDesc/>`)); got != ScribesUnknown {
		t.Errorf("Expected %q, got %q", ScribesUnknown, got)
	}
}

func TestTexts(t *testing.T) {
	x := New(Options{})
	e := element(t, `<msDesc><msContents>
  <msItem n="1"><title>Njáls saga</title></msItem>
  <msItem n="1.1"><title>Kristni þáttur</title></msItem>
  <msItem n="2"><title>Egils saga</title><msItem><title>Nested</title></msItem></msItem>
  <msItem n="3"><locus>12r</locus></msItem>
  <msItem n="4"><title>Njáls saga</title></msItem>
</msContents></msDesc>`)

	got := x.Texts(e)
	want := []string{"Njáls saga", "Egils saga", "Nested"}
	if len(got) != len(want) {
		t.Fatalf("Texts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Texts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := x.Texts(element(t, `<msDesc/>`)); len(got) != 0 {
		t.Errorf("Expected no texts, got %v", got)
	}
}

func TestPeople(t *testing.T) {
	x := New(Options{})
	root := element(t, `<TEI><teiHeader><name key="Editor"/></teiHeader><msDesc>
  <name key="JonOla" type="person"/>
  <persName><name key="ArnMag">Árni</name></persName>
  <name key="JonOla"/>
  <name>no key</name>
</msDesc></TEI>`)
	ms, _ := tei.First(root, "msDesc")

	got := x.People(ms)
	want := []string{"Editor", "JonOla", "ArnMag"}
	if len(got) != len(want) {
		t.Fatalf("People() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("People()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
