package xmltree

import (
	"testing"

	"github.com/kr/pretty"
)

func mustParse(t *testing.T, input string, opts ...Option) *Document {
	t.Helper()
	doc, err := Parse([]byte(input), opts...)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	return doc
}

func TestPredefinedEntitiesInText(t *testing.T) {
	doc := mustParse(t, `<p>a &amp; b</p>`)
	root := doc.RootElement()
	if !root.Is("", "p") {
		t.Fatalf("root is %# v", pretty.Formatter(root))
	}
	child := root.FirstChild()
	if child.Kind() != TextKind || child.Text() != "a & b" {
		t.Fatalf("text child = %# v", pretty.Formatter(child))
	}
	if child.NextSibling().valid() {
		t.Fatalf("expected exactly one child, got a sibling: %# v", pretty.Formatter(child.NextSibling()))
	}
}

func TestNestedEntityWithElementInExpansion(t *testing.T) {
	doc := mustParse(t, `<!DOCTYPE t [<!ENTITY a 'text<p/>text'>]><e>&a;</e>`)
	root := doc.RootElement()
	children := root.Children()
	if len(children) != 3 {
		t.Fatalf("want 3 children, got %d: %# v", len(children), pretty.Formatter(children))
	}
	if children[0].Kind() != TextKind || children[0].Text() != "text" {
		t.Fatalf("child 0 = %# v", pretty.Formatter(children[0]))
	}
	if children[1].Kind() != ElementKind || children[1].LocalName() != "p" || children[1].FirstChild().valid() {
		t.Fatalf("child 1 = %# v", pretty.Formatter(children[1]))
	}
	if children[2].Kind() != TextKind || children[2].Text() != "text" {
		t.Fatalf("child 2 = %# v", pretty.Formatter(children[2]))
	}
}

func TestCDATAMergesIntoText(t *testing.T) {
	doc := mustParse(t, `<p>t<![CDATA[e&#x20;]]>&#x20;x<![CDATA[t]]></p>`)
	root := doc.RootElement()
	children := root.Children()
	if len(children) != 1 {
		t.Fatalf("want a single merged text child, got %d: %# v", len(children), pretty.Formatter(children))
	}
	const want = "te&#x20; xt"
	if got := children[0].Text(); got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestEntityReferenceLoop(t *testing.T) {
	const input = `<!DOCTYPE t [<!ENTITY a '&a;'>]><e>&a;</e>`
	_, err := Parse([]byte(input))
	if err == nil {
		t.Fatal("expected an error")
	}
	xerr, ok := err.(*Error)
	if !ok || xerr.Kind != ErrEntityReferenceLoop {
		t.Fatalf("err = %# v, want ErrEntityReferenceLoop", pretty.Formatter(err))
	}
	// The loop must be reported at the reference that started the
	// expansion (the "&a;" inside <e>), not at the offset where the
	// cycle was structurally discovered while re-scanning the
	// entity's own declared value.
	if want := 35; xerr.Pos != want {
		t.Fatalf("Pos = %d, want %d (offset of \"&a;\" inside <e>)", xerr.Pos, want)
	}
}

func TestUnknownNamespacePrefix(t *testing.T) {
	_, err := Parse([]byte(`<a:b/>`))
	xerr, ok := err.(*Error)
	if !ok || xerr.Kind != ErrUnknownNamespace {
		t.Fatalf("err = %# v, want ErrUnknownNamespace", pretty.Formatter(err))
	}
}

func TestDuplicateExpandedAttribute(t *testing.T) {
	_, err := Parse([]byte(`<e xmlns:a='u' xmlns:b='u' a:x='1' b:x='2'/>`))
	xerr, ok := err.(*Error)
	if !ok || xerr.Kind != ErrDuplicatedAttribute {
		t.Fatalf("err = %# v, want ErrDuplicatedAttribute", pretty.Formatter(err))
	}
}

func TestAttributeValueNormalization(t *testing.T) {
	doc := mustParse(t, "<e a='  x&#x20;y '/>")
	root := doc.RootElement()
	attr, ok := root.Attr("", "a")
	if !ok {
		t.Fatalf("attribute a not found on %# v", pretty.Formatter(root))
	}
	const want = "  x y "
	if got := attr.Value(); got != want {
		t.Fatalf("value = %q, want %q", got, want)
	}
}

func TestAttributeValueNormalizationCRLF(t *testing.T) {
	doc := mustParse(t, "<e a='x\r\ny'/>")
	root := doc.RootElement()
	attr, _ := root.Attr("", "a")
	const want = "x y"
	if got := attr.Value(); got != want {
		t.Fatalf("value = %q, want %q (a source \\r\\n must collapse to exactly one space)", got, want)
	}
}

func TestUnclosedRoot(t *testing.T) {
	_, err := Parse([]byte(`<a><b></a>`))
	xerr, ok := err.(*Error)
	if !ok || xerr.Kind != ErrUnexpectedCloseTag {
		t.Fatalf("err = %# v, want ErrUnexpectedCloseTag", pretty.Formatter(err))
	}
}

func TestUTF8BOMAccepted(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`<r/>`)...)
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root := doc.RootElement(); !root.Is("", "r") {
		t.Fatalf("root = %# v", pretty.Formatter(root))
	}
}

func TestDTDRejection(t *testing.T) {
	const input = `<!DOCTYPE t []><r/>`
	_, err := Parse([]byte(input), AllowDTD(false))
	xerr, ok := err.(*Error)
	if !ok || xerr.Kind != ErrDtdDetected {
		t.Fatalf("err = %# v, want ErrDtdDetected", pretty.Formatter(err))
	}
	if want := 0; xerr.Pos != want {
		t.Fatalf("Pos = %d, want %d (offset of <!DOCTYPE)", xerr.Pos, want)
	}
}

func TestNoRootNode(t *testing.T) {
	_, err := Parse([]byte(`   `))
	xerr, ok := err.(*Error)
	if !ok || xerr.Kind != ErrNoRootNode {
		t.Fatalf("err = %# v, want ErrNoRootNode", pretty.Formatter(err))
	}
}

func TestSiblingLinksAreConsistentBothWays(t *testing.T) {
	doc := mustParse(t, `<r><a/><b/><c/></r>`)
	root := doc.RootElement()

	var forward []string
	for c := root.FirstChild(); c.valid(); c = c.NextSibling() {
		forward = append(forward, c.LocalName())
	}
	var backward []string
	for c := root.LastChild(); c.valid(); c = c.PrevSibling() {
		backward = append(backward, c.LocalName())
	}
	if len(forward) != len(backward) {
		t.Fatalf("forward = %v, backward = %v", forward, backward)
	}
	for i := range forward {
		if forward[i] != backward[len(backward)-1-i] {
			t.Fatalf("forward = %v, backward = %v", forward, backward)
		}
	}
}

func TestPositionRoundTrip(t *testing.T) {
	const input = "<root>\n  <child/>\n</root>"
	doc := mustParse(t, input, WithPositions(true))
	child := doc.RootElement().FirstChild().NextSibling()
	if !child.valid() || child.LocalName() != "child" {
		t.Fatalf("child = %# v", pretty.Formatter(child))
	}
	line, col := doc.TextPosAt(child.Position())
	if line != 2 || col != 3 {
		t.Fatalf("TextPosAt(%d) = (%d, %d), want (2, 3)", child.Position(), line, col)
	}
}

func TestAttributesPairwiseDistinctAndOrdered(t *testing.T) {
	doc := mustParse(t, `<e b="2" a="1" c="3"/>`)
	attrs := doc.RootElement().Attributes()
	want := []string{"b", "a", "c"}
	if len(attrs) != len(want) {
		t.Fatalf("attrs = %# v", pretty.Formatter(attrs))
	}
	for i, a := range attrs {
		if a.LocalName() != want[i] {
			t.Fatalf("attrs[%d] = %q, want %q", i, a.LocalName(), want[i])
		}
	}
}

func TestNodesLimit(t *testing.T) {
	_, err := Parse([]byte(`<r><a/><b/><c/></r>`), NodesLimit(2))
	xerr, ok := err.(*Error)
	if !ok || xerr.Kind != ErrNodesLimitReached {
		t.Fatalf("err = %# v, want ErrNodesLimitReached", pretty.Formatter(err))
	}
}

func TestDefaultAndPrefixedNamespaces(t *testing.T) {
	doc := mustParse(t, `<r xmlns="http://default/" xmlns:a="http://a/"><a:child/><child/></r>`)
	root := doc.RootElement()
	children := root.ChildElements()
	if len(children) != 2 {
		t.Fatalf("children = %# v", pretty.Formatter(children))
	}
	if uri, ok := children[0].Namespace(); !ok || uri != "http://a/" {
		t.Fatalf("a:child namespace = %q, %v", uri, ok)
	}
	if uri, ok := children[1].Namespace(); !ok || uri != "http://default/" {
		t.Fatalf("child namespace = %q, %v", uri, ok)
	}
}

func TestAttributePosition(t *testing.T) {
	const input = `<e a="1"/>`
	doc := mustParse(t, input, WithPositions(true))
	attr, ok := doc.RootElement().Attr("", "a")
	if !ok {
		t.Fatal("attribute a not found")
	}
	// "<e a=..." -- 'a' is the 4th byte, at offset 3.
	if want := 3; attr.Position() != want {
		t.Fatalf("Position() = %d, want %d (offset of the attribute name, not its value)", attr.Position(), want)
	}
}

func TestStatsCountsBorrowedAndOwnedValues(t *testing.T) {
	doc := mustParse(t, `<e a="plain" b="x&amp;y"><!--c-->plain text</e>`)
	stats := doc.Stats()
	if stats.BorrowedValues == 0 {
		t.Fatal("expected at least one borrowed value (the comment, and the unexpanded attribute)")
	}
	if stats.OwnedValues == 0 {
		t.Fatal("expected at least one owned value (the attribute whose value required entity expansion)")
	}
}

func TestUnprefixedAttributeHasNoNamespace(t *testing.T) {
	doc := mustParse(t, `<r xmlns="http://default/" a="1"/>`)
	root := doc.RootElement()
	attr, ok := root.Attr("", "a")
	if !ok {
		t.Fatalf("attribute a not found")
	}
	if uri, hasURI := attr.Namespace(); hasURI {
		t.Fatalf("unprefixed attribute resolved to namespace %q, want none", uri)
	}
}
