package xmltree

import (
	"strconv"
	"strings"
)

// stringValue holds the result of a borrow-or-allocate decision: text is
// always the final, ready-to-use string (Go strings are themselves
// immutable views, so "borrowed" and "owned" look identical to callers);
// owned is kept only to feed Document.Stats' BorrowedValues/OwnedValues
// counters (via Document.recordValue), never consulted for correctness.
// See the "Borrow vs. own" design note in SPEC_FULL.md.
type stringValue struct {
	text  string
	owned bool
}

func borrowed(s string) stringValue   { return stringValue{text: s} }
func allocated(s string) stringValue { return stringValue{text: s, owned: true} }

// refKind distinguishes the two reference forms recognized inside text
// and attribute values.
type refKind int

const (
	refNone refKind = iota
	refChar
	refNamed
)

// scanReference inspects raw[i:] for a character reference (&#nn; or
// &#xnn;) or a named entity reference (&name;) starting at raw[i] ==
// '&'. It returns the kind of reference found, the decoded code point
// (refChar) or entity name (refNamed), and the number of bytes the
// reference occupies (including the leading & and trailing ;).
//
// absOffset is the absolute offset of raw[0] in the original input, used
// only to report error positions at the '&'.
func scanReference(raw []byte, i int, absOffset int) (kind refKind, name string, r rune, length int) {
	if raw[i] != '&' {
		return refNone, "", 0, 0
	}
	end := -1
	for j := i + 1; j < len(raw); j++ {
		if raw[j] == ';' {
			end = j
			break
		}
		if raw[j] == '&' || raw[j] == '<' {
			break
		}
	}
	if end < 0 {
		abort(ErrMalformedEntityReference, absOffset+i, "unterminated reference")
	}
	body := raw[i+1 : end]
	length = end - i + 1
	if len(body) > 1 && body[0] == '#' {
		digits := body[1:]
		base := 10
		if len(digits) > 0 && (digits[0] == 'x' || digits[0] == 'X') {
			digits = digits[1:]
			base = 16
		}
		if len(digits) == 0 {
			abort(ErrMalformedEntityReference, absOffset+i, "empty character reference")
		}
		n, err := strconv.ParseUint(string(digits), base, 32)
		if err != nil {
			abortWrap(ErrMalformedEntityReference, absOffset+i, "malformed character reference digits", err)
		}
		cp := rune(n)
		if !validXMLChar(cp) {
			abort(ErrMalformedEntityReference, absOffset+i, "character reference out of valid XML range")
		}
		return refChar, "", cp, length
	}
	if len(body) == 0 {
		abort(ErrMalformedEntityReference, absOffset+i, "empty entity reference")
	}
	return refNamed, string(body), 0, length
}

// validXMLChar reports whether r is in the XML 1.0 Char production.
func validXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

// predefinedEntity resolves one of the five entities always available
// without a DTD declaration.
func predefinedEntity(name string) (rune, bool) {
	switch name {
	case "lt":
		return '<', true
	case "gt":
		return '>', true
	case "amp":
		return '&', true
	case "apos":
		return '\'', true
	case "quot":
		return '"', true
	default:
		return 0, false
	}
}

// expandTextual performs the purely textual reference expansion used
// for attribute values (XML forbids markup there, so general-entity
// expansion can never produce element structure in this context; see
// §4.2 of SPEC_FULL.md). raw is the exact source bytes being scanned
// (either the attribute's literal value, or the declared value of an
// entity being expanded within one), absOffset is raw[0]'s offset in
// the original input, and collapseWS controls whether literal tab/CR/LF
// bytes are folded to a space -- true only for the outermost,
// source-level scan, never for bytes that came from an entity's
// replacement text.
func (p *parser) expandTextual(raw []byte, absOffset int, collapseWS bool) (string, bool) {
	var b strings.Builder
	changed := false
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '<' {
			abort(ErrInvalidAttributeValue, absOffset+i, "literal '<' in attribute value")
		}
		if c == '&' {
			kind, name, r, length := scanReference(raw, i, absOffset)
			switch kind {
			case refChar:
				b.WriteRune(r)
				changed = true
			case refNamed:
				if r, ok := predefinedEntity(name); ok {
					b.WriteRune(r)
					changed = true
				} else {
					text := p.expandNamedEntityTextual(name, absOffset+i)
					b.WriteString(text)
					changed = true
				}
			}
			i += length
			continue
		}
		if collapseWS && c == '\r' {
			b.WriteByte(' ')
			changed = true
			i++
			if i < len(raw) && raw[i] == '\n' {
				i++
			}
			continue
		}
		if collapseWS && (c == '\t' || c == '\n') {
			b.WriteByte(' ')
			changed = true
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), changed
}

// expandNamedEntityTextual resolves a general entity by name for use in
// an attribute value: the entity's declared value is itself re-scanned
// for character and entity references (never for markup -- a literal
// '<' anywhere in the fully expanded text, however it got there, is
// fatal), guarded against cycles and excessive nesting.
func (p *parser) expandNamedEntityTextual(name string, refPos int) string {
	decl, ok := p.entities.lookup(name)
	if !ok {
		abort(ErrUnknownEntityReference, refPos, "undeclared entity &"+name+";")
	}
	if origin, expanding := p.expanding[name]; expanding {
		abort(ErrEntityReferenceLoop, origin, "entity &"+name+"; is self-referential")
	}
	if p.depth > p.cfg.entityDepthLimit {
		abort(ErrEntityReferenceLoop, refPos, "entity expansion nested too deeply")
	}
	p.cfg.logf("xmltree: expanding entity &%s; at depth %d (offset %d)", name, p.depth+1, refPos)
	p.expanding[name] = refPos
	p.depth++
	p.doc.stats.EntitiesExpanded++
	if p.depth > p.doc.stats.MaxEntityDepth {
		p.doc.stats.MaxEntityDepth = p.depth
	}
	text, _ := p.expandTextual(decl.value, decl.offset, false)
	p.depth--
	delete(p.expanding, name)
	return text
}
