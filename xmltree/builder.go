package xmltree

import (
	"strings"

	"github.com/nyxtree/go-xml/internal/openstack"
)

// resolvedAttr is a start tag's attribute after its value has gone
// through entity expansion and whitespace normalization, but before its
// name has been resolved against the element's namespace scope -- the
// scope itself isn't known until every xmlns/xmlns:* attribute on the
// same tag has been collected, so name resolution happens in a second
// pass over this slice.
type resolvedAttr struct {
	name rawName
	// nameOffset is the byte offset of the attribute's name, reported
	// back to callers via Attribute.Position.
	nameOffset int
	value      string
	// owned is true when expansion or normalization changed the bytes.
	owned bool
	// pos is the byte offset of the attribute's value, used only while
	// resolving (duplicate-attribute and namespace-declaration errors
	// are reported at the value, where the conflicting content is).
	pos int
}

// buildCtx is the open-element stack and namespace-scope stack for one
// "content region": either the document's own top level, or the
// replacement text of a general entity being expanded in content
// position. Entity replacement text gets its own buildCtx seeded from
// the point of reference (see parseContentFragment) so that an
// unbalanced tag inside it is reported as ErrUnexpectedEntityCloseTag,
// distinct from a genuinely malformed document.
type buildCtx struct {
	open       openstack.Stack
	scopes     []nsScope
	baseParent NodeID
	baseScope  nsScope

	// pending accumulates character data (text, CDATA, expanded
	// references) seen since the last structural event in this
	// context, so that adjacent text/CDATA runs coalesce into a single
	// Text node no matter how many lexer tokens they were split across.
	// It is flushed immediately before any event that changes ctx's
	// current parent or adds a sibling of another kind.
	pending    strings.Builder
	pendingPos int
}

// flushText materializes any accumulated character data as a Text node
// under ctx's current parent, if there is any.
func (c *buildCtx) flushText(p *parser) {
	if c.pending.Len() == 0 {
		return
	}
	id := p.newNode(TextKind, c.parent(), c.pendingPos)
	p.doc.data(id).value = p.doc.recordValue(allocated(c.pending.String()))
	c.pending.Reset()
}

func (p *parser) accumulateByte(ctx *buildCtx, b byte, pos int) {
	if ctx.pending.Len() == 0 {
		ctx.pendingPos = pos
	}
	ctx.pending.WriteByte(b)
}

func (p *parser) accumulateRune(ctx *buildCtx, r rune, pos int) {
	if ctx.pending.Len() == 0 {
		ctx.pendingPos = pos
	}
	ctx.pending.WriteRune(r)
}

func (c *buildCtx) parent() NodeID {
	if c.open.Empty() {
		return c.baseParent
	}
	return NodeID(c.open.Peek().ID)
}

func (c *buildCtx) scope() nsScope {
	if len(c.scopes) == 0 {
		return c.baseScope
	}
	return c.scopes[len(c.scopes)-1]
}

func (c *buildCtx) push(name string, id NodeID, scope nsScope) {
	c.open.Push(name, int32(id))
	c.scopes = append(c.scopes, scope)
}

func (c *buildCtx) pop() {
	c.open.Pop()
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// parser drives the lexer, entity table and namespace resolver to
// build a Document's arena one token at a time. It is created fresh by
// Parse for every call and discarded once parseDocument returns or
// panics; nothing about it is safe to reuse or share.
type parser struct {
	input    []byte
	cfg      *Config
	doc      *Document
	entities *entityTable

	// expanding maps an entity name currently being expanded to the
	// byte offset of the reference that *first* triggered its
	// expansion. A nested self-reference is reported at that
	// originating offset, not at the offset where the cycle happened
	// to be discovered -- see expandNamedEntityContent.
	expanding map[string]int
	depth     int
	top       buildCtx
	rootSeen  bool
	nodeCount int
}

func newParser(input []byte, cfg *Config) *parser {
	cfg.logf("xmltree: parsing document (%d bytes)", len(input))
	return &parser{
		input:     input,
		cfg:       cfg,
		doc:       &Document{input: input, cfg: cfg},
		entities:  newEntityTable(),
		expanding: make(map[string]int),
	}
}

func (p *parser) maybePos(pos int) int {
	if p.cfg.positions {
		return pos
	}
	return 0
}

func (p *parser) checkNodesLimit(pos int) {
	if p.cfg.nodesLimit > 0 && p.nodeCount >= p.cfg.nodesLimit {
		abort(ErrNodesLimitReached, pos, "nodes limit reached")
	}
}

// newNode allocates a node in the arena, links it in as the last child
// of parent, and returns its ID. Kind-specific fields are left zero for
// the caller to fill in.
func (p *parser) newNode(kind Kind, parent NodeID, pos int) NodeID {
	p.checkNodesLimit(pos)
	id := NodeID(len(p.doc.nodes))
	p.doc.nodes = append(p.doc.nodes, nodeData{
		kind:        kind,
		parent:      parent,
		firstChild:  NoNode,
		lastChild:   NoNode,
		prevSibling: NoNode,
		nextSibling: NoNode,
		pos:         p.maybePos(pos),
	})
	p.appendChild(parent, id)
	p.nodeCount++
	p.doc.stats.Nodes++
	return id
}

func (p *parser) appendChild(parent, child NodeID) {
	pd := p.doc.data(parent)
	if pd.lastChild == NoNode {
		pd.firstChild = child
	} else {
		p.doc.nodes[pd.lastChild].nextSibling = child
		p.doc.nodes[child].prevSibling = pd.lastChild
	}
	pd.lastChild = child
}

func (p *parser) appendComment(text []byte, pos int, ctx *buildCtx) {
	ctx.flushText(p)
	id := p.newNode(CommentKind, ctx.parent(), pos)
	p.doc.data(id).value = p.doc.recordValue(borrowed(string(text)))
}

func (p *parser) appendPI(tok token, ctx *buildCtx) {
	ctx.flushText(p)
	id := p.newNode(ProcessingInstructionKind, ctx.parent(), tok.start)
	nd := p.doc.data(id)
	nd.piTarget = tok.target
	nd.piData = p.doc.recordValue(borrowed(string(tok.data)))
}

// processStartTag expands tok's attribute values, resolves its name and
// its attributes' names against ctx's namespace scope, allocates the
// element node, and -- unless it is self-closing -- pushes it onto ctx
// so that subsequent tokens become its children.
func (p *parser) processStartTag(tok token, ctx *buildCtx) NodeID {
	ctx.flushText(p)
	resolved := make([]resolvedAttr, len(tok.attrs))
	rawSeen := make(map[string]bool, len(tok.attrs))
	for i, a := range tok.attrs {
		qn := a.name.qname()
		// A repeated xmlns/xmlns:* declaration is left to
		// buildElementScope, which reports ErrDuplicatedNamespace.
		if isDecl, _ := declPrefix(a.name); rawSeen[qn] && !isDecl {
			abort(ErrDuplicatedAttribute, a.valueOffset, "duplicated attribute "+qn)
		}
		rawSeen[qn] = true
		val, changed := p.expandTextual(a.value, a.valueOffset, true)
		resolved[i] = resolvedAttr{name: a.name, nameOffset: a.nameOffset, value: val, owned: changed, pos: a.valueOffset}
	}

	scope, declIdx := buildElementScope(ctx.scope(), resolved, tok.start)
	uri, hasURI := resolveElementName(scope, tok.name, tok.start)

	id := p.newNode(ElementKind, ctx.parent(), tok.start)
	nd := p.doc.data(id)
	nd.name = tok.name
	nd.uri = uri
	nd.hasURI = hasURI

	type attrKey struct{ uri, local string }
	seen := make(map[attrKey]bool, len(resolved))
	attrStart := AttrID(len(p.doc.attrs))
	for i, a := range resolved {
		if declIdx[i] {
			continue
		}
		auri, ahas := resolveAttrName(scope, a.name, a.pos)
		k := attrKey{local: a.name.local}
		if ahas {
			k.uri = auri
		}
		if seen[k] {
			abort(ErrDuplicatedAttribute, a.pos, "duplicated attribute "+a.name.qname()+" after namespace resolution")
		}
		seen[k] = true
		val := borrowed(a.value)
		if a.owned {
			val = allocated(a.value)
		}
		p.doc.attrs = append(p.doc.attrs, attrData{
			name:   a.name,
			uri:    auri,
			hasURI: ahas,
			value:  p.doc.recordValue(val),
			pos:    p.maybePos(a.nameOffset),
		})
		p.doc.stats.Attributes++
	}
	nd.attrStart = attrStart
	nd.attrEnd = AttrID(len(p.doc.attrs))

	nd.nsStart = int32(len(p.doc.bindings))
	p.doc.bindings = append(p.doc.bindings, scope...)
	nd.nsEnd = int32(len(p.doc.bindings))
	p.doc.stats.NamespaceBindings += len(scope)

	if !tok.selfClosing {
		p.cfg.debugf("xmltree: push <%s> (node %d, depth %d)", tok.name.qname(), id, ctx.open.Len()+1)
		ctx.push(tok.name.qname(), id, scope)
	}
	return id
}

// processEndTag matches tok against ctx's innermost open element.
// emptyErr is the error raised when ctx has nothing open at all --
// ErrUnexpectedCloseTag at the document's own top level,
// ErrUnexpectedEntityCloseTag inside an entity's replacement text,
// where closing an element the expansion did not itself open is a
// distinct kind of malformed input.
func (p *parser) processEndTag(tok token, ctx *buildCtx, emptyErr ErrorKind) {
	ctx.flushText(p)
	if ctx.open.Empty() {
		abort(emptyErr, tok.start, "unexpected close tag </"+tok.name.qname()+">")
	}
	top := ctx.open.Peek()
	if top.Name != tok.name.qname() {
		abort(ErrUnexpectedCloseTag, tok.start, "mismatched close tag: expected </"+top.Name+">, found </"+tok.name.qname()+">")
	}
	p.cfg.debugf("xmltree: pop </%s> (node %d, depth %d)", tok.name.qname(), top.ID, ctx.open.Len())
	ctx.pop()
}

// emitContentText scans raw (a run of character data found directly in
// element content) for references. Character references and the five
// predefined entities are substituted in place; a custom entity
// reference flushes any pending plain text and re-lexes the entity's
// declared value as content via parseContentFragment, since a custom
// entity in content position may expand to markup, not just text (see
// SPEC_FULL.md §4.1).
func (p *parser) emitContentText(raw []byte, absOffset int, ctx *buildCtx) {
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '&' {
			kind, name, r, length := scanReference(raw, i, absOffset)
			switch kind {
			case refChar:
				p.accumulateRune(ctx, r, absOffset+i)
			case refNamed:
				if rr, ok := predefinedEntity(name); ok {
					p.accumulateRune(ctx, rr, absOffset+i)
				} else {
					ctx.flushText(p)
					p.expandNamedEntityContent(name, absOffset+i, ctx)
				}
			}
			i += length
			continue
		}
		p.accumulateByte(ctx, c, absOffset+i)
		i++
	}
}

// emitCDATA appends a CDATA section's bytes to ctx's pending text
// verbatim: unlike ordinary content, CDATA is never scanned for
// character or entity references.
func (p *parser) emitCDATA(raw []byte, pos int, ctx *buildCtx) {
	for i, b := range raw {
		p.accumulateByte(ctx, b, pos+i)
	}
}

func (p *parser) expandNamedEntityContent(name string, refPos int, ctx *buildCtx) {
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
	p.parseContentFragment(decl.value, decl.offset, ctx)
	p.depth--
	delete(p.expanding, name)
}

// parseContentFragment re-lexes raw -- an entity's declared replacement
// text -- as a standalone run of element content, appending whatever it
// produces as children of parentCtx's current parent. Elements opened
// within raw must also close within it: parentCtx's own open-element
// stack is never touched, so a reference that leaves something open, or
// a close tag with nothing of its own left to close, is caught as
// ErrUnexpectedEntityCloseTag.
func (p *parser) parseContentFragment(raw []byte, base int, parentCtx *buildCtx) {
	fragCtx := &buildCtx{baseParent: parentCtx.parent(), baseScope: parentCtx.scope()}
	lex := newLexerAt(raw, base)
	for {
		tok := lex.next()
		if tok.kind == tokEOF {
			break
		}
		p.cfg.debugf("xmltree: entity fragment token kind=%d at offset %d", tok.kind, tok.start)
		switch tok.kind {
		case tokText:
			p.emitContentText(tok.text, tok.start, fragCtx)
		case tokCDATA:
			p.emitCDATA(tok.text, tok.start, fragCtx)
		case tokComment:
			p.appendComment(tok.text, tok.start, fragCtx)
		case tokPI:
			p.appendPI(tok, fragCtx)
		case tokStartTag:
			p.processStartTag(tok, fragCtx)
		case tokEndTag:
			p.processEndTag(tok, fragCtx, ErrUnexpectedEntityCloseTag)
		case tokDoctype:
			abort(ErrParserError, tok.start, "document type declaration not allowed in entity replacement text")
		}
	}
	fragCtx.flushText(p)
	if !fragCtx.open.Empty() {
		abort(ErrUnexpectedEntityCloseTag, base+len(raw), "entity expansion left an element unclosed")
	}
}

func isAllWhitespace(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}

func (p *parser) handleTopLevelText(tok token) {
	if p.top.open.Empty() {
		if !isAllWhitespace(tok.text) {
			abort(ErrParserError, tok.start, "non-whitespace text outside the root element")
		}
		return
	}
	p.emitContentText(tok.text, tok.start, &p.top)
}

func (p *parser) handleTopLevelCDATA(tok token) {
	if p.top.open.Empty() {
		abort(ErrParserError, tok.start, "CDATA section outside the root element")
	}
	p.emitCDATA(tok.text, tok.start, &p.top)
}

func (p *parser) handleStartTag(tok token) {
	if p.top.open.Empty() {
		if p.rootSeen {
			abort(ErrParserError, tok.start, "multiple root elements")
		}
		p.rootSeen = true
		p.cfg.logf("xmltree: root element <%s> opened at offset %d", tok.name.qname(), tok.start)
	}
	p.processStartTag(tok, &p.top)
}

func (p *parser) handleEndTag(tok token) {
	p.processEndTag(tok, &p.top, ErrUnexpectedCloseTag)
	if p.top.open.Empty() {
		p.cfg.logf("xmltree: root element closed at offset %d", tok.start)
	}
}

// parseXMLDeclAttr extracts name="value" (or name='value') from an XML
// or text declaration's raw data bytes.
func parseXMLDeclAttr(data []byte, name string) (string, bool) {
	idx := indexFrom(data, name, 0)
	for idx >= 0 {
		pos := idx + len(name)
		pos = skipSpace(data, pos)
		if pos < len(data) && data[pos] == '=' {
			pos++
			pos = skipSpace(data, pos)
			if pos < len(data) && (data[pos] == '"' || data[pos] == '\'') {
				quote := data[pos]
				pos++
				start := pos
				for pos < len(data) && data[pos] != quote {
					pos++
				}
				if pos < len(data) {
					return string(data[start:pos]), true
				}
			}
		}
		idx = indexFrom(data, name, idx+1)
	}
	return "", false
}

func (p *parser) handleXMLDecl(tok token) {
	version, ok := parseXMLDeclAttr(tok.data, "version")
	if !ok || !strings.HasPrefix(version, "1.") {
		abort(ErrParserError, tok.dataOffset, "unsupported or missing XML declaration version")
	}
}

const utf8BOM = "\xEF\xBB\xBF"

// parseDocument is the top-level state machine: prolog (optional XML
// declaration, optional DOCTYPE, misc comments/PIs), exactly one root
// element, epilog (more misc comments/PIs). It is the only method that
// drives the lexer directly; everything else works in terms of tokens
// it hands off.
func (p *parser) parseDocument() {
	input := p.input
	bomLen := 0
	if len(input) >= len(utf8BOM) && string(input[:len(utf8BOM)]) == utf8BOM {
		bomLen = len(utf8BOM)
	}

	p.doc.nodes = append(p.doc.nodes, nodeData{
		kind: RootKind, parent: NoNode,
		firstChild: NoNode, lastChild: NoNode,
		prevSibling: NoNode, nextSibling: NoNode,
	})
	p.nodeCount++
	p.doc.stats.Nodes++

	lex := newLexerAt(input[bomLen:], bomLen)
	first := true

	for {
		tok := lex.next()
		if tok.kind == tokEOF {
			break
		}
		p.cfg.debugf("xmltree: token kind=%d at offset %d", tok.kind, tok.start)
		switch tok.kind {
		case tokPI:
			if first && strings.EqualFold(tok.target, "xml") {
				p.handleXMLDecl(tok)
			} else {
				p.appendPI(tok, &p.top)
			}
		case tokDoctype:
			if !p.cfg.allowDTD {
				abort(ErrDtdDetected, tok.start, "document type declaration found")
			}
			if p.rootSeen {
				abort(ErrParserError, tok.start, "unexpected document type declaration after root element")
			}
			p.cfg.logf("xmltree: document type declaration found at offset %d", tok.start)
			if tok.subset != nil {
				parseInternalSubset(tok.subset, tok.subsetOff, p.entities)
			}
		case tokComment:
			p.appendComment(tok.text, tok.start, &p.top)
		case tokText:
			p.handleTopLevelText(tok)
		case tokCDATA:
			p.handleTopLevelCDATA(tok)
		case tokStartTag:
			p.handleStartTag(tok)
		case tokEndTag:
			p.handleEndTag(tok)
		}
		first = false
	}

	p.top.flushText(p)
	if !p.top.open.Empty() {
		abort(ErrUnclosedRootNode, len(p.input), "unexpected end of input: root element not closed")
	}
	if !p.rootSeen {
		abort(ErrNoRootNode, 0, "no root element found")
	}
	p.cfg.logf("xmltree: finished parsing, %d nodes, %d attributes", p.nodeCount, p.doc.stats.Attributes)
}
