package xmltree

// invalidNodeData is returned by Document.data for NoNode and any other
// out-of-range NodeID, so that Node accessors can be chained off the
// zero Node (as returned by Parent(), NextSibling(), and so on) without
// a nil check at every call site -- every link on it is itself NoNode.
var invalidNodeData = nodeData{
	parent:      NoNode,
	firstChild:  NoNode,
	lastChild:   NoNode,
	prevSibling: NoNode,
	nextSibling: NoNode,
}

// A Document is the result of a successful Parse: an immutable,
// arena-backed tree plus the original input it was built from. A
// Document and every Node/Attribute derived from it are safe for
// concurrent read access from multiple goroutines, since nothing in
// this package ever mutates a Document after Parse returns it.
type Document struct {
	input    []byte
	nodes    []nodeData
	attrs    []attrData
	bindings []nsBinding
	cfg      *Config
	stats    Stats
}

// Stats reports a few counters gathered while building a Document,
// useful for diagnosing Parse's behavior on a particular input without
// re-walking the tree.
type Stats struct {
	Nodes             int
	Attributes        int
	NamespaceBindings int
	EntitiesExpanded  int
	MaxEntityDepth    int

	// BorrowedValues and OwnedValues count, respectively, how many
	// Comment/ProcessingInstruction/Attribute values were taken
	// verbatim from the input versus how many had to be rebuilt
	// (entity expansion, character references, or whitespace
	// normalization changed the bytes). Text node values are
	// assembled in a buffer and are always counted as owned. See
	// the "Borrow vs. own" design note in SPEC_FULL.md.
	BorrowedValues int
	OwnedValues    int
}

// recordValue tallies v's borrow-or-allocate outcome into d.stats and
// returns v unchanged, so call sites can wrap a value constructor in
// place: `nd.value = d.recordValue(borrowed(s))`.
func (d *Document) recordValue(v stringValue) stringValue {
	if v.owned {
		d.stats.OwnedValues++
	} else {
		d.stats.BorrowedValues++
	}
	return v
}

// Parse builds a Document from a complete XML 1.0 document held in doc.
// doc is retained by the returned Document (InputText returns it) and
// must not be modified afterward. Node and Attribute values are copies
// made during Parse, not views into doc.
func Parse(doc []byte, opts ...Option) (_ *Document, err error) {
	defer recoverError(&err)
	cfg := newConfig(opts)
	p := newParser(doc, cfg)
	p.parseDocument()
	return p.doc, nil
}

func (d *Document) data(id NodeID) *nodeData {
	if id < 0 || int(id) >= len(d.nodes) {
		return &invalidNodeData
	}
	return &d.nodes[id]
}

func (d *Document) node(id NodeID) Node {
	return Node{doc: d, id: id}
}

// Root returns the implicit document root, whose children are the
// single root Element plus any Comment or ProcessingInstruction nodes
// that appeared in the prolog or epilog.
func (d *Document) Root() Node { return d.node(0) }

// RootElement returns the document's single root element.
func (d *Document) RootElement() Node {
	for c := d.Root().FirstChild(); c.valid(); c = c.NextSibling() {
		if c.Kind() == ElementKind {
			return c
		}
	}
	return Node{}
}

// Node looks up a node by its stable ID.
func (d *Document) Node(id NodeID) Node { return d.node(id) }

// InputText returns the exact bytes Parse was given.
func (d *Document) InputText() []byte { return d.input }

// TextPosAt converts a byte offset into the original input (as found on
// a Node or Attribute parsed with WithPositions(true)) into a 1-based
// (line, column) pair. Column counts bytes, not runes; a tab counts as
// one column.
func (d *Document) TextPosAt(offset int) (line, column int) {
	return textPosAt(d.input, offset)
}

// Stats reports node/attribute/namespace counts and entity-expansion
// activity gathered while parsing.
func (d *Document) Stats() Stats { return d.stats }
