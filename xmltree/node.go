package xmltree

import "strings"

// nodeData is the arena representation of one node. Document.nodes is a
// flat []nodeData; a Node value is just a (*Document, NodeID) pair, so
// copying a Node around is as cheap as copying two words.
type nodeData struct {
	kind Kind

	parent, firstChild, lastChild, prevSibling, nextSibling NodeID

	// Element
	name      rawName
	uri       string
	hasURI    bool
	attrStart AttrID
	attrEnd   AttrID
	nsStart   int32
	nsEnd     int32

	// Text, Comment
	value stringValue

	// ProcessingInstruction
	piTarget string
	piData   stringValue

	pos int // byte offset in Document.input; meaningful only if Config.positions
}

// A Node is a handle to one node of a Document: the Root, an Element, a
// Text run, a Comment, or a ProcessingInstruction. Nodes are small
// value types, safe to pass around and compare with ==, and remain
// valid for the lifetime of the Document that produced them.
type Node struct {
	doc *Document
	id  NodeID
}

// ID returns the node's stable, document-order identifier.
func (n Node) ID() NodeID { return n.id }

// Kind reports which variant of node this is.
func (n Node) Kind() Kind { return n.doc.data(n.id).kind }

// Document returns the Document this node belongs to.
func (n Node) Document() *Document { return n.doc }

func (n Node) valid() bool { return n.doc != nil && n.id != NoNode }

// Parent returns the node's parent, or the zero Node if n is the Root.
func (n Node) Parent() Node { return n.doc.node(n.doc.data(n.id).parent) }

// FirstChild returns the node's first child, or the zero Node if it has none.
func (n Node) FirstChild() Node { return n.doc.node(n.doc.data(n.id).firstChild) }

// LastChild returns the node's last child, or the zero Node if it has none.
func (n Node) LastChild() Node { return n.doc.node(n.doc.data(n.id).lastChild) }

// PrevSibling returns the previous sibling, or the zero Node if there is none.
func (n Node) PrevSibling() Node { return n.doc.node(n.doc.data(n.id).prevSibling) }

// NextSibling returns the next sibling, or the zero Node if there is none.
func (n Node) NextSibling() Node { return n.doc.node(n.doc.data(n.id).nextSibling) }

// Children returns the node's direct children in document order.
func (n Node) Children() []Node {
	var out []Node
	for c := n.FirstChild(); c.valid(); c = c.NextSibling() {
		out = append(out, c)
	}
	return out
}

// ChildElements returns the node's direct Element children in document order.
func (n Node) ChildElements() []Node {
	var out []Node
	for c := n.FirstChild(); c.valid(); c = c.NextSibling() {
		if c.Kind() == ElementKind {
			out = append(out, c)
		}
	}
	return out
}

// Position returns the byte offset of this node's start within the
// original input. Only meaningful when the Document was parsed with
// WithPositions(true); otherwise it is always 0.
func (n Node) Position() int { return n.doc.data(n.id).pos }

// NamePrefix returns the element's namespace prefix, or "" for an
// unprefixed name. Only meaningful on an ElementKind node.
func (n Node) NamePrefix() string { return n.doc.data(n.id).name.prefix }

// LocalName returns the element's local name, without its prefix. Only
// meaningful on an ElementKind node.
func (n Node) LocalName() string { return n.doc.data(n.id).name.local }

// Namespace returns the element's resolved namespace URI and whether it
// has one. Only meaningful on an ElementKind node.
func (n Node) Namespace() (string, bool) {
	d := n.doc.data(n.id)
	return d.uri, d.hasURI
}

// Is reports whether this is an Element with local name local and, if
// uri is non-empty, resolved namespace uri. Passing an empty uri
// matches any namespace (including none).
func (n Node) Is(uri, local string) bool {
	d := n.doc.data(n.id)
	if d.kind != ElementKind || d.name.local != local {
		return false
	}
	if uri == "" {
		return true
	}
	return d.hasURI && d.uri == uri
}

// Tag returns the element's qualified name as it appeared in the
// source ("prefix:local", or just "local" when unprefixed). Only
// meaningful on an ElementKind node.
func (n Node) Tag() string { return n.doc.data(n.id).name.qname() }

// Target returns a processing instruction's target. Only meaningful on
// a ProcessingInstructionKind node.
func (n Node) Target() string { return n.doc.data(n.id).piTarget }

// Text returns the decoded character data of a Text or Comment node, or
// the data of a ProcessingInstruction. For any other kind it returns "".
func (n Node) Text() string {
	d := n.doc.data(n.id)
	switch d.kind {
	case TextKind, CommentKind:
		return d.value.text
	case ProcessingInstructionKind:
		return d.piData.text
	default:
		return ""
	}
}

// TextContent concatenates the text of all Text descendants of n, in
// document order, skipping comments and processing instructions. This
// is the closest analogue to DOM's Node.textContent.
func (n Node) TextContent() string {
	var out []byte
	var walk func(Node)
	walk = func(cur Node) {
		for c := cur.FirstChild(); c.valid(); c = c.NextSibling() {
			switch c.Kind() {
			case TextKind:
				out = append(out, c.Text()...)
			case ElementKind:
				walk(c)
			}
		}
	}
	walk(n)
	return string(out)
}

// Attributes returns the element's attributes in document order. Only
// meaningful on an ElementKind node.
func (n Node) Attributes() []Attribute {
	d := n.doc.data(n.id)
	if d.attrStart == d.attrEnd {
		return nil
	}
	out := make([]Attribute, 0, int(d.attrEnd-d.attrStart))
	for id := d.attrStart; id < d.attrEnd; id++ {
		out = append(out, Attribute{doc: n.doc, id: id})
	}
	return out
}

// Attr returns the attribute with the given resolved namespace URI (""
// for an unprefixed attribute, which is never in any namespace) and
// local name, and whether it was found.
func (n Node) Attr(uri, local string) (Attribute, bool) {
	d := n.doc.data(n.id)
	for id := d.attrStart; id < d.attrEnd; id++ {
		a := n.doc.attrs[id]
		if a.name.local != local {
			continue
		}
		if uri == "" {
			if !a.hasURI {
				return Attribute{doc: n.doc, id: id}, true
			}
			continue
		}
		if a.hasURI && a.uri == uri {
			return Attribute{doc: n.doc, id: id}, true
		}
	}
	return Attribute{}, false
}

// Namespace bindings in scope, in document order. in-scope namespaces
// accumulate down the tree; Namespaces returns every binding visible at
// n, including those declared on ancestors.
type Namespace struct {
	Prefix string
	URI    string
}

// Namespaces returns the namespace bindings in scope at n. Only
// meaningful on an ElementKind node: the Root and
// Text/Comment/ProcessingInstruction nodes carry no bindings of their
// own and return nil.
func (n Node) Namespaces() []Namespace {
	d := n.doc.data(n.id)
	if d.nsStart == d.nsEnd {
		return nil
	}
	out := make([]Namespace, 0, d.nsEnd-d.nsStart)
	for i := d.nsStart; i < d.nsEnd; i++ {
		b := n.doc.bindings[i]
		out = append(out, Namespace{Prefix: b.prefix, URI: b.uri})
	}
	return out
}

// ResolveNamespace looks up prefix ("" for the default namespace)
// against the bindings in scope at n, the same resolution builder.go
// used while parsing.
func (n Node) ResolveNamespace(prefix string) (string, bool) {
	d := n.doc.data(n.id)
	scope := n.doc.bindings[d.nsStart:d.nsEnd]
	for i := len(scope) - 1; i >= 0; i-- {
		if scope[i].prefix == prefix {
			return scope[i].uri, true
		}
	}
	if prefix == "xml" {
		return xmlNamespaceURI, true
	}
	return "", false
}

// ResolveQName translates a (possibly prefixed) QName string, such as
// one found in an attribute value of an XSD or WSDL document, against
// the namespace bindings in scope at n. If qname has no prefix, the
// default namespace in scope is used. ok is false when qname's prefix
// has no binding in scope; space is then the unresolved prefix itself,
// mirroring how Scope.ResolveNS behaved in the pointer-tree predecessor
// of this package.
func (n Node) ResolveQName(qname string) (space, local string, ok bool) {
	prefix := ""
	rest := qname
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		prefix, rest = qname[:i], qname[i+1:]
	}
	uri, found := n.ResolveNamespace(prefix)
	if !found {
		return prefix, rest, false
	}
	return uri, rest, true
}

// Prefix is the inverse of ResolveQName: given a resolved namespace URI
// and local name, it returns the qualified "prefix:local" form using
// whichever prefix is bound to uri in scope at n, or just local if uri
// is empty or unbound.
func (n Node) Prefix(uri, local string) string {
	if uri == "" {
		return local
	}
	d := n.doc.data(n.id)
	scope := n.doc.bindings[d.nsStart:d.nsEnd]
	for i := len(scope) - 1; i >= 0; i-- {
		if scope[i].uri == uri {
			if scope[i].prefix == "" {
				return local
			}
			return scope[i].prefix + ":" + local
		}
	}
	return local
}
