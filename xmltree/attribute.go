package xmltree

// attrData is the arena representation of one attribute. Document.attrs
// is a flat []attrData indexed by AttrID; an element's attributes occupy
// a contiguous [attrStart, attrEnd) range within it.
type attrData struct {
	name   rawName
	uri    string
	hasURI bool
	value  stringValue
	pos    int // byte offset of the attribute name; 0 unless positions enabled
}

// An Attribute is a handle to one attribute of an element.
type Attribute struct {
	doc *Document
	id  AttrID
}

// ID returns the attribute's stable arena identifier.
func (a Attribute) ID() AttrID { return a.id }

// Prefix returns the attribute's namespace prefix, or "" if unprefixed.
func (a Attribute) Prefix() string { return a.doc.attrs[a.id].name.prefix }

// LocalName returns the attribute's local name, without its prefix.
func (a Attribute) LocalName() string { return a.doc.attrs[a.id].name.local }

// Name returns the attribute's qualified name as it appeared in the
// source ("prefix:local", or just "local" when unprefixed).
func (a Attribute) Name() string { return a.doc.attrs[a.id].name.qname() }

// Namespace returns the attribute's resolved namespace URI and whether
// it has one. An unprefixed attribute never has one, per namespaces-in-XML.
func (a Attribute) Namespace() (string, bool) {
	d := a.doc.attrs[a.id]
	return d.uri, d.hasURI
}

// Value returns the attribute's value after entity expansion and
// whitespace normalization.
func (a Attribute) Value() string { return a.doc.attrs[a.id].value.text }

// Position returns the byte offset of the attribute name within the
// original input. Only meaningful when the Document was parsed with
// WithPositions(true); otherwise it is always 0.
func (a Attribute) Position() int { return a.doc.attrs[a.id].pos }
