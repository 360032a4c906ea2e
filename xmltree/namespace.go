package xmltree

const (
	xmlNamespaceURI   = "http://www.w3.org/XML/1998/namespace"
	xmlnsNamespaceURI = "http://www.w3.org/2000/xmlns/"
)

// nsBinding is one prefix->URI binding stored in Document.bindings. The
// empty prefix denotes the default namespace.
type nsBinding struct {
	prefix string
	uri    string
}

// nsScope is the set of bindings in effect at some point in the tree,
// built by copying the parent element's scope and shadowing it with any
// xmlns/xmlns:* declarations found on the current element. It is kept
// as an ordinary Go slice while descending the tree (no Document access
// needed to resolve a name against it); a copy of the finished slice is
// appended to Document.bindings so Node.Namespaces can read it back
// later without re-walking ancestors.
type nsScope []nsBinding

func (s nsScope) resolve(prefix string) (string, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].prefix == prefix {
			return s[i].uri, true
		}
	}
	if prefix == "xml" {
		return xmlNamespaceURI, true
	}
	return "", false
}

// shadow returns a scope equal to s but with prefix bound to uri,
// replacing any existing binding for that prefix. s is never mutated.
func (s nsScope) shadow(prefix, uri string) nsScope {
	out := make(nsScope, len(s))
	copy(out, s)
	for i := range out {
		if out[i].prefix == prefix {
			out[i].uri = uri
			return out
		}
	}
	return append(out, nsBinding{prefix: prefix, uri: uri})
}

// declPrefix splits a raw attribute name into (isNamespaceDecl, declared
// prefix) -- "xmlns" declares the default namespace (declared prefix
// ""), "xmlns:foo" declares "foo". Any other attribute name is not a
// namespace declaration.
func declPrefix(name rawName) (isDecl bool, declared string) {
	if name.prefix == "" && name.local == "xmlns" {
		return true, ""
	}
	if name.prefix == "xmlns" {
		return true, name.local
	}
	return false, ""
}

// buildElementScope resolves every xmlns/xmlns:* attribute on a start
// tag against parent (the enclosing element's scope, or an empty scope
// at the document root) and returns the scope in effect for the new
// element along with the indices, within attrs, of the attributes that
// were namespace declarations (so the builder can exclude them from
// the element's regular Attribute list -- a bound xmlns declaration is
// not itself one of the element's attributes in this model, matching
// how Scope.Namespaces worked in the pointer-tree predecessor of this
// package).
func buildElementScope(parent nsScope, attrs []resolvedAttr, elemPos int) (scope nsScope, declIdx map[int]bool) {
	scope = parent
	declaredHere := make(map[string]bool)
	declIdx = make(map[int]bool)
	for i, a := range attrs {
		isDecl, declared := declPrefix(a.name)
		if !isDecl {
			continue
		}
		declIdx[i] = true
		if declaredHere[declared] {
			abort(ErrDuplicatedNamespace, a.pos, "duplicated namespace declaration for prefix "+declared)
		}
		declaredHere[declared] = true
		uri := a.value
		if declared == "xml" && uri != xmlNamespaceURI {
			abort(ErrInvalidXmlPrefixURI, a.pos, "the 'xml' prefix must be bound to "+xmlNamespaceURI)
		}
		if uri == xmlnsNamespaceURI {
			abort(ErrUnexpectedXmlnsURI, a.pos, "the xmlns namespace URI cannot be bound to a prefix")
		}
		if declared == "xmlns" {
			abort(ErrUnexpectedXmlnsURI, a.pos, "the 'xmlns' prefix is reserved and cannot be declared")
		}
		scope = scope.shadow(declared, uri)
	}
	return scope, declIdx
}

// resolveElementName resolves a start or end tag's (possibly prefixed)
// name against scope, following the namespaces-in-XML rule that an
// unprefixed element name takes the scope's default namespace (which
// may be absent).
func resolveElementName(scope nsScope, name rawName, pos int) (uri string, hasURI bool) {
	if name.prefix == "" {
		uri, hasURI = scope.resolve("")
		return uri, hasURI
	}
	if name.prefix == "xmlns" {
		abort(ErrInvalidElementNamePrefix, pos, "'xmlns' cannot be used as an element name prefix")
	}
	uri, ok := scope.resolve(name.prefix)
	if !ok {
		abort(ErrUnknownNamespace, pos, "unknown namespace prefix "+name.prefix)
	}
	return uri, true
}

// resolveAttrName resolves a (possibly prefixed) attribute name against
// scope. Per namespaces-in-XML, an unprefixed attribute is never in any
// namespace, even when a default namespace is in scope.
func resolveAttrName(scope nsScope, name rawName, pos int) (uri string, hasURI bool) {
	if name.prefix == "" {
		return "", false
	}
	if name.prefix == "xml" {
		return xmlNamespaceURI, true
	}
	uri, ok := scope.resolve(name.prefix)
	if !ok {
		abort(ErrUnknownNamespace, pos, "unknown namespace prefix "+name.prefix)
	}
	return uri, true
}
