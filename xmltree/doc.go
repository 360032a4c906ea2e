// Package xmltree builds a read-only, in-memory tree from a complete XML
// 1.0 document held in a single buffer.
//
// Parse consumes the document once and returns a Document: an immutable,
// arena-backed tree that callers may query freely and share across
// goroutines without locking. The package targets "parse once, query
// many times": all work happens in Parse, and queries only read the
// arena. String values are Go strings copied out of the input during
// Parse, including those that needed no normalization;
// Document.Stats reports how many were taken verbatim from the input
// and how many had to be rebuilt.
//
// The tree itself has no mutation API; callers that need to transform or
// re-serialize a document should build that on top of the accessors
// exposed on Document, Node and Attribute.
package xmltree // import "github.com/nyxtree/go-xml/xmltree"
