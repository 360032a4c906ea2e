package xmltree

// A NodeID identifies a Node within a Document. NodeIDs are stable for
// the lifetime of the Document and are assigned in document order,
// starting at the Root node (ID 0).
type NodeID int32

// NoNode is the sentinel value for "no such node", used for parent
// links on the root, and for first/last/prev/next-sibling links that
// have no target.
const NoNode NodeID = -1

// An AttrID identifies an Attribute within a Document's attribute
// arena. AttrIDs are assigned in document order.
type AttrID int32

// NoAttr is the sentinel "absent attribute" value.
const NoAttr AttrID = -1

// A namespaceID indexes into Document.bindings.
type namespaceID int32

const noNamespace namespaceID = -1

// A Kind identifies the variant of a Node.
type Kind uint8

const (
	// RootKind is the kind of the single implicit document root; it has
	// no parent, and its children are the root Element plus any
	// top-level Comment/ProcessingInstruction nodes in the prolog and
	// epilog.
	RootKind Kind = iota
	ElementKind
	TextKind
	CommentKind
	ProcessingInstructionKind
)

func (k Kind) String() string {
	switch k {
	case RootKind:
		return "Root"
	case ElementKind:
		return "Element"
	case TextKind:
		return "Text"
	case CommentKind:
		return "Comment"
	case ProcessingInstructionKind:
		return "ProcessingInstruction"
	default:
		return "Invalid"
	}
}
