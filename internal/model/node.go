package model

import "github.com/iliakonnov/shatterbird/internal/ids"

// NodeKind discriminates the four shapes a Node's content can take. It mirrors
// the LSIF vertex/edge discriminant idiom from spec §9: one tag field selects
// which of the variant's payload fields below is populated.
type NodeKind string

const (
	NodeSymlink   NodeKind = "symlink"
	NodeDirectory NodeKind = "directory"
	NodeText      NodeKind = "text"
	NodeBlob      NodeKind = "blob"
)

// SymlinkContent is a Node.Content variant for symbolic links.
type SymlinkContent struct {
	Target string `bson:"target"`
}

// DirectoryContent is a Node.Content variant for tree objects. Child names are
// unique within a single Directory.
type DirectoryContent struct {
	Children map[string]ids.Id[Node] `bson:"children"`
}

// TextContent is a Node.Content variant for blobs that parsed as UTF-8 text.
type TextContent struct {
	Size  uint64         `bson:"size"`
	Lines []ids.Id[Line] `bson:"lines"`
}

// BlobContent is a Node.Content variant for blobs that did not parse as text.
type BlobContent struct {
	Size    uint64           `bson:"size"`
	Content ids.Id[BlobFile] `bson:"content"`
}

// NodeContent is the tagged union of the four Node payload shapes. Exactly one
// of the pointer fields matching Kind is non-nil; the rest are nil.
type NodeContent struct {
	Kind      NodeKind          `bson:"kind"`
	Symlink   *SymlinkContent   `bson:"symlink,omitempty"`
	Directory *DirectoryContent `bson:"directory,omitempty"`
	Text      *TextContent      `bson:"text,omitempty"`
	Blob      *BlobContent      `bson:"blob,omitempty"`
}

func NewSymlinkContent(target string) NodeContent {
	return NodeContent{Kind: NodeSymlink, Symlink: &SymlinkContent{Target: target}}
}

func NewDirectoryContent(children map[string]ids.Id[Node]) NodeContent {
	return NodeContent{Kind: NodeDirectory, Directory: &DirectoryContent{Children: children}}
}

func NewTextContent(size uint64, lines []ids.Id[Line]) NodeContent {
	return NodeContent{Kind: NodeText, Text: &TextContent{Size: size, Lines: lines}}
}

func NewBlobContent(size uint64, content ids.Id[BlobFile]) NodeContent {
	return NodeContent{Kind: NodeBlob, Blob: &BlobContent{Size: size, Content: content}}
}

// Node is a single Git tree/blob object, content-addressed by its Git oid (I1).
type Node struct {
	Id      ids.Id[Node] `bson:"_id"`
	OID     ids.OID      `bson:"oid"`
	Content NodeContent  `bson:"content"`
}

func (Node) CollectionName() string { return "nodes" }

// OIDValue implements storeapi.WithOID.
func (n Node) OIDValue() ids.OID { return n.OID }

// IdValue implements storeapi.Entity.
func (n Node) IdValue() ids.Id[Node] { return n.Id }
