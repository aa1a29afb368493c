package expr

import "github.com/comalice/rfsm/value"

type nodeKind int

const (
	nLiteral nodeKind = iota
	nIdent
	nArray
	nMapLit
	nUnaryNot
	nBinary
	nAssign  // "="
	nDeclare // "?="
	nIndex
	nMember
	nCall
)

type node struct {
	kind nodeKind

	// nLiteral
	lit value.Data

	// nIdent, nMember (field)
	name string

	// nBinary / operator token kind for nBinary
	op tokenKind

	// generic children
	left  *node
	right *node
	args  []*node

	// nMapLit
	mapKeys []*node
	mapVals []*node
}
