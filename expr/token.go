package expr

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokTrue
	tokFalse
	tokNull
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokComma
	tokColon
	tokSemi
	tokDot
	tokBang
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokEq       // =
	tokQEq      // ?=
	tokEqEq     // ==
	tokNotEq    // !=
	tokLt
	tokLe
	tokGt
	tokGe
	tokAnd // &
	tokOr  // |
)

type token struct {
	kind tokenKind
	text string
	num  float64
	isInt bool
	intv int64
}
