// Package token defines the lexical token kinds produced by internal/lexer
// and consumed by internal/parser.
package token

// Kind identifies a lexical token category.
type Kind int

const (
	EOF Kind = iota
	Ident
	IntConst
	CharConst

	KwInt
	KwChar
	KwVoid
	KwIf
	KwElse
	KwWhile
	KwReturn

	LBrace
	RBrace
	LParen
	RParen
	Comma
	Semi

	Assign // =
	PlusEq
	MinusEq
	StarEq
	SlashEq

	Plus
	Minus
	Star
	Slash
	Percent
	Bang

	EqEq
	NotEq
	Lt
	Gt
	LtEq
	GtEq

	Amp
	Pipe
	Caret
)

var names = map[Kind]string{
	EOF: "EOF", Ident: "identifier", IntConst: "integer constant", CharConst: "character constant",
	KwInt: "int", KwChar: "char", KwVoid: "void", KwIf: "if", KwElse: "else", KwWhile: "while", KwReturn: "return",
	LBrace: "{", RBrace: "}", LParen: "(", RParen: ")", Comma: ",", Semi: ";",
	Assign: "=", PlusEq: "+=", MinusEq: "-=", StarEq: "*=", SlashEq: "/=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%", Bang: "!",
	EqEq: "==", NotEq: "!=", Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=",
	Amp: "&", Pipe: "|", Caret: "^",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// Keywords maps reserved identifiers to their keyword kind.
var Keywords = map[string]Kind{
	"int": KwInt, "char": KwChar, "void": KwVoid,
	"if": KwIf, "else": KwElse, "while": KwWhile, "return": KwReturn,
}

// Token is one lexical unit: its kind, literal text, and source line.
type Token struct {
	Kind Kind
	Text string
	Line int
}
