package grammar

import "github.com/alecthomas/participle/v2/lexer"

// cypherLexer tokenizes the supported Cypher subset. Keywords are not a
// separate token class: they lex as Ident, the same as any other name,
// and the grammar's literal struct tags (`"MATCH"`, `"COUNT"`, ...) match
// them by value rather than by token type. That's what lets a rule like
// FunctionCall's `@Ident (Dot @Ident)*` capture a keyword used as a
// function name (`count(n)`) — a dedicated Keyword class would shadow
// Ident before that capture ever saw the token. Operators/punctuation get
// their own token set, since a single-char Punct class can't disambiguate
// `<=` from `<` followed by `=`, and relationship arrows need distinct
// Less/Greater/Minus tokens.
var cypherLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "LineComment", Pattern: `//[^\r\n]*`},

	{Name: "NotEqual", Pattern: `<>`},
	{Name: "LessEqual", Pattern: `<=`},
	{Name: "GreaterEqual", Pattern: `>=`},
	{Name: "AddAssign", Pattern: `\+=`},
	{Name: "Range", Pattern: `\.\.`},
	{Name: "RegexMatch", Pattern: `=~`},

	{Name: "Eq", Pattern: `=`},
	{Name: "Less", Pattern: `<`},
	{Name: "Greater", Pattern: `>`},
	{Name: "Plus", Pattern: `\+`},
	{Name: "Minus", Pattern: `-`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Slash", Pattern: `/`},
	{Name: "Percent", Pattern: `%`},
	{Name: "Caret", Pattern: `\^`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Pipe", Pattern: `\|`},
	{Name: "Dollar", Pattern: `\$`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},

	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`},
	{Name: "Float", Pattern: `\d+\.\d+([eE][+-]?\d+)?|\d+[eE][+-]?\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})
