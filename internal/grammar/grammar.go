// Package grammar declares the concrete parse-tree grammar for the
// supported Cypher subset and builds the participle parser from it. Apart
// from the parser construction and its Parse entry point, this file is
// data: struct types and their grammar tags.
//
// Types here are a *parse tree*, distinct from internal/ast's typed AST,
// bridged by a single conversion step (internal/ast.Build).
package grammar

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Script is the root of every parse.
type Script struct {
	Pos   lexer.Position
	Query *Query `@@`
}

// Query is a SingleQuery optionally followed by UNION branches.
type Query struct {
	Pos    lexer.Position
	Single *SingleQuery   `@@`
	Unions []*UnionClause `@@*`
}

// UnionClause is UNION [ALL] SingleQuery.
type UnionClause struct {
	Pos    lexer.Position
	All    bool         `"UNION" @"ALL"?`
	Single *SingleQuery `@@`
}

// SingleQuery is one or more clauses.
type SingleQuery struct {
	Pos     lexer.Position
	Clauses []*Clause `@@+`
}

// Clause dispatches on the clause keyword: a closed union of optional
// pointer fields, exactly one of which is non-nil.
type Clause struct {
	Pos      lexer.Position
	Match    *MatchClause  `  @@`
	Unwind   *UnwindClause `| @@`
	Call     *CallClause   `| @@`
	Create   *CreateClause `| @@`
	Merge    *MergeClause  `| @@`
	Delete   *DeleteClause `| @@`
	Set      *SetClause    `| @@`
	Remove   *RemoveClause `| @@`
	With     *WithClause   `| @@`
	Return   *ReturnClause `| @@`
}

// MatchClause is [OPTIONAL] MATCH pattern [WHERE expr].
type MatchClause struct {
	Pos      lexer.Position
	Optional bool       `@"OPTIONAL"?`
	Patterns []*Pattern `"MATCH" @@ ( Comma @@ )*`
	Where    *Where     `@@?`
}

// UnwindClause is UNWIND expr AS ident.
type UnwindClause struct {
	Pos    lexer.Position
	Expr   *Expression `"UNWIND" @@`
	As     string      `"AS" @Ident`
}

// CallClause is CALL name(args) [YIELD item, ...].
type CallClause struct {
	Pos       lexer.Position
	Procedure *InvocationName `"CALL" @@`
	Args      *ParenExprList  `@@?`
	Yield     []*YieldItem    `( "YIELD" @@ ( Comma @@ )* )?`
}

// YieldItem is a single CALL ... YIELD projection.
type YieldItem struct {
	Pos  lexer.Position
	Name string `@Ident`
}

// ReturnClause is RETURN body.
type ReturnClause struct {
	Pos  lexer.Position
	Body *ProjectionBody `"RETURN" @@`
}

// WithClause is WITH body [WHERE expr] — the post-predicate becomes HAVING.
type WithClause struct {
	Pos   lexer.Position
	Body  *ProjectionBody `"WITH" @@`
	Where *Where          `@@?`
}

// ProjectionBody is shared by RETURN and WITH.
type ProjectionBody struct {
	Pos      lexer.Position
	Distinct bool             `@"DISTINCT"?`
	Items    *ProjectionItems `@@`
	Order    *OrderBy         `@@?`
	Skip     *SkipClause      `@@?`
	Limit    *LimitClause     `@@?`
}

// ProjectionItems is `*` or a comma-separated projection list.
type ProjectionItems struct {
	Pos   lexer.Position
	Star  bool              `  @Star`
	Items []*ProjectionItem `| @@ ( Comma @@ )*`
}

// ProjectionItem is expr [AS alias].
type ProjectionItem struct {
	Pos   lexer.Position
	Expr  *Expression `@@`
	Alias string      `( "AS" @Ident )?`
}

// OrderBy is ORDER BY item, item, ...
type OrderBy struct {
	Pos   lexer.Position
	Items []*OrderItem `"ORDER" "BY" @@ ( Comma @@ )*`
}

// OrderItem is expr [ASC|DESC].
type OrderItem struct {
	Pos  lexer.Position
	Expr *Expression `@@`
	Desc bool         `( @( "DESC" | "DESCENDING" ) | ( "ASC" | "ASCENDING" ) )?`
}

// SkipClause is SKIP expr.
type SkipClause struct {
	Pos  lexer.Position
	Expr *Expression `"SKIP" @@`
}

// LimitClause is LIMIT expr.
type LimitClause struct {
	Pos  lexer.Position
	Expr *Expression `"LIMIT" @@`
}

// Where is WHERE expr.
type Where struct {
	Pos  lexer.Position
	Expr *Expression `"WHERE" @@`
}

// CreateClause is CREATE pattern, pattern, ...
type CreateClause struct {
	Pos      lexer.Position
	Patterns []*Pattern `"CREATE" @@ ( Comma @@ )*`
}

// MergeClause is MERGE pattern [ON MATCH SET ...] [ON CREATE SET ...]*.
type MergeClause struct {
	Pos     lexer.Position
	Pattern *Pattern       `"MERGE" @@`
	Actions []*MergeAction `@@*`
}

// MergeAction is ON MATCH|CREATE SET ...
type MergeAction struct {
	Pos      lexer.Position
	OnMatch  bool       `"ON" ( @"MATCH"`
	OnCreate bool       `     | @"CREATE" )`
	Set      *SetClause `@@`
}

// DeleteClause is [DETACH] DELETE expr, expr, ...
type DeleteClause struct {
	Pos    lexer.Position
	Detach bool          `@"DETACH"?`
	Exprs  []*Expression `"DELETE" @@ ( Comma @@ )*`
}

// SetClause is SET item, item, ...
type SetClause struct {
	Pos   lexer.Position
	Items []*SetItem `"SET" @@ ( Comma @@ )*`
}

// SetItem covers the three SET forms: property assignment (v.k = e),
// variable merge/replace (v += map / v = map), and label assignment (v:Label).
// The ambiguity between forms is resolved left-to-right by participle's
// ordered alternation, the same way scaf's dialects/cypher/grammar.SetItem
// disambiguates them.
type SetItem struct {
	Pos lexer.Position

	PropertyVar   string      `( ( @Ident Dot ) `
	PropertyKey   string      `    @Ident Eq`
	PropertyValue *Expression `    @@ )`

	MergeVar   string      `| ( @Ident`
	MergeOp    bool        `    ( @AddAssign`
	ReplaceOp  bool        `    | @Eq )`
	MergeValue *Expression `    @@ )`

	LabelVar    string      `| ( @Ident`
	LabelLabels *NodeLabels `    @@ )`
}

// RemoveClause is REMOVE item, item, ...
type RemoveClause struct {
	Pos   lexer.Position
	Items []*RemoveItem `"REMOVE" @@ ( Comma @@ )*`
}

// RemoveItem is v.k (property) or v:Label (label).
type RemoveItem struct {
	Pos      lexer.Position
	Variable string      `@Ident`
	Property string      `( Dot @Ident`
	Labels   *NodeLabels `| @@ )`
}

// ----------------------------------------------------------------------
// Patterns
// ----------------------------------------------------------------------

// Pattern is an optional path variable bound to an alternating chain of
// node/relationship patterns.
type Pattern struct {
	Pos      lexer.Position
	Variable string               `( @Ident Eq )?`
	Node     *NodePattern         `@@`
	Chain    []*PatternElemChain  `@@*`
}

// PatternElemChain is one relationship + node hop.
type PatternElemChain struct {
	Pos          lexer.Position
	Relationship *RelationshipPattern `@@`
	Node         *NodePattern         `@@`
}

// NodePattern is (variable? labels? properties?).
type NodePattern struct {
	Pos        lexer.Position
	Variable   string      `LParen @Ident?`
	Labels     *NodeLabels `@@?`
	Properties *Properties `@@? RParen`
}

// NodeLabels is a sequence of :Label.
type NodeLabels struct {
	Pos    lexer.Position
	Labels []string `( Colon @Ident )+`
}

// Properties is a map literal or a parameter standing in for one.
type Properties struct {
	Pos   lexer.Position
	Map   *MapLiteral `  @@`
	Param *Parameter  `| @@`
}

// RelationshipPattern is -[detail]-> / <-[detail]- / -[detail]-.
type RelationshipPattern struct {
	Pos        lexer.Position
	LeftArrow  bool                `@Less? Minus`
	Detail     *RelationshipDetail `( LBracket @@ RBracket )?`
	RightArrow bool                `Minus @Greater?`
}

// RelationshipDetail is the content inside relationship brackets.
type RelationshipDetail struct {
	Pos        lexer.Position
	Variable   string             `@Ident?`
	Types      *RelationshipTypes `@@?`
	Range      *RangeLiteral      `@@?`
	Properties *Properties        `@@?`
}

// RelationshipTypes is :TYPE|TYPE|...
type RelationshipTypes struct {
	Pos   lexer.Position
	Types []string `Colon @Ident ( Pipe Colon? @Ident )*`
}

// RangeLiteral is *min..max for variable-length relationships.
type RangeLiteral struct {
	Pos   lexer.Position
	Star  string `@Star`
	Min   *int   `@Int?`
	Range bool   `@Range?`
	Max   *int   `@Int?`
}

// ----------------------------------------------------------------------
// Expressions — precedence climb, lowest to highest:
// OR, XOR, AND, NOT, comparison, +/-, * / %, ^, unary, postfix, atom.
// ----------------------------------------------------------------------

type Expression struct {
	Pos   lexer.Position
	Left  *XorExpr  `@@`
	Right []*OrTerm `@@*`
}

type OrTerm struct {
	Pos  lexer.Position
	Expr *XorExpr `"OR" @@`
}

type XorExpr struct {
	Pos   lexer.Position
	Left  *AndExpr   `@@`
	Right []*XorTerm `@@*`
}

type XorTerm struct {
	Pos  lexer.Position
	Expr *AndExpr `"XOR" @@`
}

type AndExpr struct {
	Pos   lexer.Position
	Left  *NotExpr   `@@`
	Right []*AndTerm `@@*`
}

type AndTerm struct {
	Pos  lexer.Position
	Expr *NotExpr `"AND" @@`
}

type NotExpr struct {
	Pos  lexer.Position
	Not  bool            `@"NOT"?`
	Expr *ComparisonExpr `@@`
}

// ComparisonExpr handles both binary comparisons and the arity-1 postfix
// forms (IS NULL / IS NOT NULL), which the AST builder must distinguish
// from binary ComparisonOp nodes.
type ComparisonExpr struct {
	Pos   lexer.Position
	Left  *AddSubExpr       `@@`
	Right []*ComparisonTerm `@@*`
}

type ComparisonTerm struct {
	Pos        lexer.Position
	Binary     *BinaryComparison `  @@`
	IsNull     *IsNullSuffix     `| @@`
	In         *InSuffix         `| @@`
	Regex      *RegexSuffix      `| @@`
	StringPred *StringPredSuffix `| @@`
}

// BinaryComparison is op right for =, <>, <, >, <=, >=.
type BinaryComparison struct {
	Pos  lexer.Position
	Op   string      `@( NotEqual | LessEqual | GreaterEqual | Eq | Less | Greater )`
	Expr *AddSubExpr `@@`
}

// InSuffix is IN expr.
type InSuffix struct {
	Pos  lexer.Position
	Expr *AddSubExpr `"IN" @@`
}

// RegexSuffix is =~ expr.
type RegexSuffix struct {
	Pos  lexer.Position
	Expr *AddSubExpr `RegexMatch @@`
}

// IsNullSuffix is IS [NOT] NULL.
type IsNullSuffix struct {
	Pos  lexer.Position
	Not  bool `"IS" @"NOT"?`
	Null bool `@"NULL"`
}

// StringPredSuffix is STARTS WITH / ENDS WITH / CONTAINS.
type StringPredSuffix struct {
	Pos        lexer.Position
	StartsWith *AddSubExpr `  "STARTS" "WITH" @@`
	EndsWith   *AddSubExpr `| "ENDS" "WITH" @@`
	Contains   *AddSubExpr `| "CONTAINS" @@`
}

type AddSubExpr struct {
	Pos   lexer.Position
	Left  *MultDivExpr  `@@`
	Right []*AddSubTerm `@@*`
}

type AddSubTerm struct {
	Pos  lexer.Position
	Op   string       `@( Plus | Minus )`
	Expr *MultDivExpr `@@`
}

type MultDivExpr struct {
	Pos   lexer.Position
	Left  *PowerExpr     `@@`
	Right []*MultDivTerm `@@*`
}

type MultDivTerm struct {
	Pos  lexer.Position
	Op   string     `@( Star | Slash | Percent )`
	Expr *PowerExpr `@@`
}

type PowerExpr struct {
	Pos   lexer.Position
	Left  *UnaryExpr   `@@`
	Right []*PowerTerm `@@*`
}

type PowerTerm struct {
	Pos  lexer.Position
	Expr *UnaryExpr `Caret @@`
}

type UnaryExpr struct {
	Pos  lexer.Position
	Op   string       `@( Plus | Minus )?`
	Expr *PostfixExpr `@@`
}

// PostfixExpr handles property access and indexing chained onto an atom.
type PostfixExpr struct {
	Pos      lexer.Position
	Atom     *Atom            `@@`
	Suffixes []*PostfixSuffix `@@*`
}

type PostfixSuffix struct {
	Pos      lexer.Position
	Property string       `  Dot @Ident`
	Index    *IndexSuffix `| @@`
}

// IndexSuffix is [expr].
type IndexSuffix struct {
	Pos   lexer.Position
	Index *Expression `LBracket @@ RBracket`
}

// ----------------------------------------------------------------------
// Atoms
// ----------------------------------------------------------------------

// Atom is the base expression; order matters for disambiguation the same
// way it does in scaf's grammar (list comprehension before list literal,
// quantifier/COUNT keywords before a bare function-call/variable fallback).
type Atom struct {
	Pos                  lexer.Position
	ListComprehension    *ListComprehension    `  @@`
	PatternComprehension *PatternComprehension `| @@`
	Parameter            *Parameter            `| @@`
	CaseExpr             *CaseExpression       `| @@`
	CountAll             bool                  `| @( "COUNT" LParen Star RParen )`
	Quantifier           *Quantifier           `| @@`
	Parenthesized        *Expression           `| LParen @@ RParen`
	FunctionCall         *FunctionCall         `| @@`
	Literal              *Literal              `| @@`
	Variable             string                `| @Ident`
}

type Literal struct {
	Pos    lexer.Position
	Null   bool         `  @"NULL"`
	True   bool         `| @"TRUE"`
	False  bool         `| @"FALSE"`
	Float  *float64     `| @Float`
	Int    *int64       `| @Int`
	String *string      `| @String`
	List   *ListLiteral `| @@`
	Map    *MapLiteral  `| @@`
}

// ListLiteral is [e1, e2, ...].
type ListLiteral struct {
	Pos   lexer.Position
	Items []*Expression `LBracket ( @@ ( Comma @@ )* )? RBracket`
}

// MapLiteral is {k1: v1, k2: v2, ...}.
type MapLiteral struct {
	Pos   lexer.Position
	Pairs []*MapPair `LBrace ( @@ ( Comma @@ )* )? RBrace`
}

type MapPair struct {
	Pos   lexer.Position
	Key   string      `@Ident Colon`
	Value *Expression `@@`
}

// Parameter is $name.
type Parameter struct {
	Pos  lexer.Position
	Name string `Dollar ( @Ident | @Int )`
}

// ListComprehension is [x IN xs [WHERE p] [| e]].
type ListComprehension struct {
	Pos      lexer.Position
	Variable string      `LBracket @Ident "IN"`
	Source   *Expression `@@`
	Where    *Where      `@@?`
	Mapping  *Expression `( Pipe @@ )? RBracket`
}

// PatternComprehension is [(var =)? node chain [WHERE p] | e].
type PatternComprehension struct {
	Pos     lexer.Position
	Var     string              `LBracket ( @Ident Eq )?`
	Node    *NodePattern        `@@`
	Chain   []*PatternElemChain `@@+`
	Where   *Where              `@@?`
	Mapping *Expression         `Pipe @@ RBracket`
}

// Quantifier is ALL/ANY/NONE/SINGLE(x IN xs [WHERE p]).
type Quantifier struct {
	Pos      lexer.Position
	Kind     string      `@( "ALL" | "ANY" | "NONE" | "SINGLE" )`
	Variable string      `LParen @Ident "IN"`
	Source   *Expression `@@`
	Where    *Where      `@@? RParen`
}

// CaseExpression is CASE [test] (WHEN w THEN t)+ [ELSE e] END.
type CaseExpression struct {
	Pos   lexer.Position
	Input *Expression `"CASE" ( (?! "WHEN" ) @@ )?`
	Whens []*CaseWhen `@@+`
	Else  *Expression `( "ELSE" @@ )?`
	End   bool        `@"END"`
}

type CaseWhen struct {
	Pos  lexer.Position
	When *Expression `"WHEN" @@`
	Then *Expression `"THEN" @@`
}

// FunctionCall is name(DISTINCT? args).
type FunctionCall struct {
	Pos      lexer.Position
	Name     *InvocationName `@@ (?= LParen )`
	Distinct bool            `LParen @"DISTINCT"?`
	Args     []*Expression   `( @@ ( Comma @@ )* )? RParen`
}

// InvocationName is a possibly namespaced identifier (e.g. apoc.text.join).
type InvocationName struct {
	Pos   lexer.Position
	Parts []string `@Ident ( Dot @Ident )*`
}

// ParenExprList is (e1, e2, ...).
type ParenExprList struct {
	Pos   lexer.Position
	Exprs []*Expression `LParen ( @@ ( Comma @@ )* )? RParen`
}

// cypherParser is built once from the grammar above.
var cypherParser = participle.MustBuild[Script](
	participle.Lexer(cypherLexer),
	participle.CaseInsensitive("Ident"),
	participle.Elide("Whitespace", "LineComment"),
	participle.UseLookahead(10),
)

// Parse tokenizes and parses text against the grammar above, returning the
// concrete parse tree or participle's parse error (position-bearing).
func Parse(text string) (*Script, error) {
	return cypherParser.ParseString("", text)
}
