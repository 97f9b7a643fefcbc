// Copyright 2025 The Candid LS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package token defines constants representing the lexical tokens of the
// Candid interface description language and basic operations on tokens
// (printing, predicates) and source positions.
package token

import "strconv"

// Token is the set of lexical tokens of Candid.
type Token int

// The list of tokens.
const (
	// Special tokens
	ILLEGAL Token = iota
	EOF
	COMMENT

	literalBeg
	// Identifiers and basic type literals
	IDENT  // main
	NAT    // 12345, 0xff, 1_000
	INT    // -12, +3
	FLOAT  // 1.5, 1e10
	STRING // "abc"
	literalEnd

	operatorBeg
	// Operators and delimiters
	ASSIGN // =
	COLON  // :
	SEMI   // ;
	COMMA  // ,
	PERIOD // .
	ARROW  // ->

	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	operatorEnd

	keywordBeg
	// Keywords
	TYPE
	IMPORT
	SERVICE
	FUNC
	RECORD
	VARIANT
	OPT
	VEC
	BLOB
	PRINCIPAL
	QUERY
	ONEWAY
	COMPOSITE_QUERY
	TRUE
	FALSE
	NULL
	keywordEnd
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",

	EOF:     "EOF",
	COMMENT: "COMMENT",

	IDENT:  "IDENT",
	NAT:    "NAT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	ASSIGN: "=",
	COLON:  ":",
	SEMI:   ";",
	COMMA:  ",",
	PERIOD: ".",
	ARROW:  "->",

	LPAREN: "(",
	RPAREN: ")",
	LBRACE: "{",
	RBRACE: "}",

	TYPE:            "type",
	IMPORT:          "import",
	SERVICE:         "service",
	FUNC:            "func",
	RECORD:          "record",
	VARIANT:         "variant",
	OPT:             "opt",
	VEC:             "vec",
	BLOB:            "blob",
	PRINCIPAL:       "principal",
	QUERY:           "query",
	ONEWAY:          "oneway",
	COMPOSITE_QUERY: "composite_query",
	TRUE:            "true",
	FALSE:           "false",
	NULL:            "null",
}

// String returns the string corresponding to the token tok.
// For operators, delimiters, and keywords the string is the actual
// token character sequence (e.g., for the token ASSIGN, the string is
// "="). For all other tokens the string corresponds to the token
// constant name (e.g. for the token IDENT, the string is "IDENT").
func (tok Token) String() string {
	s := ""
	if 0 <= tok && tok < Token(len(tokens)) {
		s = tokens[tok]
	}
	if s == "" {
		s = "token(" + strconv.Itoa(int(tok)) + ")"
	}
	return s
}

var keywords map[string]Token

func init() {
	keywords = make(map[string]Token)
	for i := keywordBeg + 1; i < keywordEnd; i++ {
		keywords[tokens[i]] = i
	}
}

// Lookup maps an identifier to its keyword token or IDENT (if not a keyword).
func Lookup(ident string) Token {
	if tok, isKeyword := keywords[ident]; isKeyword {
		return tok
	}
	return IDENT
}

// Keywords returns the spelling of every keyword in declaration order.
func Keywords() []string {
	var s []string
	for i := keywordBeg + 1; i < keywordEnd; i++ {
		s = append(s, tokens[i])
	}
	return s
}

// IsLiteral returns true for tokens corresponding to identifiers
// and basic type literals; it returns false otherwise.
func (tok Token) IsLiteral() bool { return literalBeg < tok && tok < literalEnd }

// IsOperator returns true for tokens corresponding to operators and
// delimiters; it returns false otherwise.
func (tok Token) IsOperator() bool { return operatorBeg < tok && tok < operatorEnd }

// IsKeyword returns true for tokens corresponding to keywords;
// it returns false otherwise.
func (tok Token) IsKeyword() bool { return keywordBeg < tok && tok < keywordEnd }

// Primitive type names. These are not reserved words: Candid treats them as
// predefined identifiers that a type definition cannot rebind.
var primitives = map[string]bool{
	"nat": true, "nat8": true, "nat16": true, "nat32": true, "nat64": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"float32": true, "float64": true,
	"bool": true, "text": true, "null": true, "reserved": true, "empty": true,
	"principal": true,
}

// IsPrimitive reports whether name denotes a primitive Candid type.
func IsPrimitive(name string) bool { return primitives[name] }
