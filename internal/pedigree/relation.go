// SPDX-License-Identifier: Apache-2.0

package pedigree

import (
	"strconv"
	"strings"
)

// CodeKind is the kind of kinship a relation code declares.
type CodeKind int

const (
	// CodeNone is an empty code; the row has no declared relationship.
	CodeNone CodeKind = iota
	// CodeSpouse is C<n>: the row is a spouse of RIN n.
	CodeSpouse
	// CodeChild is F<n> or F<n>,<m>: the row is a child of the listed RINs.
	CodeChild
	// CodeParent is P<k>: the row is a parent of RIN k.
	CodeParent
	// CodeInvalid is a non-empty code that could not be parsed.
	CodeInvalid
)

func (k CodeKind) String() string {
	switch k {
	case CodeNone:
		return "none"
	case CodeSpouse:
		return "spouse"
	case CodeChild:
		return "child"
	case CodeParent:
		return "parent"
	}
	return "invalid"
}

// RelationCode is a parsed relation column.
type RelationCode struct {
	Kind CodeKind
	// Refs holds the referenced RINs: the spouse for CodeSpouse, the parents
	// in declaration order for CodeChild, the child for CodeParent.
	Refs []int
}

// ParseRelation parses a relation column. Parsing is case-insensitive and
// ignores surrounding whitespace. It never fails: malformed input yields
// CodeInvalid.
func ParseRelation(code string) RelationCode {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return RelationCode{Kind: CodeNone}
	}
	switch c[0] {
	case 'C':
		if n, ok := parseRIN(c[1:]); ok {
			return RelationCode{Kind: CodeSpouse, Refs: []int{n}}
		}
	case 'P':
		if n, ok := parseRIN(c[1:]); ok {
			return RelationCode{Kind: CodeParent, Refs: []int{n}}
		}
	case 'F':
		// F1,2 and F1,F2 are the same declaration.
		parts := strings.Split(strings.ReplaceAll(c, "F", ""), ",")
		refs := make([]int, 0, len(parts))
		for _, p := range parts {
			n, ok := parseRIN(p)
			if !ok {
				return RelationCode{Kind: CodeInvalid}
			}
			refs = append(refs, n)
		}
		return RelationCode{Kind: CodeChild, Refs: refs}
	}
	return RelationCode{Kind: CodeInvalid}
}

func parseRIN(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
