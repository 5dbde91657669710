// SPDX-License-Identifier: Apache-2.0

package pedigree

import (
	"fmt"
	"slices"
)

// Family is a couple or a single parent together with their children. A
// parent of 0 means absent. ParentA holds the male parent when sex is known.
type Family struct {
	Key      string `json:"key"`
	ParentA  int    `json:"parentA,omitempty"`
	ParentB  int    `json:"parentB,omitempty"`
	Children []int  `json:"children"`
}

// HasChild reports whether rin is a child of the family.
func (f *Family) HasChild(rin int) bool {
	return slices.Contains(f.Children, rin)
}

func (f *Family) addChild(rin int) {
	if !f.HasChild(rin) {
		f.Children = append(f.Children, rin)
	}
}

// CoupleKey is the family key of the union between a and b. It does not
// depend on argument order.
func CoupleKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("FAM_COUPLE_%d_%d", a, b)
}

// SingleKey is the family key of a single parent.
func SingleKey(p int) string {
	return fmt.Sprintf("FAM_SINGLE_%d", p)
}

// Pedigree is the resolved graph of a form: the individuals in input order,
// the family units in creation order, and membership indices.
type Pedigree struct {
	Individuals []Row     `json:"individuals"`
	Families    []*Family `json:"families"`
	Warnings    []Warning `json:"warnings"`

	byKey    map[string]*Family
	spouseIn map[int][]string
	childIn  map[int][]string
}

// Family returns the family with the given key.
func (p *Pedigree) Family(key string) (*Family, bool) {
	f, ok := p.byKey[key]
	return f, ok
}

// SpouseIn returns the keys of the families rin is a parent of, in family
// creation order.
func (p *Pedigree) SpouseIn(rin int) []string {
	return p.spouseIn[rin]
}

// ChildIn returns the keys of the families rin is a child of, in family
// creation order.
func (p *Pedigree) ChildIn(rin int) []string {
	return p.childIn[rin]
}

// resolver holds the state of a single Resolve call.
type resolver struct {
	rows     []Row
	sex      map[int]Sex
	families map[string]*Family
	order    []string

	// spouse is the partner each RIN declared with its own C code; partner
	// is any union the RIN takes part in, declared by either side.
	spouse  map[int]int
	partner map[int]int

	// parents maps a child to its declared parents in declaration order.
	parents    map[int][]int
	childOrder []int

	warnings warnings
}

// Resolve interprets the relation code of every row and builds the family
// units. It is pure: every call works on fresh maps, so concurrent calls on
// separate snapshots are safe. Malformed input is absorbed into warnings;
// only a nil row list is an error.
func Resolve(rows []Row) (*Pedigree, error) {
	if rows == nil {
		return nil, ErrNilRows
	}
	r := &resolver{
		rows:     rows,
		sex:      make(map[int]Sex, len(rows)),
		families: make(map[string]*Family),
		spouse:   make(map[int]int),
		partner:  make(map[int]int),
		parents:  make(map[int][]int),
	}
	r.index()
	r.unions()
	r.filiation()
	r.dangling()
	return r.pedigree(), nil
}

func (r *resolver) index() {
	for _, row := range r.rows {
		if _, dup := r.sex[row.RIN]; dup {
			r.warnings.add(row.RIN, WarnDuplicateRIN, "RIN appears more than once; the first row's sex is used")
			continue
		}
		r.sex[row.RIN] = row.Sex
	}
}

// unions is the first pass. It builds every couple declared by a C code and
// collects the parent sets declared by F and P codes.
func (r *resolver) unions() {
	for _, row := range r.rows {
		code := ParseRelation(row.Relation)
		switch code.Kind {
		case CodeNone:
		case CodeInvalid:
			r.warnings.add(row.RIN, WarnMalformedCode, "cannot parse relation code %q", row.Relation)
		case CodeSpouse:
			n := code.Refs[0]
			if n == row.RIN {
				r.warnings.add(row.RIN, WarnSelfReference, "%s code %q points at its own row", code.Kind, row.Relation)
				continue
			}
			f, _ := r.family(CoupleKey(row.RIN, n))
			f.ParentA, f.ParentB = r.orderCouple(row.RIN, n)
			if _, ok := r.spouse[row.RIN]; !ok {
				r.spouse[row.RIN] = n
			}
			r.link(row.RIN, n)
			r.link(n, row.RIN)
		case CodeChild:
			for _, p := range code.Refs {
				if p == row.RIN {
					r.warnings.add(row.RIN, WarnSelfReference, "%s code %q lists its own row as a parent", code.Kind, row.Relation)
					continue
				}
				r.addParent(row.RIN, p)
			}
		case CodeParent:
			k := code.Refs[0]
			if k == row.RIN {
				r.warnings.add(row.RIN, WarnSelfReference, "%s code %q points at its own row", code.Kind, row.Relation)
				continue
			}
			r.addParent(k, row.RIN)
		}
	}
}

// filiation is the second pass. Each child joins the family of its parents;
// a single declared parent with a known union joins that couple's family.
func (r *resolver) filiation() {
	for _, child := range r.childOrder {
		ps := r.parents[child]
		if len(ps) > 2 {
			r.warnings.add(child, WarnExtraParents, "%d parents declared; only %d and %d are used", len(ps), ps[0], ps[1])
		}

		var key string
		var a, b int
		switch {
		case len(ps) >= 2:
			key = CoupleKey(ps[0], ps[1])
			a, b = r.orderCouple(ps[0], ps[1])
		default:
			p := ps[0]
			if s, ok := r.spouseOf(p); ok {
				key = CoupleKey(p, s)
				a, b = r.orderCouple(p, s)
			} else {
				key = SingleKey(p)
				a, b = p, 0
				if r.sex[p] == SexFemale {
					a, b = 0, p
				}
			}
		}

		f, created := r.family(key)
		if created {
			f.ParentA, f.ParentB = a, b
		}
		f.addChild(child)
	}
}

// dangling records every reference to a RIN with no row. The references are
// kept in the graph.
func (r *resolver) dangling() {
	seen := make(map[int]bool)
	check := func(rin int, key string) {
		if rin == 0 || seen[rin] {
			return
		}
		if _, ok := r.sex[rin]; !ok {
			seen[rin] = true
			r.warnings.add(rin, WarnDanglingReference, "family %s references a RIN with no row", key)
		}
	}
	for _, key := range r.order {
		f := r.families[key]
		check(f.ParentA, key)
		check(f.ParentB, key)
		for _, c := range f.Children {
			check(c, key)
		}
	}
}

func (r *resolver) pedigree() *Pedigree {
	p := &Pedigree{
		Individuals: r.rows,
		Families:    make([]*Family, 0, len(r.order)),
		Warnings:    r.warnings,
		byKey:       r.families,
		spouseIn:    make(map[int][]string),
		childIn:     make(map[int][]string),
	}
	if p.Warnings == nil {
		p.Warnings = []Warning{}
	}
	for _, key := range r.order {
		f := r.families[key]
		p.Families = append(p.Families, f)
		for _, parent := range []int{f.ParentA, f.ParentB} {
			if parent != 0 {
				p.spouseIn[parent] = append(p.spouseIn[parent], key)
			}
		}
		for _, c := range f.Children {
			p.childIn[c] = append(p.childIn[c], key)
		}
	}
	return p
}

// family returns the family with key, creating it if needed.
func (r *resolver) family(key string) (*Family, bool) {
	if f, ok := r.families[key]; ok {
		return f, false
	}
	f := &Family{Key: key, Children: []int{}}
	r.families[key] = f
	r.order = append(r.order, key)
	return f, true
}

// orderCouple returns the pair as (ParentA, ParentB). A male goes first and a
// female second; otherwise the smaller RIN goes first.
func (r *resolver) orderCouple(x, y int) (int, int) {
	sx, sy := r.sex[x], r.sex[y]
	switch {
	case sx == SexMale && sy != SexMale:
		return x, y
	case sy == SexMale && sx != SexMale:
		return y, x
	case sx == SexFemale && sy != SexFemale:
		return y, x
	case sy == SexFemale && sx != SexFemale:
		return x, y
	}
	return min(x, y), max(x, y)
}

func (r *resolver) link(a, b int) {
	if _, ok := r.partner[a]; !ok {
		r.partner[a] = b
	}
}

func (r *resolver) spouseOf(p int) (int, bool) {
	if s, ok := r.spouse[p]; ok {
		return s, true
	}
	s, ok := r.partner[p]
	return s, ok
}

func (r *resolver) addParent(child, parent int) {
	ps, known := r.parents[child]
	if !known {
		r.childOrder = append(r.childOrder, child)
	}
	if !slices.Contains(ps, parent) {
		r.parents[child] = append(ps, parent)
	}
}
