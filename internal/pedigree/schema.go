// SPDX-License-Identifier: Apache-2.0

package pedigree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ErrSchema is returned in strict mode when a document violates the MZ11 row
// schema.
var ErrSchema = errors.New("document violates the MZ11 schema")

// mz11Schema constrains a completed document to what the printed form can
// hold. Relation codes are checked loosely; the resolver reports the rest.
var mz11Schema = fmt.Sprintf(`
#Sex: "M" | "F" | ""

#Row: {
	rin:        int & >=1 & <=%d
	fullName:   string
	relation:   string & =~"^$|^(?i)[cp][0-9]+$|^(?i)f[0-9]+(,f?[0-9]+)*$"
	sex:        #Sex
	birthDate:  string
	birthPlace: string
	deathDate:  string
	deathPlace: string
	page:       int & >=1 & <=%d
	row:        int & >=1 & <=%d
}

#Metadata: {
	interviewId:       string
	interviewDate:     string
	interviewPlace:    string
	intervieweeName:   string
	intervieweeRin:    string
	totalNames:        int & >=0
	originalFilename?: string
}

#Document: {
	metadata:    #Metadata
	individuals: [...#Row]
}
`, FormRows, FormRows/PageSize, PageSize)

// Validator checks documents against the MZ11 CUE schema. It is safe for
// concurrent use.
type Validator struct {
	mu  sync.Mutex
	ctx *cue.Context
	doc cue.Value
}

// NewValidator compiles the schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(mz11Schema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile MZ11 schema: %w", err)
	}
	doc := schema.LookupPath(cue.ParsePath("#Document"))
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Document: %w", err)
	}
	return &Validator{ctx: ctx, doc: doc}, nil
}

// Validate returns one schema warning per violation. Relation codes are
// compared with whitespace removed, as the resolver reads them.
func (v *Validator) Validate(d Document) []Warning {
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		r.Relation = strings.Join(strings.Fields(r.Relation), "")
		rows[i] = r
	}
	d.Rows = rows

	v.mu.Lock()
	defer v.mu.Unlock()
	val := v.ctx.Encode(d)
	if err := val.Err(); err != nil {
		return []Warning{{Kind: WarnSchema, Message: err.Error()}}
	}
	err := v.doc.Unify(val).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	var ws []Warning
	for _, e := range cueerrors.Errors(err) {
		ws = append(ws, Warning{
			RIN:     rinAt(d.Rows, e.Path()),
			Kind:    WarnSchema,
			Message: strings.TrimSpace(e.Error()),
		})
	}
	return ws
}

// rinAt maps a CUE error path like #Document.individuals.3.sex back to the
// RIN of that row. Paths outside the individuals list map to 0.
func rinAt(rows []Row, path []string) int {
	for i, seg := range path {
		if seg != "individuals" || i+1 >= len(path) {
			continue
		}
		n, err := strconv.Atoi(path[i+1])
		if err != nil || n < 0 || n >= len(rows) {
			return 0
		}
		return rows[n].RIN
	}
	return 0
}
