// SPDX-License-Identifier: Apache-2.0

package pedigree

import (
	"errors"
	"fmt"
)

// ErrNilRows is returned when a nil row list is passed where a snapshot is
// required. An empty, non-nil list is valid input.
var ErrNilRows = errors.New("row list is nil")

// WarningKind classifies a non-fatal anomaly found while resolving a form.
type WarningKind string

const (
	WarnMalformedCode     WarningKind = "malformed-code"
	WarnSelfReference     WarningKind = "self-reference"
	WarnDanglingReference WarningKind = "dangling-reference"
	WarnDuplicateRIN      WarningKind = "duplicate-rin"
	WarnExtraParents      WarningKind = "extra-parents"
	WarnSchema            WarningKind = "schema"
)

// Warning is an anomaly that was absorbed rather than rejected. RIN is the
// row the anomaly was found on, or 0 when it is not tied to a row.
type Warning struct {
	RIN     int         `json:"rin,omitempty"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.RIN == 0 {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("RIN %d: %s: %s", w.RIN, w.Kind, w.Message)
}

type warnings []Warning

func (ws *warnings) add(rin int, kind WarningKind, format string, args ...any) {
	*ws = append(*ws, Warning{RIN: rin, Kind: kind, Message: fmt.Sprintf(format, args...)})
}
