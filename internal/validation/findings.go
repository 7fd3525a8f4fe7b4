package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

// CanExport reports whether the data may go on to consolidation and export:
// true iff no finding is critique.
func CanExport(findings []types.Finding) bool {
	for _, f := range findings {
		if f.Critical() {
			return false
		}
	}
	return true
}

// Counts tallies findings by severity.
type Counts struct {
	Critical int
	Minor    int
	Total    int
}

// Count tallies the findings that are not yet corrected.
func Count(findings []types.Finding) Counts {
	var c Counts
	for _, f := range findings {
		if f.Corrected {
			continue
		}
		c.Total++
		if f.Critical() {
			c.Critical++
		} else {
			c.Minor++
		}
	}
	return c
}

// Summarize counts findings per code.
func Summarize(findings []types.Finding) map[types.FindingCode]int {
	out := make(map[types.FindingCode]int)
	for _, f := range findings {
		out[f.Code]++
	}
	return out
}

// Correct returns a copy of findings where finding id is marked corrected
// with the given value. The input slice is not modified.
func Correct(findings []types.Finding, id int, correction string) ([]types.Finding, error) {
	out := append([]types.Finding(nil), findings...)
	for i := range out {
		if out[i].ID == id {
			out[i].Corrected = true
			out[i].Correction = correction
			return out, nil
		}
	}
	return nil, fmt.Errorf("finding %d not found", id)
}

// FormatFindings renders findings for display or logging.
func FormatFindings(findings []types.Finding) string {
	if len(findings) == 0 {
		return "Aucune erreur de validation."
	}

	var b strings.Builder
	c := Count(findings)
	fmt.Fprintf(&b, "%d erreur(s) : %d critique(s), %d mineure(s)\n\n", len(findings), c.Critical, c.Minor)

	for _, f := range findings {
		fmt.Fprintf(&b, "#%d [%s] %s - %s", f.ID, strings.ToUpper(string(f.Severity)), f.Field, f.Type)
		if f.Line > 0 {
			fmt.Fprintf(&b, " (ligne %d)", f.Line)
		}
		if f.Value != "" {
			fmt.Fprintf(&b, " valeur '%s'", f.Value)
		}
		fmt.Fprintf(&b, "\n    -> %s\n", f.Suggestion)
	}

	return b.String()
}
