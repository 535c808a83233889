package repair

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// pathStepReport is the JSON-friendly rendering of a pathStep.
type pathStepReport struct {
	Action       string   `json:"action"`
	Requirements []string `json:"requirements"`
}

// reportDoc is the full JSON document for one Result.
type reportDoc struct {
	Solved     bool             `json:"solved"`
	Reason     string           `json:"reason,omitempty"`
	Iterations int              `json:"iterations"`
	FinalReqs  []string         `json:"final_requirements,omitempty"`
	Path       []pathStepReport `json:"path,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
}

func toReportDoc(r Result) reportDoc {
	doc := reportDoc{
		Solved:     r.Solved,
		Reason:     r.Reason,
		Iterations: r.Iterations,
		Warnings:   r.Warnings,
	}
	if r.Solved {
		doc.FinalReqs = reqSetLines(r.FinalReqs)
	}
	for _, step := range r.Path {
		doc.Path = append(doc.Path, pathStepReport{
			Action:       step.Action,
			Requirements: reqSetLines(step.Reqs),
		})
	}
	return doc
}

// WriteJSON renders a Result as a JSON report.
func WriteJSON(w io.Writer, r Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toReportDoc(r)); err != nil {
		return errors.Wrap(err, "encoding JSON report")
	}
	return nil
}

// WriteText renders a Result as a human-readable report, the default
// for interactive CLI use.
func WriteText(w io.Writer, r Result) error {
	var b strings.Builder

	if r.Solved {
		fmt.Fprintf(&b, "Solution found after %d iteration(s):\n", r.Iterations)
		for i, step := range r.Path {
			fmt.Fprintf(&b, "  %d. %s\n", i, step.Action)
			for _, line := range reqSetLines(step.Reqs) {
				fmt.Fprintf(&b, "       %s\n", line)
			}
		}
		fmt.Fprintln(&b, "Final requirements:")
		for _, line := range reqSetLines(r.FinalReqs) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	} else {
		fmt.Fprintf(&b, "No solution found after %d iteration(s): %s\n", r.Iterations, r.Reason)
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
