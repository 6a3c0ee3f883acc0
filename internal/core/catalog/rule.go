package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"text/template"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

// Rule is one compiled catalog entry. Rules are immutable after load.
type Rule struct {
	ID           string
	Category     domain.Category
	Effect       domain.Effect
	Critical     bool
	Grants       []domain.CoverageLabel
	Excludes     []domain.CoverageLabel
	Strength     domain.Strength
	MetadataOnly bool
	Description  string
	Seq          int

	pred     predicate
	note     *template.Template
	noteSrc  string
	followup *template.Template
}

// Result is the outcome of evaluating one rule against one input.
type Result struct {
	RuleID    string
	Category  domain.Category
	Triggered bool
	Outcome   domain.RuleOutcome
}

// Verdict is what a predicate reports back. Params feed the note templates;
// Grants and Excludes add to the labels declared on the rule.
type Verdict struct {
	Triggered bool
	Params    map[string]any
	Grants    []domain.CoverageLabel
	Excludes  []domain.CoverageLabel
}

// predicate is the closed set of rule evaluation variants: a built-in check
// from the fixed registry or a compiled CEL expression.
type predicate interface {
	evaluate(in *Input) (Verdict, error)
	kind() string
	source() string
}

// Input is the shared, read-only evaluation input for one stage.
type Input struct {
	FNOL  *domain.FNOL
	Facts signals.Facts

	once       sync.Once
	activation map[string]any
	actErr     error
}

func NewInput(fnol *domain.FNOL, facts signals.Facts) *Input {
	return &Input{FNOL: fnol, Facts: facts}
}

// celActivation exposes the FNOL in its wire form plus the derived facts.
func (in *Input) celActivation() (map[string]any, error) {
	in.once.Do(func() {
		raw, err := json.Marshal(in.FNOL)
		if err != nil {
			in.actErr = fmt.Errorf("marshal fnol: %w", err)
			return
		}
		var fnol map[string]any
		if err := json.Unmarshal(raw, &fnol); err != nil {
			in.actErr = fmt.Errorf("unmarshal fnol: %w", err)
			return
		}
		in.activation = map[string]any{
			"fnol":    fnol,
			"signals": in.Facts.Map(),
		}
	})
	return in.activation, in.actErr
}

// Kind reports the predicate variant, "check" or "expr".
func (r *Rule) Kind() string { return r.pred.kind() }

// Source is the check name or the CEL expression text.
func (r *Rule) Source() string { return r.pred.source() }

// Evaluate runs the rule predicate. A predicate that errors is reported as a
// Flagged outcome so that a broken rule routes the claim to review instead of
// silently dropping out.
func (r *Rule) Evaluate(in *Input) Result {
	result := Result{RuleID: r.ID, Category: r.Category}

	verdict, err := r.pred.evaluate(in)
	if err != nil {
		result.Triggered = true
		result.Outcome = domain.RuleOutcome{
			RuleID:   r.ID,
			Category: r.Category,
			Seq:      r.Seq,
			Effect:   domain.EffectFlagged,
			Note:     fmt.Sprintf("Rule %s could not be evaluated: %v", r.ID, err),
			Followup: fmt.Sprintf("Manually review the condition checked by rule %s", r.ID),
		}
		return result
	}
	if !verdict.Triggered {
		return result
	}

	data := in.Facts.Section(r.Category)
	for k, v := range verdict.Params {
		data[k] = v
	}

	result.Triggered = true
	result.Outcome = domain.RuleOutcome{
		RuleID:       r.ID,
		Category:     r.Category,
		Seq:          r.Seq,
		Effect:       r.Effect,
		Note:         render(r.note, data, r.noteSrc),
		Followup:     render(r.followup, data, ""),
		Critical:     r.Critical,
		Grants:       mergeLabels(r.Grants, verdict.Grants),
		Excludes:     mergeLabels(r.Excludes, verdict.Excludes),
		Strength:     r.Strength,
		MetadataOnly: r.MetadataOnly,
	}
	return result
}

func render(tmpl *template.Template, data map[string]any, fallback string) string {
	if tmpl == nil {
		return fallback
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fallback
	}
	return buf.String()
}

// mergeLabels unions label lists in canonical order.
func mergeLabels(lists ...[]domain.CoverageLabel) []domain.CoverageLabel {
	set := make(map[domain.CoverageLabel]bool)
	for _, list := range lists {
		for _, label := range list {
			set[label] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]domain.CoverageLabel, 0, len(set))
	for _, label := range domain.CoverageLabels {
		if set[label] {
			out = append(out, label)
		}
	}
	return out
}

type checkPredicate struct {
	name string
	fn   checkFunc
}

func (p checkPredicate) evaluate(in *Input) (Verdict, error) {
	return p.fn(in)
}

func (p checkPredicate) kind() string   { return "check" }
func (p checkPredicate) source() string { return p.name }
