package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/semver/v3"
	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

//go:embed rules/*.yaml
var embeddedRules embed.FS

// LatestVersion selects the highest catalog version available to a loader.
const LatestVersion = "latest"

// Document is the YAML form of one catalog version.
type Document struct {
	Version     string         `yaml:"version"`
	Description string         `yaml:"description"`
	Rules       []RuleDocument `yaml:"rules"`
}

// RuleDocument is the YAML form of one rule. Exactly one of Check and Expr is
// set.
type RuleDocument struct {
	ID           string   `yaml:"id"`
	Category     string   `yaml:"category"`
	Effect       string   `yaml:"effect"`
	Critical     bool     `yaml:"critical,omitempty"`
	Grants       []string `yaml:"grants,omitempty"`
	Excludes     []string `yaml:"excludes,omitempty"`
	Strength     string   `yaml:"strength,omitempty"`
	MetadataOnly bool     `yaml:"metadata_only,omitempty"`
	Check        string   `yaml:"check,omitempty"`
	Expr         string   `yaml:"expr,omitempty"`
	Note         string   `yaml:"note"`
	Followup     string   `yaml:"followup,omitempty"`
	Description  string   `yaml:"description,omitempty"`
}

// Loader reads catalog documents from the top level of a file system.
type Loader struct {
	fsys fs.FS
	env  *cel.Env
}

func NewLoader(fsys fs.FS) (*Loader, error) {
	env, err := newCELEnv()
	if err != nil {
		return nil, err
	}
	return &Loader{fsys: fsys, env: env}, nil
}

// NewEmbeddedLoader reads the catalogs compiled into the binary.
func NewEmbeddedLoader() (*Loader, error) {
	sub, err := fs.Sub(embeddedRules, "rules")
	if err != nil {
		return nil, fmt.Errorf("open embedded catalogs: %w", err)
	}
	return NewLoader(sub)
}

// OpenLoader reads catalogs from dir, or the embedded ones when dir is empty.
func OpenLoader(dir string) (*Loader, error) {
	if strings.TrimSpace(dir) == "" {
		return NewEmbeddedLoader()
	}
	return NewLoader(os.DirFS(dir))
}

type versionedDocument struct {
	file    string
	version *semver.Version
	doc     Document
}

// Versions lists available catalog versions, highest first.
func (l *Loader) Versions() ([]string, error) {
	docs, err := l.documents()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.version.String())
	}
	return out, nil
}

// Load selects one catalog version and compiles it. An empty version or
// "latest" selects the highest; anything else is a semver constraint and the
// highest matching version wins.
func (l *Loader) Load(version string) (*Catalog, error) {
	docs, err := l.documents()
	if err != nil {
		return nil, err
	}
	selected, err := selectVersion(docs, version)
	if err != nil {
		return nil, err
	}
	return l.Compile(selected.doc)
}

// Compile validates one parsed document and builds its catalog. Every issue
// found is reported together in a single CatalogError.
func (l *Loader) Compile(doc Document) (*Catalog, error) {
	version, err := semver.NewVersion(strings.TrimSpace(doc.Version))
	if err != nil {
		return nil, &domain.CatalogError{
			Version: doc.Version,
			Issues:  []string{fmt.Sprintf("invalid version %q: %v", doc.Version, err)},
		}
	}

	var issues []string
	seen := make(map[string]bool, len(doc.Rules))
	rules := make([]*Rule, 0, len(doc.Rules))
	for i, rd := range doc.Rules {
		rule, ruleIssues := l.compileRule(rd, i)
		if rd.ID != "" {
			if seen[rd.ID] {
				ruleIssues = append(ruleIssues, "duplicate rule id")
			}
			seen[rd.ID] = true
		}
		for _, issue := range ruleIssues {
			issues = append(issues, fmt.Sprintf("rule %s: %s", ruleLabel(rd, i), issue))
		}
		if len(ruleIssues) == 0 {
			rules = append(rules, rule)
		}
	}
	if len(doc.Rules) == 0 {
		issues = append(issues, "catalog declares no rules")
	}
	if len(issues) > 0 {
		return nil, &domain.CatalogError{Version: version.String(), Issues: issues}
	}
	return newCatalog(version.String(), doc.Description, rules), nil
}

func (l *Loader) compileRule(rd RuleDocument, seq int) (*Rule, []string) {
	var issues []string
	rule := &Rule{
		ID:           strings.TrimSpace(rd.ID),
		Category:     domain.Category(rd.Category),
		Effect:       domain.Effect(rd.Effect),
		Critical:     rd.Critical,
		Strength:     domain.Strength(rd.Strength),
		MetadataOnly: rd.MetadataOnly,
		Description:  rd.Description,
		Seq:          seq,
		noteSrc:      rd.Note,
	}

	if rule.ID == "" {
		issues = append(issues, "missing id")
	}
	if !rule.Category.Valid() {
		issues = append(issues, fmt.Sprintf("unknown category %q", rd.Category))
	}
	if !rule.Effect.Valid() {
		issues = append(issues, fmt.Sprintf("unknown effect %q", rd.Effect))
	}
	if !rule.Strength.Valid() {
		issues = append(issues, fmt.Sprintf("unknown strength %q", rd.Strength))
	}
	if rule.Strength != domain.StrengthNone && rule.Category != domain.CategoryFraud {
		issues = append(issues, "strength is only meaningful on fraud rules")
	}
	if rule.MetadataOnly && rule.Strength != domain.StrengthWeak {
		issues = append(issues, "metadata_only rules must be weak")
	}
	if rule.Critical && rule.Effect != domain.EffectRejected {
		issues = append(issues, "critical rules must have effect Rejected")
	}
	if rule.Effect == domain.EffectFlagged && strings.TrimSpace(rd.Followup) == "" {
		issues = append(issues, "Flagged rules need a followup")
	}
	if strings.TrimSpace(rd.Note) == "" {
		issues = append(issues, "missing note")
	}

	var labelIssues []string
	rule.Grants, labelIssues = parseLabels("grants", rd.Grants)
	issues = append(issues, labelIssues...)
	rule.Excludes, labelIssues = parseLabels("excludes", rd.Excludes)
	issues = append(issues, labelIssues...)
	if len(rule.Excludes) > 0 && rule.Effect != domain.EffectRejected {
		issues = append(issues, "only Rejected rules may exclude coverage")
	}
	if len(rule.Grants) > 0 && rule.Effect == domain.EffectRejected {
		issues = append(issues, "Rejected rules may not grant coverage")
	}

	switch {
	case rd.Check != "" && rd.Expr != "":
		issues = append(issues, "declare either check or expr, not both")
	case rd.Check != "":
		spec, ok := checks[rd.Check]
		switch {
		case !ok:
			issues = append(issues, fmt.Sprintf("unknown check %q", rd.Check))
		case spec.category != rule.Category:
			issues = append(issues, fmt.Sprintf("check %q belongs to category %s", rd.Check, spec.category))
		default:
			rule.pred = checkPredicate{name: rd.Check, fn: spec.fn}
		}
	case rd.Expr != "":
		pred, err := compileCEL(l.env, rd.Expr)
		if err != nil {
			issues = append(issues, fmt.Sprintf("expr: %v", err))
		} else {
			rule.pred = pred
		}
	default:
		issues = append(issues, "missing check or expr")
	}

	if rule.Category.Valid() {
		var err error
		if rule.note, err = parseTemplate(rule.ID+".note", rd.Note, rule.Category); err != nil {
			issues = append(issues, fmt.Sprintf("note: %v", err))
		}
		if rd.Followup != "" {
			if rule.followup, err = parseTemplate(rule.ID+".followup", rd.Followup, rule.Category); err != nil {
				issues = append(issues, fmt.Sprintf("followup: %v", err))
			}
		}
	}
	return rule, issues
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// parseTemplate parses a note template and executes it once against the
// facts of an empty claim, so a reference to an unknown key fails the load.
func parseTemplate(name, src string, category domain.Category) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(templateFuncs).Parse(src)
	if err != nil {
		return nil, err
	}
	probe := signals.Derive(&domain.FNOL{}, signals.DefaultThresholds()).Section(category)
	probe["labels"] = []string{}
	var sink strings.Builder
	if err := tmpl.Execute(&sink, probe); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func parseLabels(field string, raw []string) ([]domain.CoverageLabel, []string) {
	var issues []string
	labels := make([]domain.CoverageLabel, 0, len(raw))
	for _, value := range raw {
		label := domain.CoverageLabel(value)
		if !label.Valid() || label == domain.CoverNone {
			issues = append(issues, fmt.Sprintf("%s: unknown coverage label %q", field, value))
			continue
		}
		labels = append(labels, label)
	}
	return mergeLabels(labels), issues
}

func ruleLabel(rd RuleDocument, index int) string {
	if rd.ID != "" {
		return rd.ID
	}
	return fmt.Sprintf("#%d", index)
}

// documents parses every *.yaml/*.yml file at the root, sorted by version
// descending.
func (l *Loader) documents() ([]versionedDocument, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	var (
		docs   []versionedDocument
		issues []string
		byVer  = make(map[string]string)
	)
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		raw, err := fs.ReadFile(l.fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var doc Document
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			issues = append(issues, fmt.Sprintf("%s: parse: %v", entry.Name(), err))
			continue
		}
		version, err := semver.NewVersion(strings.TrimSpace(doc.Version))
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid version %q", entry.Name(), doc.Version))
			continue
		}
		if other, dup := byVer[version.String()]; dup {
			issues = append(issues, fmt.Sprintf("%s: version %s already declared by %s", entry.Name(), version, other))
			continue
		}
		byVer[version.String()] = entry.Name()
		docs = append(docs, versionedDocument{file: entry.Name(), version: version, doc: doc})
	}
	if len(issues) > 0 {
		return nil, &domain.CatalogError{Issues: issues}
	}
	if len(docs) == 0 {
		return nil, &domain.CatalogError{Issues: []string{"no catalog documents found"}}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].version.GreaterThan(docs[j].version)
	})
	return docs, nil
}

func selectVersion(docs []versionedDocument, requested string) (versionedDocument, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, LatestVersion) {
		return docs[0], nil
	}
	constraint, err := semver.NewConstraint(requested)
	if err != nil {
		return versionedDocument{}, &domain.CatalogError{
			Version: requested,
			Issues:  []string{fmt.Sprintf("invalid version constraint: %v", err)},
		}
	}
	for _, d := range docs {
		if constraint.Check(d.version) {
			return d, nil
		}
	}
	return versionedDocument{}, &domain.CatalogError{
		Version: requested,
		Issues:  []string{"no catalog version satisfies the constraint"},
	}
}

func sortStrings(values []string) []string {
	sort.Strings(values)
	return values
}
