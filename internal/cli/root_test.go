package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/domain/domaintest"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CATALOG_DIR", "")
	t.Setenv("CATALOG_VERSION", "latest")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"assess", "catalog", "version"} {
		require.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestVersionOutput(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "claimctl dev"), out)
}

func TestAssessReadsStdin(t *testing.T) {
	raw, err := json.Marshal(domaintest.CleanRearCollision())
	require.NoError(t, err)

	out, err := run(t, string(raw), "assess", "-", "--compact")
	require.NoError(t, err)

	var got domain.ClaimAssessment
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "CLM-A-0001", got.ClaimReferenceID)
	require.Equal(t, domain.EligibilityApproved, got.Eligibility)
	require.Equal(t, "1.0.0", got.CatalogVersion)
}

func TestAssessReadsFile(t *testing.T) {
	raw, err := json.Marshal(domaintest.ExpiredPolicy())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fnol.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	out, err := run(t, "", "assess", path)
	require.NoError(t, err)

	var got domain.ClaimAssessment
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, domain.EligibilityRejected, got.Eligibility)
}

func TestAssessRejectsMalformedInput(t *testing.T) {
	_, err := run(t, "{not json", "assess", "-")
	require.ErrorContains(t, err, "parsing fnol")
}

func TestAssessRejectsUnknownBranch(t *testing.T) {
	raw, err := json.Marshal(domaintest.CleanRearCollision())
	require.NoError(t, err)
	_, err = run(t, string(raw), "assess", "-", "--third-party-branch", "sometimes")
	require.ErrorContains(t, err, "third-party branch")
}

func TestCatalogListShowsEmbeddedVersion(t *testing.T) {
	out, err := run(t, "", "catalog", "list")
	require.NoError(t, err)
	require.Equal(t, "1.0.0\n", out)
}

func TestCatalogShowListsRules(t *testing.T) {
	out, err := run(t, "", "catalog", "show")
	require.NoError(t, err)
	require.Contains(t, out, "catalog 1.0.0")
	require.Contains(t, out, "CATEGORY")
	require.Contains(t, out, "policy")
}

func TestCatalogValidateReportsEveryVersion(t *testing.T) {
	dir := t.TempDir()
	good := `version: 1.0.0
rules:
  - id: evidence.photos
    category: evidence
    effect: Flagged
    check: evidence_photos_insufficient
    note: 'Only {{.photos}} photo(s)'
    followup: 'Provide {{.shortfall}} more photo(s)'
`
	bad := `version: 2.0.0
rules:
  - id: evidence.photos
    category: evidence
    effect: Flagged
    check: no_such_check
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(good), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o600))

	out, err := run(t, "", "catalog", "validate", dir)
	require.Error(t, err)
	require.True(t, domain.IsKind(err, domain.ErrInvalidCatalog))
	require.Contains(t, out, "FAIL 2.0.0")
	require.Contains(t, out, "ok   1.0.0 (1 rules)")
}
