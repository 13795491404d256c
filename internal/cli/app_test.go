package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/negotiation"
)

type testTable struct {
	t   *testing.T
	dir string
	dsn string
}

func newTestTable(t *testing.T) *testTable {
	dir := t.TempDir()
	return &testTable{t: t, dir: dir, dsn: filepath.Join(dir, "parley.db")}
}

func (tt *testTable) run(args ...string) (string, error) {
	tt.t.Helper()
	base := []string{
		"--config", filepath.Join(tt.dir, "missing.yaml"),
		"--driver", "sqlite",
		"--dsn", tt.dsn,
	}
	cmd := NewApp().CreateRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (tt *testTable) mustRun(args ...string) string {
	tt.t.Helper()
	out, err := tt.run(args...)
	require.NoError(tt.t, err, "parley %s", strings.Join(args, " "))
	return out
}

func (tt *testTable) create() string {
	tt.t.Helper()
	path := filepath.Join(tt.dir, "troll.yaml")
	require.NoError(tt.t, os.WriteFile(path, []byte(bridgeTroll), 0o644))
	return strings.TrimSpace(tt.mustRun("new", "-f", path))
}

func (tt *testTable) show(id string) *domain.Negotiation {
	tt.t.Helper()
	var n domain.Negotiation
	require.NoError(tt.t, json.Unmarshal([]byte(tt.mustRun("show", id, "-o", "json")), &n))
	return &n
}

func TestNegotiationAtTheTable(t *testing.T) {
	tt := newTestTable(t)
	id := tt.create()
	require.NotEmpty(t, id)

	n := tt.show(id)
	assert.Equal(t, negotiation.StatusPreparing, n.Status)
	assert.Equal(t, "Grub the troll", n.NPCName)

	out := tt.mustRun("start", id)
	assert.Contains(t, out, "Patience: 3/5")

	out = tt.mustRun("argue", id, "--tier", "2", "--interest", "1", "--patience", "-1",
		"--motivation", "greed", "--desc", "Offer a silver ring")
	assert.Contains(t, out, "interest +1, patience -1")
	assert.Contains(t, out, "Interest: 3/5")

	out = tt.mustRun("reveal", id, "--motivation", "protection")
	assert.Contains(t, out, "protection")

	n = tt.show(id)
	assert.Equal(t, negotiation.StatusActive, n.Status)
	assert.Equal(t, 3, n.Counters.Interest)
	assert.Equal(t, 2, n.Counters.Patience)
	require.Len(t, n.Arguments, 1)
	m, ok := n.Traits.Motivation(negotiation.MotivationProtection)
	require.True(t, ok)
	assert.True(t, m.IsKnown)

	out = tt.mustRun("complete", id)
	assert.Contains(t, out, "major favor")

	_, err := tt.run("argue", id, "--tier", "1")
	assert.Error(t, err)

	out = tt.mustRun("history")
	assert.Contains(t, out, "Grub the troll")
}

func TestRevealPitfallAndTraits(t *testing.T) {
	tt := newTestTable(t)
	id := tt.create()
	tt.mustRun("start", id)

	out := tt.mustRun("traits", id)
	assert.Contains(t, out, "Concealed pitfalls: 1")

	tt.mustRun("reveal", id, "--pitfall", "0")

	out = tt.mustRun("traits", id)
	assert.Contains(t, out, "The flood that took his family")
	assert.Contains(t, out, "Concealed pitfalls: 0")

	_, err := tt.run("reveal", id)
	assert.Error(t, err)
	_, err = tt.run("reveal", id, "--pitfall", "7")
	assert.Error(t, err)
}

func TestRevealPitfallByDescription(t *testing.T) {
	tt := newTestTable(t)
	id := tt.create()
	tt.mustRun("start", id)

	tt.mustRun("reveal", id, "--pitfall", "the flood that took his family")
	out := tt.mustRun("traits", id)
	assert.Contains(t, out, "Concealed pitfalls: 0")

	_, err := tt.run("reveal", id, "--pitfall", "bridges")
	assert.ErrorIs(t, err, negotiation.ErrNotFound)

	_, err = tt.run("reveal", id, "--pitfall", "0", "--motivation", "greed")
	assert.Error(t, err)
}

func TestPatienceExhaustionEndsNegotiation(t *testing.T) {
	tt := newTestTable(t)
	id := tt.create()
	tt.mustRun("start", id)

	out := tt.mustRun("argue", id, "--tier", "1", "--patience", "-3", "--desc", "Mention the flood")
	assert.Contains(t, out, "run out of patience")
	assert.Contains(t, out, "failure")

	n := tt.show(id)
	assert.True(t, n.IsCompleted())
	require.NotNil(t, n.Outcome)
	assert.Equal(t, negotiation.OutcomeFailure, *n.Outcome)
}

func TestArgueBeforeStartFails(t *testing.T) {
	tt := newTestTable(t)
	id := tt.create()

	_, err := tt.run("argue", id, "--tier", "1")
	assert.ErrorIs(t, err, negotiation.ErrInvalidState)

	_, err = tt.run("reveal", id, "--pitfall", "0")
	assert.ErrorIs(t, err, negotiation.ErrInvalidState)
}

func TestCampaignsAreSeparate(t *testing.T) {
	tt := newTestTable(t)
	id := tt.create()

	out := tt.mustRun("list")
	assert.Contains(t, out, id)

	out = tt.mustRun("list", "--campaign", "elsewhere")
	assert.Contains(t, out, "no negotiations")

	_, err := tt.run("show", id, "--campaign", "elsewhere")
	assert.Error(t, err)
}

func TestDeleteOnlyBeforeCompletion(t *testing.T) {
	tt := newTestTable(t)
	keep := tt.create()
	drop := tt.create()

	tt.mustRun("delete", drop)
	_, err := tt.run("show", drop)
	assert.Error(t, err)

	tt.mustRun("start", keep)
	tt.mustRun("complete", keep)
	_, err = tt.run("delete", keep)
	assert.ErrorIs(t, err, domain.ErrNegotiationFinalized)
}

func TestExportImport(t *testing.T) {
	src := newTestTable(t)
	id := src.create()
	src.mustRun("start", id)
	src.mustRun("argue", id, "--tier", "3", "--interest", "2", "--motivation", "greed")
	src.mustRun("complete", id)

	snapshot := filepath.Join(src.dir, "snapshot.json")
	src.mustRun("export", id, "-f", snapshot)

	dst := newTestTable(t)
	out := dst.mustRun("import", "-f", snapshot)
	assert.Equal(t, id, strings.TrimSpace(out))

	n := dst.show(id)
	assert.True(t, n.IsCompleted())
	assert.Equal(t, 4, n.Counters.Interest)
	assert.Contains(t, dst.mustRun("history"), "Grub the troll")

	_, err := dst.run("import", "-f", snapshot)
	assert.Error(t, err)
}

func TestExportTemplate(t *testing.T) {
	tt := newTestTable(t)
	id := tt.create()
	tt.mustRun("start", id)
	tt.mustRun("reveal", id, "--pitfall", "0")

	out := tt.mustRun("export", id, "--template")
	tmpl, err := LoadTemplate(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "Grub the troll", tmpl.NPC)
	require.Len(t, tmpl.Pitfalls, 2)
	assert.True(t, tmpl.Pitfalls[0].Known)
}

func TestShowYAML(t *testing.T) {
	tt := newTestTable(t)
	id := tt.create()

	out := tt.mustRun("show", id, "-o", "yaml")
	assert.Contains(t, out, "npc_name: Grub the troll")
	assert.Contains(t, out, "status: preparing")

	_, err := tt.run("show", id, "-o", "xml")
	assert.Error(t, err)
}
