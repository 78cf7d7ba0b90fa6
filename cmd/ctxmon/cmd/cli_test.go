package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type exitMocks struct {
	fatalCalls []string
	exitCodes  []int
}

func (m *exitMocks) Fatalf(format string, v ...interface{}) {
	m.fatalCalls = append(m.fatalCalls, fmt.Sprintf(format, v...))
}

func (m *exitMocks) Fatalln(v ...interface{}) {
	m.fatalCalls = append(m.fatalCalls, fmt.Sprintln(v...))
}

func (m *exitMocks) Exit(code int) {
	m.exitCodes = append(m.exitCodes, code)
}

// setupTests points the CLI to a fresh badger store and an in-memory file system
func setupTests(t *testing.T) *exitMocks {
	mocks := new(exitMocks)
	logFatalf, logFatalln, osExit = mocks.Fatalf, mocks.Fatalln, mocks.Exit
	appFs = afero.NewMemMapFs()
	color.NoColor = true

	t.Setenv("CTXMON_STORE_BACKEND", backendBadger)
	t.Setenv("CTXMON_STORE_BADGER_DIR", t.TempDir())
	t.Setenv("CTXMON_LOG_LEVEL", "none")
	return mocks
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCmd(t *testing.T, args ...string) string {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), "ctxmon %s", strings.Join(args, " "))
	return out.String()
}

func writeProposal(t *testing.T, path, content string) {
	require.NoError(t, afero.WriteFile(appFs, path, []byte(content), 0o600))
}

const proposalOrders = `message: describe orders
author: job-42
upsert:
  table:
    - connectionId: ds1
      tableName: public.orders
      description: all orders
  metric:
    - id: m-1
      name: revenue
      formula: sum(amount)
`

func TestProposalWorkflow(t *testing.T) {
	mocks := setupTests(t)

	runCmd(t, "branch", "create", "--name", "job-42", "--from", "main")
	writeProposal(t, "/proposal.yaml", proposalOrders)
	out := runCmd(t, "apply", "--branch", "job-42", "--file", "/proposal.yaml")
	require.Empty(t, mocks.fatalCalls)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	// main is untouched
	out = runCmd(t, "show", "--branch", "main", "--format", "text")
	assert.Equal(t, "no entity\n", out)

	out = runCmd(t, "show", "--branch", "job-42", "--format", "text")
	assert.Equal(t, "table ds1/public.orders: all orders\nmetric m-1: revenue\n", out)

	out = runCmd(t, "show", "--branch", "job-42", "--kind", "metric", "--format", "yaml")
	var shown model.Content
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Empty(t, shown.Table)
	require.Len(t, shown.Metric, 1)
	assert.Equal(t, "sum(amount)", *shown.Metric[0].Formula)

	out = runCmd(t, "diff", "--from", "main", "--to", "job-42", "--format", "text")
	assert.Equal(t, "A table ds1/public.orders\nA metric m-1\n", out)

	runCmd(t, "merge", "--source", "job-42", "--target", "main")
	require.Empty(t, mocks.fatalCalls)

	out = runCmd(t, "branch", "list", "--format", "text")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^\s+job-42\s+`+id+`\s*$`, lines[0])
	assert.Regexp(t, `^\*\s+main\s+`+id+`\s*$`, lines[1])

	out = runCmd(t, "branch", "list", "--format", "json")
	assert.Contains(t, out, `"name": "job-42"`)

	out = runCmd(t, "log", "--branch", "main", "--limit", "1", "--format", "yaml")
	var entries []logEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, model.RevisionID(id), entries[0].ID)
	assert.Equal(t, "describe orders", entries[0].Message)
	assert.Equal(t, "job-42", entries[0].Author)
	assert.Equal(t, 2, entries[0].Counts.Total())

	out = runCmd(t, "log", "--branch", "main", "--format", "text")
	assert.Contains(t, out, "describe orders")
	assert.Contains(t, out, "initial revision")
}

func TestApplyRemovals(t *testing.T) {
	mocks := setupTests(t)

	writeProposal(t, "/orders.yaml", proposalOrders)
	runCmd(t, "apply", "--file", "/orders.yaml")
	writeProposal(t, "/cleanup.yaml", `remove:
  metric:
    - id: m-1
`)
	runCmd(t, "apply", "--file", "/cleanup.yaml", "--message", "drop revenue")
	require.Empty(t, mocks.fatalCalls)

	out := runCmd(t, "show", "--format", "json")
	assert.Contains(t, out, `"tableName": "public.orders"`)
	assert.NotContains(t, out, "revenue")

	out = runCmd(t, "log", "--format", "json", "--limit", "1")
	assert.Contains(t, out, `"message": "drop revenue"`)
}

func TestDivergedMerge(t *testing.T) {
	mocks := setupTests(t)

	runCmd(t, "branch", "create", "--name", "job-1")
	writeProposal(t, "/orders.yaml", proposalOrders)
	runCmd(t, "apply", "--branch", "main", "--file", "/orders.yaml")
	runCmd(t, "apply", "--branch", "job-1", "--file", "/orders.yaml")
	require.Empty(t, mocks.fatalCalls)

	runCmd(t, "merge", "--source", "job-1")
	assert.Equal(t, []int{exitDiverged}, mocks.exitCodes)
	assert.Empty(t, mocks.fatalCalls)
}

func TestCommandErrors(t *testing.T) {
	mocks := setupTests(t)

	runCmd(t, "show", "--branch", "missing")
	require.Len(t, mocks.fatalCalls, 1)
	assert.Contains(t, mocks.fatalCalls[0], "branch not found")

	runCmd(t, "branch", "create", "--name", "bad name")
	require.Len(t, mocks.fatalCalls, 2)
	assert.Contains(t, mocks.fatalCalls[1], "invalid branch name")

	writeProposal(t, "/unknown.yaml", "upsert:\n  dashboard: []\n")
	runCmd(t, "apply", "--file", "/unknown.yaml")
	require.Len(t, mocks.fatalCalls, 3)
	assert.Contains(t, mocks.fatalCalls[2], "invalid proposal")

	writeProposal(t, "/invalid.yaml", "upsert:\n  metric:\n    - id: m-1\n")
	runCmd(t, "apply", "--file", "/invalid.yaml")
	require.Len(t, mocks.fatalCalls, 4)
	assert.Contains(t, mocks.fatalCalls[3], "invalid entity")

	runCmd(t, "show", "--kind", "dashboard")
	require.Len(t, mocks.fatalCalls, 5)
	assert.Contains(t, mocks.fatalCalls[4], "unknown entity kind")
}

func TestConfigDump(t *testing.T) {
	mocks := setupTests(t)
	t.Setenv("CTXMON_STORE_BADGER_INMEMORY", "true")

	out := runCmd(t, "config", "dump")
	require.Empty(t, mocks.fatalCalls)

	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, backendBadger, cfg.Store.Backend)
	assert.True(t, cfg.Store.Badger.InMemory)
	assert.Equal(t, "none", cfg.Log.Level)
	assert.Equal(t, "ctxmon", cfg.Store.Postgres.Schema)

	t.Setenv("CTXMON_STORE_BACKEND", "mysql")
	runCmd(t, "config", "dump")
	require.NotEmpty(t, mocks.fatalCalls)
	assert.Contains(t, mocks.fatalCalls[0], "unsupported store backend")
}

func TestTracedStore(t *testing.T) {
	mocks := setupTests(t)
	t.Setenv("CTXMON_TRACE", "true")
	t.Setenv("JAEGER_AGENT_HOST", "127.0.0.1")
	t.Setenv("JAEGER_DISABLED", "false")

	runCmd(t, "branch", "create", "--name", "traced")
	out := runCmd(t, "branch", "list", "--format", "yaml")
	require.Empty(t, mocks.fatalCalls)
	assert.Contains(t, out, "name: traced")
}
