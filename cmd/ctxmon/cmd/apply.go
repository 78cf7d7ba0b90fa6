package cmd

import (
	"context"
	"fmt"

	"github.com/oneconcern/ctxmon/pkg/core"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// appFs is the file system proposals are read from
var appFs = afero.NewOsFs()

// proposal describes a set of changes to commit as a single revision
type proposal struct {
	Message string        `yaml:"message"`
	Author  string        `yaml:"author"`
	Upsert  model.Content `yaml:"upsert"`
	Remove  model.Content `yaml:"remove"` // only identity fields are relevant
}

func readProposal(fs afero.Fs, path string) (*proposal, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var p proposal
	if err := yaml.UnmarshalStrict(b, &p); err != nil {
		return nil, fmt.Errorf("invalid proposal %s: %w", path, err)
	}
	return &p, nil
}

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Commit a proposal file on a branch",
	Long: `Apply the changes described by a YAML proposal file on top of a branch and commit them
as a single revision.

Entities listed under "upsert" are inserted or fully replaced. Entities listed under "remove"
are deleted: only their identity fields are needed. Removals are applied after upserts.`,
	Example: `% cat proposal.yaml
message: describe orders
author: job-42
upsert:
  table:
    - connectionId: ds1
      tableName: public.orders
      description: all orders placed on the web store
remove:
  metric:
    - id: m-7
% ctxmon apply --branch job-42 --file proposal.yaml
2FwFvlbMSePALGSDjgKBzWBwkIo`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		p, err := readProposal(appFs, ctxmonFlags.apply.File)
		if err != nil {
			wrapFatalln("read proposal", err)
			return
		}
		if ctxmonFlags.apply.Message != "" {
			p.Message = ctxmonFlags.apply.Message
		}
		if ctxmonFlags.apply.Author != "" {
			p.Author = ctxmonFlags.apply.Author
		}

		repo, closer, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer closer()

		wc, err := repo.Checkout(ctx, ctxmonFlags.apply.Branch)
		if err != nil {
			wrapFatalln("checkout "+ctxmonFlags.apply.Branch, err)
			return
		}
		for _, e := range p.Upsert.Entities() {
			wc.Upsert(e)
		}
		for _, e := range p.Remove.Entities() {
			wc.Remove(e)
		}

		id, err := repo.Commit(ctx, wc, ctxmonFlags.apply.Branch, core.Message(p.Message), core.Author(p.Author))
		if err != nil {
			wrapFatalln("commit", err)
			return
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
	},
}

func init() {
	addBranchFlag(applyCmd, &ctxmonFlags.apply.Branch, "The branch to commit to")
	fls := applyCmd.Flags()
	fls.StringVar(&ctxmonFlags.apply.File, "file", "", "The proposal file")
	fls.StringVar(&ctxmonFlags.apply.Message, "message", "", "The commit message. Overrides the message of the proposal")
	fls.StringVar(&ctxmonFlags.apply.Author, "author", "", "The commit author. Overrides the author of the proposal")
	requireFlags(applyCmd, "file")
	rootCmd.AddCommand(applyCmd)
}
