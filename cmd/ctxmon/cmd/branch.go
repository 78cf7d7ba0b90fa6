package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/spf13/cobra"
)

// branchCmd represents the branch related commands
var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Commands to manage branches",
	Long: `Commands to manage branches.

A branch is a named pointer to a revision of the context metadata.
The "main" branch always exists: it holds the shared, reviewed history.
Proposals are made on other branches, then merged into main when main did not move in the meantime.
`,
}

// branchListCmd represents the branch list command
var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List branches",
	Long:  `List all branches with the revision they point to.`,
	Example: `% ctxmon branch list
  job-42 2FwFvlbMSePALGSDjgKBzWBwkIo
* main   2FwFuAvaImkYqsX2ZH8yOtuDnd1`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, closer, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer closer()

		branches, err := repo.Branches(ctx)
		if err != nil {
			wrapFatalln("list branches", err)
			return
		}
		if err := render(cmd, branches); err != nil {
			wrapFatalln("print branches", err)
		}
	},
}

// branchCreateCmd represents the branch create command
var branchCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a branch",
	Long: `Create a branch pointing to the current tip of another branch.

The new branch evolves independently: commits on either branch are not visible from the other one
until a merge links them.`,
	Example: `% ctxmon branch create --name job-42 --from main`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, closer, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer closer()

		if err := repo.CreateBranch(ctx, ctxmonFlags.branch.Name, ctxmonFlags.branch.From); err != nil {
			wrapFatalln("create branch", err)
			return
		}
		infoLogger.Printf("branch %q created from %q", ctxmonFlags.branch.Name, ctxmonFlags.branch.From)
	},
}

func branchListFormatter() FormatterFunc {
	return func(w io.Writer, data interface{}) error {
		table := uitable.New()
		table.Separator = " "
		for _, b := range data.([]model.Branch) {
			mark := ""
			if b.Name == model.DefaultBranch {
				mark = color.YellowString("*")
			}
			table.AddRow(mark, b.Name, b.RevisionID.String())
		}
		_, err := fmt.Fprintln(w, table)
		return err
	}
}

func init() {
	addFormatFlag(branchListCmd, formatText, map[string]Formatter{
		formatText: branchListFormatter(),
	})
	branchCmd.AddCommand(branchListCmd)

	fls := branchCreateCmd.Flags()
	fls.StringVar(&ctxmonFlags.branch.Name, "name", "", "The name of the branch to create")
	fls.StringVar(&ctxmonFlags.branch.From, "from", model.DefaultBranch, "The branch to start from")
	requireFlags(branchCreateCmd, "name")
	branchCmd.AddCommand(branchCreateCmd)

	rootCmd.AddCommand(branchCmd)
}
