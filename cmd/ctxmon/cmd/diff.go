package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/oneconcern/ctxmon/pkg/core"
	"github.com/spf13/cobra"
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Diff two branches",
	Long: `Show what changes when going from the tip of a branch to the tip of another one.

This is what a merge of --to into --from would change, when it is a fast-forward.

Entries are marked A when the entity is only on --to, D when it is only on --from
and U when both branches hold different versions of the entity.`,
	Example: `% ctxmon diff --from main --to job-42 --format text
A table ds1/public.customers
U metric m-7`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, closer, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer closer()

		diff, err := repo.DiffBranches(ctx, ctxmonFlags.diff.From, ctxmonFlags.diff.To)
		if err != nil {
			wrapFatalln("diff branches", err)
			return
		}
		if diff.IsEmpty() {
			// sending this out to stderr (<= no result)
			infoLogger.Println("empty diff")
			return
		}
		if err := render(cmd, diff); err != nil {
			wrapFatalln("print diff", err)
		}
	},
}

func diffFormatter() FormatterFunc {
	return func(w io.Writer, data interface{}) error {
		diff := data.(core.Diff)
		for _, de := range diff.Entries() {
			var mark string
			switch de.Type {
			case core.DiffEntryTypeAdd:
				mark = color.GreenString(de.Type.String())
			case core.DiffEntryTypeDel:
				mark = color.RedString(de.Type.String())
			default:
				mark = color.YellowString(de.Type.String())
			}
			if _, err := fmt.Fprintf(w, "%s %s %s\n", mark, de.Kind, de.Key); err != nil {
				return err
			}
		}
		return nil
	}
}

func init() {
	fls := diffCmd.Flags()
	fls.StringVar(&ctxmonFlags.diff.From, "from", "main", "The branch to compare from")
	fls.StringVar(&ctxmonFlags.diff.To, "to", "", "The branch to compare to")
	requireFlags(diffCmd, "to")
	addFormatFlag(diffCmd, formatText, map[string]Formatter{
		formatText: diffFormatter(),
	})
	rootCmd.AddCommand(diffCmd)
}
