package cmd

import (
	"context"

	"github.com/oneconcern/ctxmon/pkg/core/status"
	"github.com/oneconcern/ctxmon/pkg/errors"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/spf13/cobra"
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Fast-forward a branch to another one",
	Long: `Fast-forward the target branch to the tip of the source branch.

The merge is rejected when the target branch moved since the source branch was created from it:
there is no three-way merge. Create a new branch from the target and apply the proposal again.

Exits with code 2 when the branches have diverged.`,
	Example: `% ctxmon merge --source job-42 --target main`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, closer, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer closer()

		err = repo.Merge(ctx, ctxmonFlags.merge.Source, ctxmonFlags.merge.Target)
		switch {
		case errors.Is(err, status.ErrNonFastForward):
			closer()
			wrapFatalWithCodef(exitDiverged, "cannot merge %q into %q: %v", ctxmonFlags.merge.Source, ctxmonFlags.merge.Target, err)
			return
		case err != nil:
			wrapFatalln("merge", err)
			return
		}
		infoLogger.Printf("merged %q into %q", ctxmonFlags.merge.Source, ctxmonFlags.merge.Target)
	},
}

func init() {
	fls := mergeCmd.Flags()
	fls.StringVar(&ctxmonFlags.merge.Source, "source", "", "The branch to merge")
	fls.StringVar(&ctxmonFlags.merge.Target, "target", model.DefaultBranch, "The branch to fast-forward")
	requireFlags(mergeCmd, "source")
	rootCmd.AddCommand(mergeCmd)
}
