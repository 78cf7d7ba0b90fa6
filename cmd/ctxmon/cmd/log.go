package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/spf13/cobra"
)

// logEntry summarizes a revision, without its content
type logEntry struct {
	ID        model.RevisionID `json:"id" yaml:"id"`
	ParentID  model.RevisionID `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Depth     int              `json:"depth" yaml:"depth"`
	Message   string           `json:"message,omitempty" yaml:"message,omitempty"`
	Author    string           `json:"author,omitempty" yaml:"author,omitempty"`
	CreatedAt time.Time        `json:"createdAt" yaml:"createdAt"`
	Counts    model.Counts     `json:"counts" yaml:"counts"`
}

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Get the history of a branch",
	Long:  `Displays the revisions of a branch, newest first, with their messages`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, closer, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer closer()

		revisions, err := repo.Log(ctx, ctxmonFlags.log.Branch, ctxmonFlags.log.Limit)
		if err != nil {
			wrapFatalln("log "+ctxmonFlags.log.Branch, err)
			return
		}

		entries := make([]logEntry, 0, len(revisions))
		for _, rev := range revisions {
			entries = append(entries, logEntry{
				ID:        rev.ID,
				ParentID:  rev.ParentID,
				Depth:     rev.Depth,
				Message:   rev.Message,
				Author:    rev.Author,
				CreatedAt: rev.CreatedAt,
				Counts:    rev.Content.Count(),
			})
		}
		if err := render(cmd, entries); err != nil {
			wrapFatalln("print log", err)
		}
	},
}

func logFormatter() FormatterFunc {
	return func(w io.Writer, data interface{}) error {
		for _, e := range data.([]logEntry) {
			_, _ = fmt.Fprintf(w, "      ID: %s\n", color.MagentaString(e.ID.String()))
			if e.Author != "" {
				_, _ = fmt.Fprintf(w, "  Author: %s\n", color.YellowString(e.Author))
			}
			_, _ = fmt.Fprintf(w, "    Date: %s (%s ago)\n",
				color.YellowString(e.CreatedAt.Format(time.RFC3339)),
				units.HumanDuration(time.Since(e.CreatedAt)),
			)
			_, _ = fmt.Fprintf(w, "Entities: %d\n\n", e.Counts.Total())
			if _, err := fmt.Fprintf(w, "    %s\n\n", e.Message); err != nil {
				return err
			}
		}
		return nil
	}
}

func init() {
	addBranchFlag(logCmd, &ctxmonFlags.log.Branch, "The branch to list revisions of")
	logCmd.Flags().IntVar(&ctxmonFlags.log.Limit, "limit", 0, "The maximum number of revisions to list. 0 lists the whole history")
	addFormatFlag(logCmd, formatText, map[string]Formatter{
		formatText: logFormatter(),
	})
	rootCmd.AddCommand(logCmd)
}
