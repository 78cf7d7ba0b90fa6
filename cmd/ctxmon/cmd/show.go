package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/spf13/cobra"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the content of a branch",
	Long: `Show the context metadata at the tip of a branch.

The output may be restricted to a single kind of entity: table, column, metric or concept.`,
	Example: `% ctxmon show --branch main --kind table --format text
table ds1/public.orders: all orders placed on the web store`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		var kind model.Kind
		if ctxmonFlags.show.Kind != "" {
			k, err := model.ParseKind(ctxmonFlags.show.Kind)
			if err != nil {
				wrapFatalln("invalid --kind", err)
				return
			}
			kind = k
		}

		repo, closer, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer closer()

		wc, err := repo.Checkout(ctx, ctxmonFlags.show.Branch)
		if err != nil {
			wrapFatalln("checkout "+ctxmonFlags.show.Branch, err)
			return
		}
		if err := render(cmd, filterKind(wc.Snapshot(), kind)); err != nil {
			wrapFatalln("print content", err)
		}
	},
}

// filterKind empties all the lists of entities but the one of the selected kind
func filterKind(content model.Content, kind model.Kind) model.Content {
	if kind == "" {
		return content
	}
	filtered := model.Content{}.Sorted()
	switch kind {
	case model.KindTable:
		filtered.Table = content.Table
	case model.KindColumn:
		filtered.Column = content.Column
	case model.KindMetric:
		filtered.Metric = content.Metric
	case model.KindConcept:
		filtered.Concept = content.Concept
	}
	return filtered
}

func contentFormatter() FormatterFunc {
	return func(w io.Writer, data interface{}) error {
		content := data.(model.Content)
		if content.IsEmpty() {
			_, err := fmt.Fprintln(w, "no entity")
			return err
		}
		for _, e := range content.Entities() {
			_, _ = fmt.Fprintf(w, "%s %s%s\n", color.CyanString(e.Kind().String()), model.KeyOf(e), describe(e))
		}
		return nil
	}
}

type describer struct {
	text string
}

func (d *describer) VisitTable(e model.TableContext)   { d.text = optional(e.Description) }
func (d *describer) VisitColumn(e model.ColumnContext) { d.text = optional(e.Description) }
func (d *describer) VisitMetric(e model.Metric)        { d.text = e.Name + optionalWithSep(e.Description) }
func (d *describer) VisitConcept(e model.Concept)      { d.text = e.Name + optionalWithSep(e.Description) }

// describe renders the human readable part of an entity
func describe(e model.Entity) string {
	var d describer
	e.Accept(&d)
	if d.text == "" {
		return ""
	}
	return ": " + d.text
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalWithSep(s *string) string {
	if s == nil || *s == "" {
		return ""
	}
	return " - " + *s
}

func init() {
	addBranchFlag(showCmd, &ctxmonFlags.show.Branch, "The branch to show")
	showCmd.Flags().StringVar(&ctxmonFlags.show.Kind, "kind", "", "Restrict the output to one kind of entity: table, column, metric or concept")
	addFormatFlag(showCmd, formatYAML, map[string]Formatter{
		formatText: contentFormatter(),
	})
	rootCmd.AddCommand(showCmd)
}
