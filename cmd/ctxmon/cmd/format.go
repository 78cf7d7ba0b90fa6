package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
	formatText = "text"

	formatFlag = "format"
)

// Formatter renders the result of a command
type Formatter interface {
	Format(io.Writer, interface{}) error
}

// FormatterFunc turns a function into a Formatter
type FormatterFunc func(io.Writer, interface{}) error

// Format some data
func (f FormatterFunc) Format(w io.Writer, data interface{}) error {
	return f(w, data)
}

var (
	formatters = make(map[*cobra.Command]map[string]Formatter)

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

func yamlFormatter() FormatterFunc {
	return func(w io.Writer, data interface{}) error {
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
}

func jsonFormatter() FormatterFunc {
	return func(w io.Writer, data interface{}) error {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

// addFormatFlag adds a --format flag. Every command supports yaml and json, extra formats
// may be added, e.g. a text rendering.
func addFormatFlag(cmd *cobra.Command, defaultFormat string, extra map[string]Formatter) {
	available := map[string]Formatter{
		formatYAML: yamlFormatter(),
		formatJSON: jsonFormatter(),
	}
	for k, v := range extra {
		available[k] = v
	}
	formatters[cmd] = available

	names := make([]string, 0, len(available))
	for k := range available {
		names = append(names, k)
	}
	sort.Strings(names)
	cmd.Flags().String(formatFlag, defaultFormat, "The output format: one of "+strings.Join(names, ", "))
}

// render the result of a command to its output, in the format selected by --format
func render(cmd *cobra.Command, data interface{}) error {
	format, err := cmd.Flags().GetString(formatFlag)
	if err != nil {
		return err
	}
	f, ok := formatters[cmd][format]
	if !ok {
		return fmt.Errorf("unsupported output format %q", format)
	}
	return f.Format(cmd.OutOrStdout(), data)
}
