package cmd

import (
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type flagsT struct {
	root struct {
		logLevel string
	}
	branch struct {
		Name string
		From string
	}
	show struct {
		Branch string
		Kind   string
	}
	diff struct {
		From string
		To   string
	}
	merge struct {
		Source string
		Target string
	}
	apply struct {
		Branch  string
		File    string
		Message string
		Author  string
	}
	log struct {
		Branch string
		Limit  int
	}
}

var ctxmonFlags flagsT

func addLogLevelFlag(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&ctxmonFlags.root.logLevel, "loglevel", "", "The logging level: one of none, debug, info, warn, error. Overrides log.level from the config")
	_ = viper.BindPFlag("log.level", flags.Lookup("loglevel"))
}

func addBranchFlag(cmd *cobra.Command, target *string, usage string) {
	cmd.Flags().StringVar(target, "branch", model.DefaultBranch, usage)
}

func requireFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			wrapFatalln("flag "+name, err)
		}
	}
}
