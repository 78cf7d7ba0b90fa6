package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ctxmon",
	Short: "ctxmon versions context metadata on branches",
	Long: `ctxmon versions the context metadata which describes data warehouses:
table and column descriptions, business metrics and concepts.

Changes are proposed on isolated branches, reviewed as a diff, then fast-forwarded
onto the shared "main" branch.

ctxmon works by providing a git like interface over a badger or postgres store.
`,
	SilenceUsage: true,
}

var config *Config

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addLogLevelFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigDefaults()
	if os.Getenv("CTXMON_CONFIG") != "" {
		// Use config file from the environment.
		viper.SetConfigFile(os.Getenv("CTXMON_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.ctxmon")
		viper.AddConfigPath("/etc/ctxmon")
		viper.SetConfigName("ctxmon")
	}

	viper.SetEnvPrefix("ctxmon")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		infoLogger.Println("Using config file:", viper.ConfigFileUsed())
	}

	cfg, err := newConfig()
	if err != nil {
		wrapFatalln("invalid configuration", err)
		return
	}
	config = cfg
}
