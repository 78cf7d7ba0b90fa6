package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	backendBadger   = "badger"
	backendPostgres = "postgres"
)

// Config describes the CLI configuration.
type Config struct {
	Store StoreConfig `json:"store" yaml:"store" mapstructure:"store"`
	Log   LogConfig   `json:"log" yaml:"log" mapstructure:"log"`
	Trace bool        `json:"trace" yaml:"trace" mapstructure:"trace"` // report store operations to the global opentracing tracer
}

// StoreConfig selects and configures the store backend
type StoreConfig struct {
	Backend  string         `json:"backend" yaml:"backend" mapstructure:"backend"`
	Badger   BadgerConfig   `json:"badger" yaml:"badger" mapstructure:"badger"`
	Postgres PostgresConfig `json:"postgres" yaml:"postgres" mapstructure:"postgres"`
}

// BadgerConfig configures the embedded badger store
type BadgerConfig struct {
	Dir      string `json:"dir" yaml:"dir" mapstructure:"dir"`
	InMemory bool   `json:"inMemory" yaml:"inMemory" mapstructure:"inMemory"`
}

// PostgresConfig configures the postgres store
type PostgresConfig struct {
	URL    string `json:"url" yaml:"url" mapstructure:"url"`
	Schema string `json:"schema" yaml:"schema" mapstructure:"schema"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

func setConfigDefaults() {
	viper.SetDefault("store.backend", backendBadger)
	viper.SetDefault("store.badger.dir", ".ctxmon")
	viper.SetDefault("store.badger.inMemory", false)
	viper.SetDefault("store.postgres.url", "")
	viper.SetDefault("store.postgres.schema", "ctxmon")
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("trace", false)
}

func newConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case backendBadger:
		if c.Store.Badger.Dir == "" && !c.Store.Badger.InMemory {
			return fmt.Errorf("store.badger.dir is required")
		}
	case backendPostgres:
		if c.Store.Postgres.URL == "" {
			return fmt.Errorf("store.postgres.url is required with the %s backend", backendPostgres)
		}
	default:
		return fmt.Errorf("unsupported store backend %q: expected %s or %s", c.Store.Backend, backendBadger, backendPostgres)
	}
	return nil
}

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the config of ctxmon",
	Long: `Commands to manage the config of ctxmon.

The configuration is read from ctxmon.yaml in the current directory, $HOME/.ctxmon or /etc/ctxmon,
or from the file designated by $CTXMON_CONFIG.
Every key may be overridden by an environment variable, e.g. CTXMON_STORE_BACKEND=postgres.`,
}

// configDumpCmd represents the config dump command
var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the config used",
	Long:  `Print the config used by the invocation of the ctxmon command`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := render(cmd, config); err != nil {
			wrapFatalln("print config", err)
		}
	},
}

func init() {
	addFormatFlag(configDumpCmd, formatYAML, nil)
	configCmd.AddCommand(configDumpCmd)
	rootCmd.AddCommand(configCmd)
}
