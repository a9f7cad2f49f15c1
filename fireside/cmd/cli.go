package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/fireside/collections"
)

// CLI wires the Viper-driven command tree over the client library.
type CLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
}

// NewCLI creates the fully wired CLI.
func NewCLI() *CLI {
	cli := &CLI{viperInst: viper.New()}

	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()

	return cli
}

// setupViperConfig configures Viper with environment variables and config files
func (cli *CLI) setupViperConfig() {
	// FIRESIDE_CONFIG points at a custom config file; otherwise use
	// default discovery.
	if configFile := os.Getenv("FIRESIDE_CONFIG"); configFile != "" {
		cli.viperInst.SetConfigFile(configFile)
	} else {
		cli.viperInst.SetConfigName("fireside")
		cli.viperInst.SetConfigType("json")
		cli.viperInst.AddConfigPath(".")
		cli.viperInst.AddConfigPath("$HOME/.fireside")
		cli.viperInst.AddConfigPath("/etc/fireside")
	}

	cli.viperInst.AutomaticEnv()
	cli.viperInst.SetEnvPrefix("FIRESIDE")

	// Replace dash with underscore in env vars (e.g., --api-key -> FIRESIDE_API_KEY)
	cli.viperInst.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Read config file if it exists (ignore errors)
	_ = cli.viperInst.ReadInConfig()
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "fireside",
		Short: "Fireside CLI - cloud document database management",
		Long: `Fireside CLI manages a cloud document database over its REST API:
document CRUD, collection discovery, schema management, and data
import/export.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (FIRESIDE_*)
3. Configuration files (custom path or default locations)

Configuration File Discovery:
  FIRESIDE_CONFIG=/path/to/config.json  # Custom config file path
  ./fireside.json                       # Current directory
  ~/.fireside/fireside.json             # User directory
  /etc/fireside/fireside.json           # System directory

Examples:
  # Credentials from environment
  export FIRESIDE_PROJECT=my-project FIRESIDE_API_KEY=...
  fireside collections list

  # Create a document from JSON
  fireside data create -c users --json '{"name": "Ada", "age": 36}'

  # Interactive creation guided by the inferred schema
  fireside data create -c users --interactive

  # Snapshot every collection
  fireside data backup -d ./backups`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = cli.viperInst.BindPFlags(cmd.Flags())
			level := cli.viperInst.GetString("log-level")
			if cli.viperInst.GetBool("quiet") {
				level = "error"
			}
			return initLogging(level, cli.viperInst.GetBool("verbose"))
		},
	}

	cli.addGlobalFlags()
}

func (cli *CLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()

	// Connection configuration
	flags.StringP("project", "p", "", "Project ID (required)")
	flags.String("api-key", "", "API key (required)")
	flags.String("endpoint", "", "Override the REST endpoint, e.g. a local emulator")

	// Output configuration
	flags.StringP("format", "f", "table", "Output format (table|json|yaml)")

	// Logging
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "Also log to stderr")
	flags.BoolP("quiet", "q", false, "Only log errors")
}

func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.newDataCommand(),
		cli.newCollectionsCommand(),
		cli.newSchemaCommand(),
	)
}

// Execute runs the CLI.
func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// newClient builds a client from the resolved configuration.
func (cli *CLI) newClient() (*fireside.Client, error) {
	project := cli.viperInst.GetString("project")
	apiKey := cli.viperInst.GetString("api-key")
	if project == "" {
		return nil, NewConfigError("connect", "no project ID configured",
			"Pass --project or set FIRESIDE_PROJECT",
			"Add \"project\" to ./fireside.json")
	}
	if apiKey == "" {
		return nil, NewConfigError("connect", "no API key configured",
			"Pass --api-key or set FIRESIDE_API_KEY",
			"Add \"api-key\" to ./fireside.json")
	}

	opts := []fireside.Option{fireside.WithLogger(slog.Default())}
	if endpoint := cli.viperInst.GetString("endpoint"); endpoint != "" {
		opts = append(opts, fireside.WithBaseURL(endpoint))
	}

	client, err := fireside.New(project, apiKey, opts...)
	if err != nil {
		return nil, NewStoreError("connect", err)
	}
	return client, nil
}

func (cli *CLI) newInspector() (*fireside.Client, *collections.Inspector, error) {
	client, err := cli.newClient()
	if err != nil {
		return nil, nil, err
	}
	return client, collections.NewInspector(client), nil
}

func (cli *CLI) format() string {
	return cli.viperInst.GetString("format")
}
