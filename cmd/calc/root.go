package calc

import (
	"fmt"

	"github.com/liliang-cn/calc-mcp/pkg/config"
	"github.com/liliang-cn/calc-mcp/pkg/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
	cfg     *config.Config
	version string = "dev"
)

var RootCmd = &cobra.Command{
	Use:   "calc",
	Short: "calc - integer arithmetic tools over MCP",
	Long: `calc hosts two Model Context Protocol tools, add_integers and divide_integers,
over standard input/output (default) or streamable HTTP. Without a subcommand it
starts the stdio server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need existing config
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	RunE: runServe,
}

func Execute() error {
	return RootCmd.Execute()
}

// GetRootCmd returns the root cobra command for testing purposes.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	RootCmd.Version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "calc version %s\n", version)
	},
}

// newLogger builds the invocation logger from the loaded configuration.
func newLogger() (*log.Logger, error) {
	logger, err := log.New(log.Options{
		Name:   cfg.Log.Name,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Stderr: cfg.Log.Stderr && !quiet,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if verbose {
		logger.SetDebug(true)
	}
	return logger, nil
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file path (default: ./calc.toml or ~/.calc/calc.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging output")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode, never mirror logs to stderr")

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(toolsCmd)
	RootCmd.AddCommand(callCmd)
	RootCmd.AddCommand(usageCmd)
}
