package calc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/liliang-cn/calc-mcp/pkg/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var (
	forceInit  bool
	outputPath string
)

const configHeader = `# calc configuration file
# Every key can be overridden with a CALC_<SECTION>_<KEY> environment variable,
# e.g. CALC_LOG_LEVEL=debug.

`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new calc configuration file",
	Long: `Initialize writes a calc.toml file with all default configuration values,
which you can then customize as needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := outputPath
		if configPath == "" {
			configPath = config.DefaultFileName
		}

		if !forceInit {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
			}
		}

		dir := filepath.Dir(configPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}

		content, err := generateDefaultConfig()
		if err != nil {
			return err
		}

		if err := os.WriteFile(configPath, content, 0644); err != nil {
			return fmt.Errorf("failed to write configuration file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", configPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing configuration file")
	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: ./calc.toml)")
}

func generateDefaultConfig() ([]byte, error) {
	body, err := toml.Marshal(config.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default configuration: %w", err)
	}
	return append([]byte(configHeader), body...), nil
}
