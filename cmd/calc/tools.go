package calc

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/liliang-cn/calc-mcp/pkg/log"
	"github.com/liliang-cn/calc-mcp/pkg/mcp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var toolsFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools and their schemas",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVarP(&toolsFormat, "format", "f", "text", "output format: text, json or yaml")
}

func runTools(cmd *cobra.Command, args []string) error {
	srv := mcp.NewServer(mcp.Options{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
		Logger:  log.Discard().Logger,
	})

	client, err := mcp.NewInProcessClient(cmd.Context(), srv)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	tools := client.ListTools()
	out := cmd.OutOrStdout()

	switch toolsFormat {
	case "json":
		output, err := json.MarshalIndent(tools, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal tools: %w", err)
		}
		fmt.Fprintln(out, string(output))
	case "yaml":
		return writeYAML(out, tools)
	case "text", "":
		fmt.Fprintf(out, "Found %d tools:\n\n", len(tools))
		for _, tool := range tools {
			fmt.Fprintf(out, "  • %s - %s\n", tool.Name, tool.Description)
		}
	default:
		return fmt.Errorf("unsupported format: %s", toolsFormat)
	}
	return nil
}

// writeYAML renders v through its JSON form so schema fields keep their
// JSON names.
func writeYAML(out io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal tools: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to decode tools: %w", err)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
