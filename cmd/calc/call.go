package calc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liliang-cn/calc-mcp/pkg/mcp"
	"github.com/spf13/cobra"
)

var (
	callA         int64
	callB         int64
	callServerCmd string
	callURL       string
	callJSON      bool
)

var callCmd = &cobra.Command{
	Use:   "call [tool-name]",
	Short: "Invoke a tool",
	Long: `Invoke add_integers or divide_integers. By default the tool runs in-process;
use --server-cmd to spawn a stdio server or --url to reach an HTTP server.`,
	Example: `  calc call add_integers --a 2 --b 3
  calc call divide_integers --a 7 --b 2 --server-cmd "calc serve"
  calc call divide_integers --a 7 --b 2 --url http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	callCmd.Flags().Int64Var(&callA, "a", 0, "first integer")
	callCmd.Flags().Int64Var(&callB, "b", 0, "second integer")
	callCmd.Flags().StringVar(&callServerCmd, "server-cmd", "", "command line of a stdio calc server to spawn")
	callCmd.Flags().StringVar(&callURL, "url", "", "endpoint of a streamable HTTP calc server")
	callCmd.Flags().BoolVarP(&callJSON, "json", "j", false, "output in JSON format")
}

func runCall(cmd *cobra.Command, args []string) error {
	if callServerCmd != "" && callURL != "" {
		return fmt.Errorf("--server-cmd and --url are mutually exclusive")
	}

	ctx := cmd.Context()
	var (
		client *mcp.Client
		err    error
	)

	switch {
	case callURL != "":
		client, err = mcp.NewClient(&mcp.ClientConfig{Name: callURL, Type: mcp.ServerTypeHTTP, URL: callURL})
		if err == nil {
			err = client.Connect(ctx)
		}
	case callServerCmd != "":
		command := strings.Fields(callServerCmd)
		if len(command) == 0 {
			return fmt.Errorf("--server-cmd cannot be blank")
		}
		client, err = mcp.NewClient(&mcp.ClientConfig{Name: command[0], Type: mcp.ServerTypeStdio, Command: command})
		if err == nil {
			err = client.Connect(ctx)
		}
	default:
		logger, lerr := newLogger()
		if lerr != nil {
			return lerr
		}
		defer logger.Close()

		srv, cleanup, serr := buildServer(logger)
		if serr != nil {
			return serr
		}
		defer cleanup()

		client, err = mcp.NewInProcessClient(ctx, srv)
	}
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	result, err := client.CallTool(ctx, args[0], map[string]any{"a": callA, "b": callB})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if callJSON {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(out, string(output))
	} else if result.Success {
		fmt.Fprintln(out, result.Text)
	}

	if !result.Success {
		return fmt.Errorf("tool %s failed: %s", args[0], result.Text)
	}
	return nil
}
