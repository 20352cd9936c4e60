package calc

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/liliang-cn/calc-mcp/pkg/usage"
	"github.com/spf13/cobra"
)

var (
	usageTool  string
	usageLimit int
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show invocation journal statistics",
	Long:  `Show per-tool statistics and the most recent invocations recorded in the usage journal.`,
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().StringVar(&usageTool, "tool", "", "only show this tool")
	usageCmd.Flags().IntVarP(&usageLimit, "limit", "n", 10, "number of recent invocations to show")
}

func runUsage(cmd *cobra.Command, args []string) error {
	if !cfg.Usage.Enabled {
		return fmt.Errorf("usage journal is disabled (set usage.enabled = true)")
	}

	service, err := usage.NewService(cfg.Usage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open usage journal: %w", err)
	}
	defer service.Close()

	ctx := cmd.Context()
	filter := &usage.UsageFilter{Tool: usageTool}

	stats, err := service.GetToolStats(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get usage stats: %w", err)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tCALLS\tOK\tFAILED\tAVG LATENCY")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1fms\n", s.Tool, s.TotalCalls, s.SuccessCalls, s.FailedCalls, s.AverageLatency)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if usageLimit <= 0 {
		return nil
	}

	filter.Limit = usageLimit
	records, err := service.ListInvocations(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list invocations: %w", err)
	}

	fmt.Fprintf(out, "\nRecent invocations (%d):\n", len(records))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTOOL\tARGUMENTS\tOUTCOME")
	for _, r := range records {
		outcome := r.Result
		if !r.Success {
			outcome = fmt.Sprintf("error %d: %s", r.ErrorCode, r.ErrorMessage)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.CreatedAt.Format(time.DateTime), r.Tool, r.Arguments, outcome)
	}
	return w.Flush()
}
