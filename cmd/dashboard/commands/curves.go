package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

// curvesCmd represents the curves command
var curvesCmd = &cobra.Command{
	Use:   "curves",
	Short: "Print channel contributions and response-curve saturation",
	Long: `Fetches the contributions and response curves for the signed-in
user. For each channel it prints the spend level past which the marginal
response falls below --threshold of its peak.

Example:
  go run ./cmd/dashboard curves
  go run ./cmd/dashboard curves --threshold 0.25`,
	RunE: runCurves,
}

var (
	curvesThreshold float64
)

func init() {
	rootCmd.AddCommand(curvesCmd)

	// Flags
	curvesCmd.Flags().Float64Var(&curvesThreshold, "threshold", 0.5, "fraction of peak marginal response that marks saturation")
}

func runCurves(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if curvesThreshold <= 0 || curvesThreshold >= 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", curvesThreshold)
	}

	rt, err := bootstrapCLI(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.requireSession(ctx); err != nil {
		PrintError(err.Error())
		return err
	}

	contributions, err := rt.controller.Contributions(ctx)
	if err != nil {
		PrintError(contracts.UserMessage(err).Message)
		return err
	}
	curves, err := rt.controller.ResponseCurves(ctx)
	if err != nil {
		PrintError(contracts.UserMessage(err).Message)
		return err
	}

	PrintHeader("Channel Contributions", "")
	widths := []int{16, 14, 7, 14}
	PrintTableHeader([]string{"Channel", "Spend", "ROI", "Contribution"}, widths)
	for _, c := range contributions.Data {
		PrintTableRow([]string{
			c.Channel,
			FormatMoney(c.Spend),
			fmt.Sprintf("%.2fx", c.ROI),
			FormatMoney(c.Contribution),
		}, widths)
	}

	fmt.Println()
	fmt.Printf("Response Curves (saturation at %.0f%% of peak marginal response)\n", curvesThreshold*100)
	widths = []int{16, 8, 18}
	PrintTableHeader([]string{"Channel", "Points", "Saturates at"}, widths)
	for _, name := range curves.Channels() {
		points := curves.Data[name]
		saturation := "beyond sampled range"
		if spend, ok := contracts.Saturation(points, curvesThreshold); ok {
			saturation = FormatMoney(spend)
		}
		PrintTableRow([]string{name, fmt.Sprintf("%d", len(points)), saturation}, widths)
	}
	PrintDoubleSeparator()
	return nil
}
