package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the MMM dashboard",
	Long: `Fetches the MMM summary for the signed-in user and prints the
summary cards, the ROI ranking, spend shares and insights.

Example:
  go run ./cmd/dashboard report`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := bootstrapCLI(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.requireSession(ctx); err != nil {
		PrintError(err.Error())
		return err
	}

	if err := rt.controller.Refresh(ctx); err != nil {
		PrintError(contracts.UserMessage(err).Message)
		return err
	}

	view := rt.controller.Dashboard()
	if view.Problem != nil {
		PrintWarning(view.Problem.Message)
		return nil
	}
	if view.Derived == nil {
		return fmt.Errorf("no dataset loaded")
	}

	printDerived(view.Session.Username(), view.Derived)
	return nil
}

func printDerived(user string, d *contracts.DerivedView) {
	PrintHeader("MMM Dashboard", fmt.Sprintf("Welcome back, %s", user))

	s := d.Summary
	PrintKeyValue("Total Spend", FormatMoney(s.TotalSpend), 14)
	PrintKeyValue("Total Revenue", FormatMoney(s.TotalRevenue), 14)
	PrintKeyValue("Net Profit", FormatMoney(s.NetProfit), 14)
	PrintKeyValue("Overall ROI", fmt.Sprintf("%.2fx", s.OverallROI), 14)
	PrintKeyValue("Total KPI", fmt.Sprintf("%.0f", s.TotalKPI), 14)
	PrintKeyValue("Channels", fmt.Sprintf("%d", s.NumChannels), 14)
	PrintKeyValue("Geos", fmt.Sprintf("%d", s.NumGeos), 14)
	PrintKeyValue("Time Periods", fmt.Sprintf("%d", s.NumTimePeriods), 14)

	fmt.Println()
	fmt.Println("ROI by Channel")
	widths := []int{4, 16, 7, 12, 30}
	PrintTableHeader([]string{"#", "Channel", "ROI", "Tier", "Relative"}, widths)
	for _, rc := range d.RankedChannels {
		PrintTableRow([]string{
			fmt.Sprintf("%d", rc.Rank),
			rc.Channel.Name,
			fmt.Sprintf("%.2fx", rc.Channel.ROI),
			string(rc.Tier),
			FormatBar(rc.BarWidth),
		}, widths)
	}

	fmt.Println()
	fmt.Println("Spend Distribution")
	widths = []int{16, 14, 8, 14, 8}
	PrintTableHeader([]string{"Channel", "Spend", "Share", "Revenue", "Status"}, widths)
	for _, ch := range channelsInOrder(d) {
		status := "Loss"
		if ch.Profitable() {
			status = "Profit"
		}
		PrintTableRow([]string{
			ch.Name,
			FormatMoney(ch.Spend),
			FormatPercent(d.SpendShare[ch.Name]),
			FormatMoney(ch.Revenue),
			status,
		}, widths)
	}

	fmt.Println()
	fmt.Println("Key Insights")
	PrintList(d.Insights.Statements)
	PrintDoubleSeparator()
}

// channelsInOrder lists channels in their original dataset order, as the pie slices are
func channelsInOrder(d *contracts.DerivedView) []contracts.Channel {
	byName := make(map[string]contracts.Channel, len(d.RankedChannels))
	for _, rc := range d.RankedChannels {
		byName[rc.Channel.Name] = rc.Channel
	}
	out := make([]contracts.Channel, 0, len(d.PieSlices))
	for _, slice := range d.PieSlices {
		out = append(out, byName[slice.Name])
	}
	return out
}
