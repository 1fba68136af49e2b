package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/scheduler"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/config"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/httputil"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect scheduled jobs of a running dashboard server",
	Long: `Queries the scheduled jobs of a running 'dashboard serve'.

Subcommands:
  list    - job stats
  run     - run a job now

Example:
  go run ./cmd/dashboard jobs list
  go run ./cmd/dashboard jobs run mmm_refresh`,
}

var (
	jobsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		RunE:  listJobs,
	}

	jobsRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}

	jobsServer string
)

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsRunCmd)

	jobsCmd.PersistentFlags().StringVar(&jobsServer, "server", "", "dashboard server URL (default http://localhost:$PORT)")
}

// serverCall performs one request against the local dashboard server
func serverCall(ctx context.Context, method, path string, out interface{}) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	base := jobsServer
	if base == "" {
		base = "http://localhost:" + cfg.Port
	}

	client := httputil.New(cfg, logger.NewWithWriter(cfg, io.Discard)).WithTimeout(2 * time.Minute)
	req, err := httputil.NewJSONRequest(ctx, method, base+path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard server unreachable at %s: %w", base, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	return json.Unmarshal(body, out)
}

func listJobs(cmd *cobra.Command, args []string) error {
	var resp struct {
		Jobs map[string]scheduler.JobStats `json:"jobs"`
	}
	if err := serverCall(cmd.Context(), http.MethodGet, "/api/jobs", &resp); err != nil {
		PrintError(err.Error())
		return err
	}

	if len(resp.Jobs) == 0 {
		PrintInfo("No scheduled jobs (set REFRESH_SCHEDULE on the server)")
		return nil
	}

	widths := []int{14, 16, 6, 6, 6, 8, 20}
	PrintTableHeader([]string{"Job", "Schedule", "Runs", "OK", "Skip", "Rate", "Next run"}, widths)
	for name, st := range resp.Jobs {
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.Local().Format("2006-01-02 15:04:05")
		}
		PrintTableRow([]string{
			name,
			st.Schedule,
			fmt.Sprintf("%d", st.TotalRuns),
			fmt.Sprintf("%d", st.SuccessCount),
			fmt.Sprintf("%d", st.SkippedCount),
			FormatPercent(st.SuccessRate*100),
			next,
		}, widths)
	}
	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	var result scheduler.JobResult
	if err := serverCall(cmd.Context(), http.MethodPost, "/api/jobs/"+args[0]+"/run", &result); err != nil {
		PrintError(err.Error())
		return err
	}

	switch {
	case result.Skipped:
		PrintInfo(fmt.Sprintf("%s skipped: %s", result.JobName, result.Error))
	case result.Success:
		PrintSuccess(fmt.Sprintf("%s completed in %s", result.JobName, result.Duration.Round(time.Millisecond)))
	default:
		PrintError(fmt.Sprintf("%s failed: %s", result.JobName, result.Error))
	}
	return nil
}
