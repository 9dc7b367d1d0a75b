package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/profilefeed/internal/app"
	"github.com/law-makers/profilefeed/internal/config"
	"github.com/law-makers/profilefeed/internal/ui"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scrape, reconcile and publish cycle",
		Long: `Run launches the browser once, scrapes every configured page and publishes
the reconciled document. Any page failure aborts the run before anything is
written.

With --local the previous document is never read and nothing is published;
the document is printed (or written to --output) instead. There is nothing to
fall back to, so a section that scraped empty is absent from the local
document and listed under "Empty" in the summary.`,
		Example: `profilefeed run
profilefeed run --local
profilefeed run --local --format csv -o shelves.csv`,
		Args: cobra.NoArgs,
		RunE: runRefresh,
	}
	config.RegisterRunFlags(cmd)
	return cmd
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return errors.New("application not initialized")
	}

	result, err := a.Refresh(cmd.Context())
	if err != nil {
		printFailure(cmd.ErrOrStderr(), result, err)
		return reportedError{err}
	}

	if a.Config.Quiet {
		return nil
	}
	// Local mode owns stdout for the document itself.
	w := cmd.OutOrStdout()
	if a.Config.Local {
		w = cmd.ErrOrStderr()
	}
	printSuccess(w, result)
	return nil
}

func printSuccess(w io.Writer, r *app.Result) {
	if r.Local {
		fmt.Fprintln(w, ui.Success("✓ Document generated locally (not published)"))
	} else {
		fmt.Fprintln(w, ui.Success("✓ Data refreshed successfully"))
	}
	fmt.Fprintf(w, "  %s %s\n", ui.Bold("Timestamp:"), r.Timestamp.Format(time.RFC3339))
	if r.ETag != "" {
		fmt.Fprintf(w, "  %s %s\n", ui.Bold("ETag:     "), r.ETag)
	}
	if r.Location != "" {
		fmt.Fprintf(w, "  %s %s\n", ui.Bold("Location: "), r.Location)
	}
	fmt.Fprintf(w, "  %s %s\n", ui.Bold("Duration: "), r.Duration.Round(time.Millisecond))
	if r.Local && len(r.Fallbacks) > 0 {
		fmt.Fprintf(w, "  %s %s\n", ui.Bold("Empty:    "),
			ui.Warn("scraped empty, omitted from the document: "+strings.Join(r.Fallbacks, ", ")))
		return
	}
	if len(r.Fallbacks) > 0 {
		line := "carried forward " + strings.Join(r.Fallbacks, ", ")
		if r.Degraded {
			line += " (some had no previous value)"
		}
		fmt.Fprintf(w, "  %s %s\n", ui.Bold("Fallbacks:"), ui.Warn(line))
	}
}

func printFailure(w io.Writer, r *app.Result, err error) {
	ts := time.Now().UTC()
	if r != nil {
		ts = r.Timestamp
	}
	fmt.Fprintln(w, ui.Error("✗ Data refresh failed"))
	fmt.Fprintf(w, "  %s %s\n", ui.Bold("Timestamp:"), ts.Format(time.RFC3339))
	if r != nil && r.ErrorCode != "" {
		fmt.Fprintf(w, "  %s %s\n", ui.Bold("Code:     "), r.ErrorCode)
	}
	fmt.Fprintf(w, "  %s %s\n", ui.Bold("Error:    "), ui.Error(err.Error()))
}
