// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/law-makers/profilefeed/internal/app"
	"github.com/law-makers/profilefeed/internal/config"
	"github.com/law-makers/profilefeed/internal/ui"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

const closeTimeout = 10 * time.Second

// reportedError marks a failure the command already printed.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// NewRootCmd builds the command tree. opts are applied to the Application
// created before each command runs.
func NewRootCmd(opts ...app.Option) *cobra.Command {
	root := &cobra.Command{
		Use:   "profilefeed",
		Short: "Scrape reading and gaming profiles into one published JSON document",
		Long: `Profilefeed drives a headless browser over a books profile and a games
profile, merges the result with the last published document, and writes it to
<bucket>/<dir>/data.json.

Empty shelves are treated as scrape failures: the previously published value
is carried forward instead of publishing an empty list.`,
		Example: `# Refresh and publish
profilefeed
# Inspect what would be published without touching the bucket
profilefeed run --local --format csv`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRefresh,
	}

	config.RegisterFlags(root)
	config.RegisterRunFlags(root)
	root.Flags().BoolP("help", "h", false, "Help for profilefeed")
	root.Flags().Bool("version", false, "Version for profilefeed")
	root.SetHelpFunc(ui.HelpFunc)
	root.SetUsageFunc(ui.UsageFunc)

	// The application is built lazily so -h and --version never launch anything.
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		ui.Plain = cfg.JSONLog || !isatty.IsTerminal(os.Stderr.Fd())

		appOpts := []app.Option{app.WithStdout(cmd.OutOrStdout())}
		if !cfg.Quiet && !cfg.JSONLog && isatty.IsTerminal(os.Stderr.Fd()) {
			appOpts = append(appOpts, app.WithProgress(os.Stderr))
		}
		a, err := app.New(cmd.Context(), cfg, append(appOpts, opts...)...)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	root.AddCommand(newRunCmd(), newServeCmd())
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	return execute(ctx, NewRootCmd(), os.Args[1:])
}

func execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	cmd, err := root.ExecuteContextC(ctx)

	if a := GetAppFromCmd(cmd); a != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := a.Close(closeCtx); cerr != nil {
			a.Logger.Warn().Err(cerr).Msg("Failed to close application")
		}
	}

	if err == nil {
		return 0
	}
	var reported reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintln(root.ErrOrStderr(), ui.Error("Error: "+err.Error()))
	}
	return 1
}
