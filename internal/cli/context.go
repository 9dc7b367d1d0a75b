// Package cli provides the command-line interface for profilefeed.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/law-makers/profilefeed/internal/app"
)

type ctxKey struct{}

// SetApp stores the Application in the command's context.
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, ctxKey{}, a))
}

// GetAppFromCmd returns the Application stored on cmd, or nil.
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(ctxKey{}).(*app.Application)
	return a
}
