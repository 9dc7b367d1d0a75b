package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("env-file", DefaultEnvFile, "Path to a .env file (optional)")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy for the browser (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().Duration("timeout", DefaultNavTimeout, "Navigation timeout per page")
	cmd.PersistentFlags().Duration("run-timeout", DefaultRunTimeout, "Hard timeout for a whole refresh run")
	cmd.PersistentFlags().Bool("headful", false, "Show the browser window")
	cmd.PersistentFlags().String("store", DefaultStore, "Blob store backend: s3 or file")
	cmd.PersistentFlags().String("store-dir", "", "Root directory for --store=file")
}

// RegisterRunFlags registers flags that only apply to a single refresh run
func RegisterRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("local", false, "Print the document instead of publishing it (empty sections are omitted)")
	cmd.Flags().StringP("output", "o", "", "Write the local document to this file instead of stdout")
	cmd.Flags().String("format", DefaultFormat, "Local output format: json or csv")
}

// RegisterServeFlags registers flags for the trigger server
func RegisterServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", DefaultAddr, "Listen address")
}
