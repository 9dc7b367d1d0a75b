package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// HelpFunc renders colorized help for cmd to its standard output.
func HelpFunc(cmd *cobra.Command, _ []string) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "\n%s\n", style(ColorBold+ColorCyan, strings.ToUpper(cmd.Name())))
	if cmd.Short != "" {
		fmt.Fprintln(w, cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", Wrap(cmd.Long, 80))
	}

	writeUsage(w, cmd)

	if cmd.HasExample() {
		heading(w, "Examples")
		for _, line := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
			case strings.HasPrefix(trimmed, "#"):
				fmt.Fprintf(w, "  %s\n", Dim(trimmed))
			default:
				fmt.Fprintf(w, "  %s\n", Success("$ "+trimmed))
			}
		}
	}

	writeCommands(w, cmd)

	if cmd.HasAvailableLocalFlags() {
		heading(w, "Flags")
		writeFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		heading(w, "Global Flags")
		writeFlags(w, cmd.InheritedFlags().FlagUsages())
	}
	fmt.Fprintln(w)
}

// UsageFunc renders a short colorized usage block to standard error.
func UsageFunc(cmd *cobra.Command) error {
	w := cmd.ErrOrStderr()
	writeUsage(w, cmd)
	writeCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		heading(w, "Flags")
		writeFlags(w, cmd.LocalFlags().FlagUsages())
	}
	fmt.Fprintf(w, "\n%s\n", Dim(fmt.Sprintf("Use %q for more information.", cmd.CommandPath()+" --help")))
	return nil
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", style(ColorBold+ColorWhite, title))
}

func writeUsage(w io.Writer, cmd *cobra.Command) {
	heading(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", style(ColorCyan, cmd.UseLine()))
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s %s\n", style(ColorCyan, cmd.CommandPath()), style(ColorYellow, "<command>"), Dim("[flags]"))
	}
}

func writeCommands(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	heading(w, "Commands")

	var cmds []*cobra.Command
	width := 0
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			cmds = append(cmds, c)
			width = max(width, len(c.Name()))
		}
	}
	for _, c := range cmds {
		pad := strings.Repeat(" ", width-len(c.Name())+2)
		fmt.Fprintf(w, "  %s%s%s\n", style(ColorCyan, c.Name()), pad, Dim(c.Short))
	}
}

// writeFlags re-aligns pflag usage lines and colors flag names.
func writeFlags(w io.Writer, usages string) {
	lines := strings.Split(usages, "\n")

	width := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flag, _, _ := strings.Cut(trimmed, "  ")
			width = max(width, len(strings.TrimSpace(flag)))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", width+4), Dim(trimmed))
			continue
		}
		flag, desc, ok := strings.Cut(trimmed, "  ")
		flag = strings.TrimSpace(flag)
		if !ok {
			fmt.Fprintf(w, "  %s\n", Success(flag))
			continue
		}
		pad := strings.Repeat(" ", width-len(flag)+2)
		fmt.Fprintf(w, "  %s%s%s\n", Success(flag), pad, Dim(strings.TrimSpace(desc)))
	}
}

// Wrap wraps text at width, keeping paragraphs and list items intact.
func Wrap(text string, width int) string {
	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		var out []string
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
				out = append(out, line)
				continue
			}
			var cur strings.Builder
			for _, word := range strings.Fields(line) {
				switch {
				case cur.Len() == 0:
				case cur.Len()+1+len(word) <= width:
					cur.WriteByte(' ')
				default:
					out = append(out, cur.String())
					cur.Reset()
				}
				cur.WriteString(word)
			}
			if cur.Len() > 0 {
				out = append(out, cur.String())
			}
		}
		if len(out) > 0 {
			paragraphs = append(paragraphs, strings.Join(out, "\n"))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
