package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestWrap(t *testing.T) {
	got := Wrap("one two three four\n\n- keep this bullet intact even if long", 9)
	want := "one two\nthree\nfour\n\n- keep this bullet intact even if long"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPlain(t *testing.T) {
	Plain = true
	defer func() { Plain = false }()
	if Success("ok") != "ok" {
		t.Fatalf("expected unstyled output")
	}
}

func TestHelpFunc(t *testing.T) {
	Plain = true
	defer func() { Plain = false }()

	root := &cobra.Command{Use: "profilefeed", Short: "Publish profile data", RunE: func(*cobra.Command, []string) error { return nil }}
	root.AddCommand(&cobra.Command{Use: "serve", Short: "Run the trigger server", RunE: func(*cobra.Command, []string) error { return nil }})
	root.Flags().Bool("local", false, "Print instead of publishing")

	var buf bytes.Buffer
	root.SetOut(&buf)
	HelpFunc(root, nil)

	out := buf.String()
	for _, want := range []string{"PROFILEFEED", "Commands", "serve", "--local", "Print instead of publishing"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}
}
