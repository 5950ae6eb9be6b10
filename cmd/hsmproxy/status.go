package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// colorEnabled reports whether status output should be colorized:
// stdout must be a terminal and --no-color must not be set.
func colorEnabled(cmd *cobra.Command) bool {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// printOK prints a green-checked success line, or a plain one when
// color is disabled.
func printOK(cmd *cobra.Command, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if colorEnabled(cmd) {
		color.New(color.FgGreen, color.Bold).Fprint(os.Stdout, "OK  ")
		fmt.Fprintln(os.Stdout, msg)
		return
	}
	fmt.Fprintln(os.Stdout, "OK  "+msg)
}
