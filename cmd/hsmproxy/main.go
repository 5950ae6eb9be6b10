package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hsmproxy",
	Short: "BLE hardware security module proxy",
	Long: `Command-line client for the BLE hardware security module proxy:

- Read the proxy's identifying tag and wire protocol version
- Generate, rotate, and erase the proxy's signing key pair
- Digest and sign bytes, and verify signatures, through the HSM

Talks to a single ArmorD peripheral over a chunked Nordic UART Service link.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(eraseCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error; error logs at the same level as warn)")
	rootCmd.PersistentFlags().String("device", "", "Advertised name of the HSM peripheral (default ArmorD)")
	rootCmd.PersistentFlags().String("directory", "", "Directory holding the persisted record (default $HOME/.bali)")
	rootCmd.PersistentFlags().Int("max-attempts", 0, "Maximum exchange attempts before giving up (default 3)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colorized status output")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
