package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"aotc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "aotc",
	Short: "Ahead-of-time whole-program native compiler driver",
	Long:  `aotc drives a whole-program ahead-of-time compilation: it resolves bytecode modules, selects compilation roots, runs the scan pre-pass and hands the result to a code generation backend.`,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
}

func main() {
	helpShown := trackHelp(rootCmd)
	err := rootCmd.Execute()
	if err != nil || *helpShown {
		// A help-only invocation did not produce an object file, so it
		// is not a success either.
		os.Exit(1)
	}
}

// trackHelp wraps the default help renderer to observe whether any
// command displayed help, including the bare-invocation and --help
// paths where Execute still returns nil.
func trackHelp(cmd *cobra.Command) *bool {
	shown := false
	render := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		shown = true
		render(c, args)
	})
	return &shown
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
