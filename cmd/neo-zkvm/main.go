// neo-zkvm is the command-line front end of the execution core: run,
// assemble, disassemble, prove, verify, serve and an interactive debugger.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/r3e-network/neo-zkvm/log"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var (
	flagLogLevel string
	flagDebugMod string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "neo-zkvm",
		Short: "Deterministic Neo N3 VM with a zero-knowledge proof pathway",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.InitLogger(flagLogLevel)
			if flagDebugMod != "" {
				log.EnableModules(flagDebugMod)
			}
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagDebugMod, "debug-modules", "", "comma-separated log modules to enable")

	rootCmd.AddCommand(
		newRunCommand(),
		newAsmCommand(),
		newDisasmCommand(),
		newProveCommand(),
		newVerifyCommand(),
		newServeCommand(),
		newDebugCommand(),
		newVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("neo-zkvm %s (%s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}
