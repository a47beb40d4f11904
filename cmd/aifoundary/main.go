package main

import (
	"fmt"
	"os"

	"github.com/aifoundary/aifoundary/internal/app"
	"github.com/aifoundary/aifoundary/internal/config"
	"github.com/aifoundary/aifoundary/internal/policy"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	cfgFile    string
	scanPath   string
	mode       string
	extensions string
	verbose    bool
)

// exitCode is set by run and read after Execute returns
var exitCode = policy.ExitPass

func main() {
	rootCmd := &cobra.Command{
		Use:   "aifoundary",
		Short: "AIFoundary - guardrail scan for risky AI integration patterns",
		Long: `AIFoundary walks a source tree looking for hardcoded prompts, unguarded model calls and
dynamic execution, reports them to the console, a SARIF file, the pull request and an
optional webhook, and fails the build in enforce mode.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: "+config.DefaultConfigPath+" if present)")
	rootCmd.Flags().StringVarP(&scanPath, "path", "p", "", "Root path to scan (default: .)")
	rootCmd.Flags().StringVar(&mode, "mode", "", "Enforcement mode: warn or enforce (default: warn)")
	rootCmd.Flags().StringVar(&extensions, "extensions", "", "Comma separated file suffixes to scan (default: .py,.js,.ts)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(policy.ExitError)
	}
	os.Exit(exitCode)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Apply(config.Overrides{
		RootPath:   scanPath,
		Mode:       mode,
		Extensions: config.ParseList(extensions),
		Verbose:    verbose,
	})

	runner := app.NewRunner(cfg, cmd.OutOrStdout())
	outcome, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	exitCode = policy.ExitCode(outcome)
	return nil
}
