package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rabit-sh/rabit"
)

var (
	verbose bool
	quiet   bool

	maxConcurrent int
	minDelayMs    int
	timeoutSecs   int
	gitCacheDir   string
	noGitFallback bool
)

var rootCmd = &cobra.Command{
	Use:   "rabit",
	Short: "rabit - burrow and warren manifest client",
	Long: `rabit discovers and walks trees of machine-readable manifests.
A burrow lists entries for one location; a warren lists burrows. rabit finds
them under well-known names, fetches them over HTTP(S), local files, or git
hosting, and traverses the resulting graph with depth, count, and cycle bounds.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().IntVar(&maxConcurrent, "max-concurrent", 0, "Maximum concurrent requests (default 10)")
	rootCmd.PersistentFlags().IntVar(&minDelayMs, "min-delay", 0, "Minimum delay between requests in ms (default 100)")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "HTTP request timeout in seconds (default 30)")
	rootCmd.PersistentFlags().StringVar(&gitCacheDir, "git-cache", "", "Git clone cache directory")
	rootCmd.PersistentFlags().BoolVar(&noGitFallback, "no-git-fallback", false, "Disable the git clone fallback")

	// Add subcommands
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(traverseCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the CLI logger: debug with --verbose, errors only
// with --quiet, info otherwise.
func newLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	if quiet {
		level = zapcore.ErrorLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// newClient builds a client from the config file overridden by flags.
func newClient() (*rabit.Client, error) {
	fileCfg := loadConfig()

	opts := []rabit.Option{rabit.WithLogger(newLogger())}

	if n := firstPositive(maxConcurrent, fileCfg.MaxConcurrent); n > 0 {
		opts = append(opts, rabit.WithMaxConcurrent(n))
	}
	if ms := firstPositive(minDelayMs, fileCfg.MinDelayMs); ms > 0 {
		opts = append(opts, rabit.WithMinDelay(time.Duration(ms)*time.Millisecond))
	}
	if s := firstPositive(timeoutSecs, fileCfg.TimeoutSeconds); s > 0 {
		opts = append(opts, rabit.WithTimeout(time.Duration(s)*time.Second))
	}
	if dir := firstNonEmpty(gitCacheDir, fileCfg.GitCacheDir); dir != "" {
		opts = append(opts, rabit.WithGitCacheDir(dir))
	}
	if noGitFallback || fileCfg.NoGitFallback {
		opts = append(opts, rabit.WithoutGitFallback())
	}
	return rabit.NewClient(opts...)
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
