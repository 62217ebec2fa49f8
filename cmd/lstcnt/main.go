package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/byteowlz/lstcnt/internal/config"
	"github.com/byteowlz/lstcnt/internal/counter"
)

// Exit codes for granular error handling
const (
	ExitSuccess      = 0
	ExitNoCounts     = 2 // no site produced a count
	ExitInvalidInput = 3
	ExitConfigError  = 4
	ExitFileIOError  = 5
	ExitPartialError = 6 // some sites counted, some did not
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "lstcnt",
	Short: "Count real-estate listings on property portals",
	Long: `lstcnt fetches property portals and extracts the number of listings each
one advertises, using a CSS selector per site or a keyword search over the
rendered page text. It can also compute a mortgage amortization schedule.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitErr); ok {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitInvalidInput)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/lstcnt/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all non-result output")

	rootCmd.AddCommand(newRunCmd(), newSitesCmd(), newMortgageCmd(), newInitCmd())
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger writes human-readable logs to stderr. --quiet wins over
// --verbose, which wins over logging.level.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	switch {
	case quiet:
		level = zerolog.Disabled
	case verbose:
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// exitCode maps a finished run to the process exit code. Unsupported
// sites are known not to count and do not make a run partial.
func exitCode(s counter.Summary) int {
	switch {
	case s.Sources > 0 && s.Counted == 0:
		return ExitNoCounts
	case s.Errors-s.Skipped > 0 || s.NotFound > 0:
		return ExitPartialError
	}
	return ExitSuccess
}

// collectURLs gathers ad-hoc URLs from args, the --file list and piped
// stdin. An empty result means "run the configured sites".
func collectURLs(args []string, file string, stdin io.Reader) ([]string, error) {
	var urls []string
	urls = append(urls, args...)

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read URLs from file %s: %w", file, err)
		}
		defer f.Close()
		fileURLs, err := readURLs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read URLs from file %s: %w", file, err)
		}
		urls = append(urls, fileURLs...)
	}

	if len(args) == 0 && file == "" && isPiped(stdin) {
		stdinURLs, err := readURLs(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read URLs from stdin: %w", err)
		}
		urls = append(urls, stdinURLs...)
	}

	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !isValidURL(u) {
			return nil, fmt.Errorf("invalid URL %q (expected http:// or https://)", u)
		}
		clean = append(clean, u)
	}
	return clean, nil
}

// readURLs reads one URL per line, skipping blank lines and # comments.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	return urls, scanner.Err()
}

func isPiped(r io.Reader) bool {
	if r == nil {
		return false
	}
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string {
	return e.msg
}

func exitError(code int, format string, args ...interface{}) *exitErr {
	msg := fmt.Sprintf(format, args...)
	if msg != "" && !quiet {
		fmt.Fprintf(os.Stderr, "%s\n", msg)
	}
	return &exitErr{code: code, msg: msg}
}
