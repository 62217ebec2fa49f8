package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/byteowlz/lstcnt/internal/config"
	"github.com/byteowlz/lstcnt/internal/counter"
	"github.com/byteowlz/lstcnt/internal/mortgage"
	"github.com/byteowlz/lstcnt/internal/report"
	"github.com/byteowlz/lstcnt/pkg/listings"
)

var (
	outputFile   string
	outputFormat string
	file         string
	concurrency  int
	timeout      int
	backend      string
	fetchMode    string
	textMode     string
	minDigits    int
	useCookies   bool
	browserName  string
	browserAgent string
	userAgent    string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [urls...]",
		Short: "Count listings on the configured sites or the given URLs",
		RunE:  runCount,
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read URLs from file (one per line)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write results to file (default: stdout)")
	cmd.Flags().StringVar(&outputFormat, "format", "text", "output format (text|json|yaml)")

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "sites fetched at once (1 = in order)")
	cmd.Flags().IntVar(&timeout, "timeout", 30, "per-site timeout in seconds")
	cmd.Flags().StringVarP(&backend, "backend", "B", "http", "fetch backend (http|chrome|reader)")
	cmd.Flags().StringVar(&fetchMode, "mode", "auto", "rendering mode for the chrome backend (static|javascript|auto)")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "custom user agent string")
	cmd.Flags().StringVar(&browserAgent, "browser-agent", "", "browser agent type (auto|chrome|firefox|safari|edge)")

	cmd.Flags().BoolVar(&useCookies, "cookies", false, "send cookies from the local browser profile")
	cmd.Flags().StringVarP(&browserName, "browser", "b", "auto", "browser for cookie extraction (chrome|firefox|safari|zen)")

	cmd.Flags().IntVar(&minDigits, "min-digits", 3, "significant digits a keyword match needs")
	cmd.Flags().StringVar(&textMode, "text-mode", "full", "page text used by keyword matching (full|readability)")
	return cmd
}

// applyRunFlags lets explicitly set flags override the config file.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = outputFormat
	}
	if flags.Changed("concurrency") {
		cfg.Parallel.MaxConcurrency = concurrency
	}
	if flags.Changed("timeout") {
		cfg.Fetch.Timeout = timeout
	}
	if flags.Changed("backend") {
		cfg.Fetch.Backend = backend
	}
	if flags.Changed("mode") {
		cfg.Fetch.Mode = fetchMode
	}
	if flags.Changed("user-agent") {
		cfg.Fetch.UserAgent = userAgent
	}
	if flags.Changed("browser-agent") {
		cfg.Fetch.BrowserAgent = browserAgent
	}
	if flags.Changed("cookies") {
		cfg.Browser.Cookies.Enabled = useCookies
	}
	if flags.Changed("browser") {
		cfg.Browser.Default = browserName
	}
	if flags.Changed("min-digits") {
		cfg.Extraction.MinDigits = minDigits
	}
	if flags.Changed("text-mode") {
		cfg.Extraction.TextMode = textMode
	}
}

func runCount(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return exitError(ExitConfigError, "failed to load config: %v", err)
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return exitError(ExitConfigError, "invalid configuration: %v", err)
	}
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return exitError(ExitInvalidInput, "%v", err)
	}

	urls, err := collectURLs(args, file, cmd.InOrStdin())
	if err != nil {
		return exitError(ExitInvalidInput, "failed to collect URLs: %v", err)
	}

	logger := newLogger(cfg)
	c, err := listings.New(cfg, listings.Options{
		Logger: logger,
		Progress: func(done, total int, e counter.Entry) {
			logger.Info().Msgf("[%d/%d] %s: %s", done, total, e.Source.Name(), e.Result)
		},
	})
	if err != nil {
		return exitError(ExitConfigError, "%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var rs counter.ResultSet
	if len(urls) == 0 {
		logger.Debug().Int("sites", c.Registry().Len()).Msg("counting configured sites")
		rs = c.CountAll(ctx)
	} else {
		logger.Debug().Int("urls", len(urls)).Msg("counting ad-hoc URLs")
		rs = c.Count(ctx, urls)
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return exitError(ExitFileIOError, "failed to create output file %s: %v", outputFile, err)
		}
		defer f.Close()
		out = f
	}

	if err := report.Render(out, rs, format); err != nil {
		return exitError(ExitFileIOError, "failed to write results: %v", err)
	}

	if code := exitCode(rs.Summary()); code != ExitSuccess {
		return &exitErr{code: code}
	}
	return nil
}

var sitesFormat string

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the configured sites and their extraction strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return exitError(ExitConfigError, "failed to load config: %v", err)
			}
			reg, err := cfg.Registry()
			if err != nil {
				return exitError(ExitConfigError, "%v", err)
			}

			switch sitesFormat {
			case "text":
				err = report.Sites(cmd.OutOrStdout(), reg.Sources())
			case "toml":
				var body []byte
				body, err = config.MarshalSites(cfg.Sites)
				if err == nil {
					_, err = cmd.OutOrStdout().Write(body)
				}
			default:
				return exitError(ExitInvalidInput, "unknown format %q (text, toml)", sitesFormat)
			}
			if err != nil {
				return exitError(ExitFileIOError, "failed to write sites: %v", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sitesFormat, "format", "text", "output format (text|toml)")
	return cmd
}

var (
	loanPrice    float64
	loanDown     float64
	loanRate     float64
	loanYears    int
	showSchedule bool
)

func newMortgageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mortgage",
		Short: "Compute the monthly payment and amortization schedule of a loan",
		RunE: func(cmd *cobra.Command, args []string) error {
			loan := mortgage.Loan{Price: loanPrice, DownPayment: loanDown, AnnualRate: loanRate, Years: loanYears}

			monthly, err := loan.MonthlyPayment()
			if err != nil {
				return exitError(ExitInvalidInput, "invalid loan: %v", err)
			}

			var schedule []mortgage.Payment
			if showSchedule {
				if schedule, err = loan.Schedule(); err != nil {
					return exitError(ExitInvalidInput, "invalid loan: %v", err)
				}
			}

			if err := report.Mortgage(cmd.OutOrStdout(), loan, monthly, schedule); err != nil {
				return exitError(ExitFileIOError, "failed to write schedule: %v", err)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&loanPrice, "price", 0, "property price")
	cmd.Flags().Float64Var(&loanDown, "down-payment", 0, "down payment")
	cmd.Flags().Float64Var(&loanRate, "rate", 0, "annual interest rate in percent")
	cmd.Flags().IntVar(&loanYears, "years", 30, "loan term in years")
	cmd.Flags().BoolVar(&showSchedule, "schedule", false, "print the month-by-month schedule")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

var forceInit bool

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return exitError(ExitConfigError, "%v", err)
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !forceInit {
				return exitError(ExitFileIOError, "config file already exists: %s (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return exitError(ExitFileIOError, "failed to check %s: %v", path, err)
			}

			if err := config.Default().CreateExampleConfig(path); err != nil {
				return exitError(ExitFileIOError, "failed to write config: %v", err)
			}
			if !quiet {
				cmd.PrintErrf("Created config file: %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
	return cmd
}
