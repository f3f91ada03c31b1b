// Package main provides the xmlrpcfind CLI entrypoint.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"

	"github.com/lukemcguire/xmlrpcfind/batch"
	"github.com/lukemcguire/xmlrpcfind/result"
	"github.com/lukemcguire/xmlrpcfind/tui"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	cfg     batch.Config
	format  string
	noTUI   bool
	verbose bool
	trace   bool
}

func parseFlags(args []string, stdin io.Reader, stderr io.Writer) (*options, error) {
	flags := flag.NewFlagSet("xmlrpcfind", flag.ContinueOnError)
	flags.SetOutput(stderr)

	def := batch.DefaultConfig()
	concurrency := flags.Int("concurrency", def.Concurrency, "number of sites resolved in parallel")
	rateLimit := flags.Int("rate-limit", def.RateLimit, "requests per second across all sites")
	fixedRate := flags.Bool("fixed-rate", false, "keep the rate limit fixed instead of adapting to response times")
	timeout := flags.Duration("timeout", def.Resolver.ProbeTimeout, "timeout for each probe, redirects included")
	maxRedirects := flags.Int("max-redirects", def.Resolver.MaxRedirects, "redirects followed per probe")
	userAgent := flags.String("user-agent", def.Resolver.UserAgent, "user agent string")
	rsd := flags.Bool("rsd", true, "fall back to RSD discovery when the usual locations fail")
	format := flags.String("format", "text", "output format: text, json or csv; json and csv follow the interactive summary")
	noTUI := flags.Bool("no-tui", false, "disable the interactive progress display")
	verbose := flags.Bool("verbose", false, "log probe outcomes to stderr")
	trace := flags.Bool("trace", false, "log every state transition and redirect to stderr")

	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: xmlrpcfind [flags] <site> [site...]")
		fmt.Fprintln(stderr, "       xmlrpcfind [flags] -   (read sites from stdin, one per line)")
		fmt.Fprintln(stderr, "Flags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	switch *format {
	case "text", "json", "csv":
	default:
		return nil, fmt.Errorf("unknown format %q", *format)
	}

	sites := flags.Args()
	if len(sites) == 1 && sites[0] == "-" {
		var err error
		if sites, err = readSites(stdin); err != nil {
			return nil, fmt.Errorf("read sites: %w", err)
		}
	}
	if len(sites) == 0 {
		flags.Usage()
		return nil, errors.New("no sites given")
	}

	cfg := batch.DefaultConfig(sites...)
	cfg.Concurrency = *concurrency
	cfg.RateLimit = *rateLimit
	cfg.FixedRate = *fixedRate
	cfg.Resolver.ProbeTimeout = *timeout
	cfg.Resolver.MaxRedirects = *maxRedirects
	cfg.Resolver.UserAgent = *userAgent
	cfg.Resolver.DiscoverRSD = *rsd

	return &options{
		cfg:     cfg,
		format:  *format,
		noTUI:   *noTUI,
		verbose: *verbose,
		trace:   *trace,
	}, nil
}

// readSites returns the non-blank lines of r, skipping # comments.
func readSites(r io.Reader) ([]string, error) {
	var sites []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sites = append(sites, line)
	}
	return sites, scanner.Err()
}

func newLogger(opts *options, stderr io.Writer) hclog.Logger {
	level := hclog.Off
	switch {
	case opts.trace:
		level = hclog.Trace
	case opts.verbose:
		level = hclog.Debug
	}
	if level == hclog.Off {
		return hclog.NewNullLogger()
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "xmlrpcfind",
		Level:      level,
		Output:     stderr,
		TimeFormat: time.RFC3339,
	})
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stdin, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitUsage
	}

	logger := newLogger(opts, stderr)
	opts.cfg.Resolver.Logger = logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	interactive := !opts.noTUI && !opts.verbose && !opts.trace && isTerminal(stdout)
	if interactive {
		return runTUI(ctx, cancel, opts, stdout, stderr)
	}

	runner := batch.New(opts.cfg, nil)
	res, err := runner.Run(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	if err := writeResult(stdout, opts.format, res); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if err := res.Err(); err != nil {
		logger.Debug("batch finished with failures", "error", err)
		return exitFailure
	}
	return exitOK
}

func runTUI(ctx context.Context, cancel context.CancelFunc, opts *options, stdout, stderr io.Writer) int {
	progressCh := make(chan batch.Event, 100)
	runner := batch.New(opts.cfg, progressCh)

	program := tea.NewProgram(tui.NewModel(ctx, cancel, runner, progressCh), tea.WithOutput(stdout))
	finalModel, err := program.Run()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	return finishTUI(finalModel.(tui.Model), opts.format, stdout, stderr)
}

// finishTUI writes the machine-readable report, if one was asked for, once
// the interactive summary has been shown.
func finishTUI(model tui.Model, format string, stdout, stderr io.Writer) int {
	if err := model.Err(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	if res := model.GetResult(); res != nil && format != "text" {
		if err := writeResult(stdout, format, res); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
	}
	if model.HasFailures() {
		return exitFailure
	}
	return exitOK
}

func writeResult(w io.Writer, format string, res *result.Result) error {
	switch format {
	case "json":
		return result.WriteJSON(w, res.Sites)
	case "csv":
		return result.WriteCSV(w, res.Sites)
	default:
		result.PrintResults(w, res)
		return nil
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
