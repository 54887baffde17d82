// Command netscope reports the host's network interfaces and, unless told
// otherwise, the live hosts in the scope of every interface with a gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/netscope/internal/config"
	"github.com/HerbHall/netscope/internal/detect"
	"github.com/HerbHall/netscope/internal/iface"
	"github.com/HerbHall/netscope/internal/metrics"
	"github.com/HerbHall/netscope/internal/oui"
	"github.com/HerbHall/netscope/internal/probe"
	"github.com/HerbHall/netscope/internal/report"
	"github.com/HerbHall/netscope/internal/sweep"
	"github.com/HerbHall/netscope/internal/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cliFlags holds the parsed command line. Only flags the user actually set
// override the configuration.
type cliFlags struct {
	configPath  string
	showVersion bool
	overrides   map[string]any
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("netscope", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{overrides: make(map[string]any)}
	fs.StringVar(&f.configPath, "config", "", "path to YAML configuration file")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")

	threads := fs.Int("threads", 20, "maximum number of probes in flight")
	fs.IntVar(threads, "concurrency", 20, "alias for --threads")
	out := fs.String("out", "", "write the report to this file instead of stdout")
	noScan := fs.Bool("no-scan", false, "skip scanning for live hosts")
	format := fs.String("format", "text", "report format: text, json or yaml")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics to this textfile")
	method := fs.String("probe", "exec", "probe method: exec (system ping) or icmp")
	dnsServer := fs.String("dns-server", "", "send reverse lookups to this DNS server")
	ouiDB := fs.String("oui-db", "", "IEEE oui.txt registry for MAC vendor lookup")
	rate := fs.Float64("rate", 0, "maximum probe launches per second (0 = unlimited)")
	verbose := fs.Bool("verbose", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "threads", "concurrency":
			f.overrides["sweep.concurrency"] = *threads
		case "out":
			f.overrides["output.path"] = *out
		case "no-scan":
			f.overrides["sweep.skip"] = *noScan
		case "format":
			f.overrides["output.format"] = *format
		case "metrics-file":
			f.overrides["metrics.textfile"] = *metricsFile
		case "probe":
			f.overrides["probe.method"] = *method
		case "dns-server":
			f.overrides["resolver.server"] = *dnsServer
		case "oui-db":
			f.overrides["oui.database"] = *ouiDB
		case "rate":
			f.overrides["sweep.rate"] = *rate
		case "verbose":
			if *verbose {
				f.overrides["log.level"] = "debug"
			}
		}
	})
	return f, nil
}

func newLogger(s config.LogSettings, stderr io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encCfg)
	if s.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(stderr), level)
	return zap.New(core, zap.AddCaller()), nil
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if flags.showVersion {
		fmt.Fprintln(stdout, version.Info())
		return exitOK
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	for key, value := range flags.overrides {
		cfg.Set(key, value)
	}
	settings, err := cfg.Settings()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logger, err := newLogger(settings.Log, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("netscope starting", version.Fields()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scan(ctx, settings, stdout, logger); err != nil {
		logger.Error("scan failed", zap.Error(err))
		fmt.Fprintln(stderr, "netscope:", err)
		return exitFailure
	}
	return exitOK
}

func scan(ctx context.Context, s *config.Settings, stdout io.Writer, logger *zap.Logger) error {
	formatter, err := report.New(s.Output.Format)
	if err != nil {
		return err
	}

	m := metrics.New()

	var sweeper detect.Sweeper
	if !s.Sweep.Skip {
		pinger, err := probe.NewPinger(s.Probe.Method, runtime.GOOS, s.Probe.Timeout, s.Probe.Privileged)
		if err != nil {
			return err
		}
		resolver, err := probe.NewResolver(s.Resolver.Server, s.Resolver.Timeout)
		if err != nil {
			return err
		}
		prober := probe.NewProber(pinger, resolver, s.Resolver.Timeout, logger.Named("probe"))
		sweeper = sweep.New(prober,
			sweep.WithRate(s.Sweep.Rate),
			sweep.WithMaxHosts(s.Sweep.MaxHosts),
			sweep.WithMetrics(m),
			sweep.WithLogger(logger.Named("sweep")),
		)
	}

	vendors, err := oui.Open(s.OUI.Database)
	if err != nil {
		return err
	}
	logger.Debug("vendor registry", zap.String("source", vendors.Source()))

	d := detect.New(detect.Options{
		GOOS:        runtime.GOOS,
		Concurrency: s.Sweep.Concurrency,
		SkipSweep:   s.Sweep.Skip,
	}, sweeper,
		detect.WithRunner(iface.ExecRunner{}),
		detect.WithVendors(vendors),
		detect.WithMetrics(m),
		detect.WithLogger(logger.Named("detect")),
	)

	err = writeTo(s.Output.Path, stdout, func(w io.Writer) error {
		_, err := d.RunReport(ctx, w, formatter)
		return err
	})
	if err != nil {
		return err
	}

	if err := m.WriteTextfile(s.Metrics.Textfile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// createFile opens the --out sink.
var createFile = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// writeTo runs fn against stdout, or against the file at path when one is
// set. A close failure is returned when fn itself succeeded.
func writeTo(path string, stdout io.Writer, fn func(io.Writer) error) (err error) {
	if path == "" {
		return fn(stdout)
	}
	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return fn(f)
}
