package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/canmnt/internal/probe"
)

func main() {
	var (
		baseURL   = flag.String("url", probe.DefaultBaseURL, "Base URL of the service")
		rounds    = flag.Int("rounds", probe.DefaultRounds, "Number of polling rounds")
		interval  = flag.Duration("interval", probe.DefaultInterval, "Pause between rounds")
		timeout   = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		logFormat = flag.String("log-format", "text", "Log format (json or text)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp(os.Stdout)
		return
	}

	if err := probe.SetupLogging(os.Stdout, *logFormat, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err := probe.Run(ctx, &probe.Config{
		BaseURL:  *baseURL,
		Rounds:   *rounds,
		Interval: *interval,
		Timeout:  *timeout,
		Verbose:  *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
