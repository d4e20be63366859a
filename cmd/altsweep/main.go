package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vulnverified/altsweep/internal/config"
	"github.com/vulnverified/altsweep/internal/engine"
	"github.com/vulnverified/altsweep/internal/output"
	"github.com/vulnverified/altsweep/internal/recon"
	"github.com/vulnverified/altsweep/internal/store"
	"github.com/vulnverified/altsweep/internal/wordlist"
	"github.com/vulnverified/altsweep/pkg/ports"
)

// Set via ldflags at build time.
var version = "dev"

const whoisTimeout = 10 * time.Second

type options struct {
	input          string
	output         string
	save           string
	wordlist       string
	ports          string
	numberSuffix   bool
	ignoreExisting bool
	dnsServer      string
	moreInfo       bool
	threads        int
	timeout        time.Duration
	portTimeout    time.Duration
	retries        int
	axfr           bool

	configPath string
	jsonOutput bool
	noColor    bool
	silent     bool
	verbose    bool
}

func main() {
	output.Version = version

	var opts options

	rootCmd := &cobra.Command{
		Use:   "altsweep -i domains.txt -o candidates.txt -s resolved.txt",
		Short: "Generate and resolve subdomain permutations",
		Long: "Generates alterations and permutations of known subdomains from a wordlist, " +
			"deduplicates them and resolves the candidates concurrently, optionally " +
			"scanning ports and looking up network ownership of what resolves.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath != "" {
				profile, err := config.Load(opts.configPath)
				if err != nil {
					return err
				}
				opts.applyProfile(profile, cmd.Flags())
			}
			if err := opts.validate(); err != nil {
				return err
			}

			// Respect NO_COLOR env var.
			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				opts.noColor = true
			}
			setupLogging(opts.verbose)

			// The save file must be writable before any work starts.
			save, err := os.OpenFile(opts.save, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("opening save file: %w", err)
			}
			defer save.Close()

			cmd.SilenceUsage = true
			return run(opts, save)
		},
	}

	registerFlags(rootCmd.Flags(), &opts)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("altsweep {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func registerFlags(f *pflag.FlagSet, o *options) {
	f.StringVarP(&o.input, "input", "i", "", "List of subdomains to alter")
	f.StringVarP(&o.output, "output", "o", "", "File to write the generated candidates to")
	f.StringVarP(&o.save, "save", "s", "", "File to append resolved candidates to")
	f.StringVarP(&o.wordlist, "wordlist", "w", wordlist.DefaultPath, "Alteration words, one per line")
	f.StringVarP(&o.ports, "ports", "p", "", "Ports to scan on resolved hosts (comma list, ranges, or top100)")
	f.BoolVarP(&o.numberSuffix, "add-number-suffix", "n", false, "Add number suffixes 0-9 to every label")
	f.BoolVarP(&o.ignoreExisting, "ignore-existing", "e", false, "Leave the input domains out of the candidates")
	f.StringVarP(&o.dnsServer, "dnsserver", "d", "", "DNS server to resolve against (default: system resolver)")
	f.BoolVarP(&o.moreInfo, "moreinfo", "m", false, "Look up network ownership of resolved addresses")
	f.IntVarP(&o.threads, "threads", "t", 50, "Number of concurrent resolution workers")
	f.DurationVar(&o.timeout, "timeout", time.Second, "Per-query DNS timeout")
	f.DurationVar(&o.portTimeout, "port-timeout", 2500*time.Millisecond, "Per-port connect timeout")
	f.IntVar(&o.retries, "retries", 0, "Retries for DNS queries that time out")
	f.BoolVar(&o.axfr, "axfr", false, "Add names from allowed zone transfers to the seed domains")
	f.StringVar(&o.configPath, "config", "", "YAML run profile; flags override its values")
	f.BoolVar(&o.jsonOutput, "json", false, "Output structured JSON to stdout")
	f.BoolVar(&o.noColor, "no-color", false, "Disable terminal colors")
	f.BoolVar(&o.silent, "silent", false, "Results only, no progress")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose progress and debug logging")
}

func run(opts options, save io.Writer) error {
	words, err := wordlist.Load(opts.wordlist)
	if err != nil {
		return fmt.Errorf("loading wordlist: %w", err)
	}
	domains, err := wordlist.ReadLines(opts.input)
	if err != nil {
		return fmt.Errorf("loading input: %w", err)
	}

	var scanPorts []int
	if opts.ports != "" {
		scanPorts, err = ports.Parse(opts.ports)
		if err != nil {
			return fmt.Errorf("invalid --ports: %w", err)
		}
	}

	resolver, err := recon.NewResolver(opts.dnsServer, opts.timeout, opts.retries)
	if err != nil {
		return fmt.Errorf("invalid --dnsserver: %w", err)
	}

	candidates, err := store.Create(opts.output, opts.ignoreExisting)
	if err != nil {
		return err
	}

	cfg := engine.Config{
		Domains:        domains,
		Words:          words,
		NumberSuffix:   opts.numberSuffix,
		IgnoreExisting: opts.ignoreExisting,
		Ports:          scanPorts,
		PortTimeout:    opts.portTimeout,
		Whois:          opts.moreInfo,
		Concurrency:    opts.threads,
	}

	stages := engine.Stages{
		Store:    candidates,
		Resolver: resolver,
	}
	if len(scanPorts) > 0 {
		stages.Scanner = &recon.Scanner{}
	}
	if opts.moreInfo {
		stages.Owner = recon.NewWhois(resolver, whoisTimeout)
	}
	if opts.axfr {
		stages.Expander = recon.NewZoneTransfer()
	}

	// Set up context with signal handling for clean Ctrl+C.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Progress output.
	showProgress := !opts.jsonOutput && !opts.silent
	var results io.Writer = os.Stdout
	if opts.jsonOutput {
		results = io.Discard
	}
	progress := output.NewProgress(os.Stderr, results, opts.verbose, !showProgress, opts.noColor)

	if showProgress {
		output.WriteHeader(os.Stderr, opts.noColor)
	}

	result, err := engine.Run(ctx, cfg, stages, save, progress)
	if err != nil {
		return err
	}

	if showProgress {
		progress.Complete()
	}

	if opts.jsonOutput {
		return output.WriteJSON(os.Stdout, result)
	}
	if !opts.silent {
		output.WriteTable(os.Stdout, result, opts.noColor)
		output.WriteSummary(os.Stdout, result, opts.noColor)
	}
	return nil
}

func setupLogging(verbose bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

// applyProfile fills every option whose flag was not set on the command line
// from the profile's non-zero values.
func (o *options) applyProfile(p *config.Profile, flags *pflag.FlagSet) {
	unset := func(name string) bool { return !flags.Changed(name) }

	setString := func(name string, dst *string, v string) {
		if unset(name) && v != "" {
			*dst = v
		}
	}
	setString("input", &o.input, p.Input)
	setString("output", &o.output, p.Output)
	setString("save", &o.save, p.Save)
	setString("wordlist", &o.wordlist, p.Wordlist)
	setString("ports", &o.ports, p.Ports)
	setString("dnsserver", &o.dnsServer, p.DNSServer)

	setBool := func(name string, dst *bool, v bool) {
		if unset(name) && v {
			*dst = v
		}
	}
	setBool("add-number-suffix", &o.numberSuffix, p.NumberSuffix)
	setBool("ignore-existing", &o.ignoreExisting, p.IgnoreExisting)
	setBool("moreinfo", &o.moreInfo, p.MoreInfo)
	setBool("axfr", &o.axfr, p.AXFR)

	if unset("threads") && p.Threads > 0 {
		o.threads = p.Threads
	}
	if unset("retries") && p.Retries > 0 {
		o.retries = p.Retries
	}
	if unset("timeout") && p.Timeout > 0 {
		o.timeout = p.Timeout
	}
	if unset("port-timeout") && p.PortTimeout > 0 {
		o.portTimeout = p.PortTimeout
	}
}

func (o *options) validate() error {
	var missing []string
	for _, req := range []struct {
		flag, value string
	}{
		{"--input", o.input},
		{"--output", o.output},
		{"--save", o.save},
	} {
		if strings.TrimSpace(req.value) == "" {
			missing = append(missing, req.flag)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required option(s): %s", strings.Join(missing, ", "))
	}

	if o.threads < 1 {
		return fmt.Errorf("--threads must be at least 1, got %d", o.threads)
	}
	if o.retries < 0 {
		return fmt.Errorf("--retries must not be negative, got %d", o.retries)
	}
	if o.timeout <= 0 || o.portTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
