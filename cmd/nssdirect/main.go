// Command nssdirect is a getent-style front end for the direct NSS
// resolver. It resolves single user or group entries, or walks a whole
// database, against the fixed backend set (files, sss, winbind).
//
// Usage:
//
//	nssdirect [flags] user <name|uid>
//	nssdirect [flags] group <name|gid>
//	nssdirect [flags] users
//	nssdirect [flags] groups
//
// Exit codes follow getent: 0 on success, 2 when the key was not found,
// 1 on any other failure.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/identsvc/nssdirect/internal/logger"
	"github.com/identsvc/nssdirect/pkg/config"
	"github.com/identsvc/nssdirect/pkg/metrics"
	"github.com/identsvc/nssdirect/pkg/nss"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/nssdirect/config.yaml)")
	backendFlag := flag.String("backend", "", "Pin lookups to one backend: files, sss, or winbind (default: fallback chain)")
	output := flag.String("output", "text", "Output format: text, json, or yaml")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	metricsListen := flag.String("metrics-listen", "", "Serve Prometheus metrics on this address while the command runs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nssdirect: %v\n", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *metricsListen != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = *metricsListen
	}

	if err := setupLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "nssdirect: %v\n", err)
		os.Exit(1)
	}

	lookup, err := config.LookupSettingsFrom(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nssdirect: %v\n", err)
		os.Exit(1)
	}

	backend := lookup.PinnedBackend()
	if *backendFlag != "" {
		b, ok := nss.ParseBackend(*backendFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "nssdirect: unknown backend %q\n", *backendFlag)
			os.Exit(1)
		}
		backend = b
	}

	// The registry must exist before the resolver so its metrics
	// constructors see it.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		serveMetrics(cfg.Metrics.Listen)
	}

	resolver := nss.New(lookup.ResolverOptions()...)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	printer := &printer{format: *output}

	var runErr error
	switch args[0] {
	case "user":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		runErr = runUser(resolver, printer, backend, args[1])
	case "group":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		runErr = runGroup(resolver, printer, backend, args[1])
	case "users":
		runErr = runUsers(resolver, printer, backend)
	case "groups":
		runErr = runGroups(resolver, printer, backend)
	default:
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "nssdirect: %v\n", runErr)
		if nss.IsNotFound(runErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nssdirect [flags] user <name|uid> | group <name|gid> | users | groups")
	flag.PrintDefaults()
}

func setupLogging(cfg *config.Config) error {
	logger.SetLevel(cfg.Logging.Level)
	switch cfg.Logging.Output {
	case "stderr", "":
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(cfg.Logging.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log output: %w", err)
		}
		logger.SetOutput(f)
	}
	return nil
}

// serveMetrics exposes /metrics in the background for the duration of the
// command. Long enumerations against a large domain are the intended
// scrape target; the listener dies with the process.
func serveMetrics(addr string) {
	handler := metrics.Handler()
	if handler == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics listener on %s: %v", addr, err)
		}
	}()
	logger.Info("serving metrics on %s", addr)
}

func runUser(r *nss.Resolver, p *printer, backend nss.Backend, key string) error {
	var (
		rec *nss.UserRecord
		err error
	)
	if uid, numeric := parseID(key); numeric {
		rec, err = r.LookupUserByID(uid, backend)
	} else {
		rec, err = r.LookupUserByName(key, backend)
	}
	if err != nil {
		return err
	}
	return p.printUser(rec)
}

func runGroup(r *nss.Resolver, p *printer, backend nss.Backend, key string) error {
	var (
		rec *nss.GroupRecord
		err error
	)
	if gid, numeric := parseID(key); numeric {
		rec, err = r.LookupGroupByID(gid, backend)
	} else {
		rec, err = r.LookupGroupByName(key, backend)
	}
	if err != nil {
		return err
	}
	return p.printGroup(rec)
}

func runUsers(r *nss.Resolver, p *printer, backend nss.Backend) error {
	records, err := r.AllUsers(backend)
	if err != nil {
		return err
	}
	return p.printUsers(records)
}

func runGroups(r *nss.Resolver, p *printer, backend nss.Backend) error {
	records, err := r.AllGroups(backend)
	if err != nil {
		return err
	}
	return p.printGroups(records)
}

// parseID treats an all-digits key as a numeric id, matching getent.
func parseID(key string) (uint32, bool) {
	id, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}
