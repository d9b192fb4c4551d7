package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pior/sam"
	"github.com/pior/sam/metrics"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	bridges := flag.String("bridges", "", "comma-separated bridge addresses (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address (overrides config)")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *bridges != "" {
		cfg.Bridges = normalizeBridges(strings.Split(*bridges, ","))
	}
	if *logLevel != "" {
		level, err := zerolog.ParseLevel(*logLevel)
		if err != nil {
			fmt.Printf("Invalid log level: %v\n", err)
			os.Exit(1)
		}
		cfg.LogLevel = level
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	logger := initLogger("sam-cli", cfg.LogLevel)

	client, err := sam.NewClient(sam.NewStaticBridges(cfg.Bridges...), cfg.clientConfig(&logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create client")
	}
	defer client.Close()

	if cfg.MetricsAddr != "" {
		exporter := metrics.NewExporter(client)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := exporter.ServeHTTP(cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	cli := &repl{client: client, config: cfg, sessions: make(map[string]*sam.Session)}
	defer cli.closeSessions()

	fmt.Println("SAM CLI Tool")
	fmt.Println("============")
	fmt.Println("Commands: hello, lookup <name>, generate [sigtype], session <id>, close <id>, stats, quit")
	fmt.Println()

	cli.run()
}

func initLogger(app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
}

type repl struct {
	client   *sam.Client
	config   cliConfig
	sessions map[string]*sam.Session
}

func (r *repl) run() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		command := strings.ToLower(parts[0])
		ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)

		switch command {
		case "hello", "ping":
			r.handleHello(ctx)

		case "lookup":
			if len(parts) != 2 {
				fmt.Println("Usage: lookup <name>")
				break
			}
			r.handleLookup(ctx, parts[1])

		case "generate", "gen":
			sigType := r.config.SignatureType
			if len(parts) == 2 {
				n, err := strconv.Atoi(parts[1])
				if err != nil {
					fmt.Printf("Invalid signature type: %v\n", err)
					break
				}
				sigType = n
			}
			r.handleGenerate(ctx, sigType)

		case "session":
			if len(parts) != 2 {
				fmt.Println("Usage: session <id>")
				break
			}
			r.handleSession(ctx, parts[1])

		case "close":
			if len(parts) != 2 {
				fmt.Println("Usage: close <id>")
				break
			}
			r.handleClose(parts[1])

		case "stats":
			r.handleStats()

		case "help":
			fmt.Println("Commands:")
			fmt.Println("  hello                - Handshake with every bridge")
			fmt.Println("  lookup <name>        - Resolve a name to a destination")
			fmt.Println("  generate [sigtype]   - Generate a new destination")
			fmt.Println("  session <id>         - Create a STREAM session")
			fmt.Println("  close <id>           - Close a session")
			fmt.Println("  stats                - Show client statistics")
			fmt.Println("  quit                 - Exit the CLI")

		case "quit", "exit":
			cancel()
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", command)
		}
		cancel()
	}

	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading input: %v\n", err)
	}
}

func (r *repl) handleHello(ctx context.Context) {
	start := time.Now()
	versions, err := r.client.Ping(ctx)
	duration := time.Since(start)

	for addr, version := range versions {
		fmt.Printf("  %s: version %s\n", addr, version)
	}
	if err != nil {
		fmt.Printf("Error: %v (took %v)\n", err, duration)
		return
	}
	fmt.Printf("All bridges OK (took %v)\n", duration)
}

func (r *repl) handleLookup(ctx context.Context, name string) {
	start := time.Now()
	result, err := r.client.Lookup(ctx, name)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v (took %v)\n", err, duration)
		return
	}
	if !result.Found {
		fmt.Printf("Name not found (took %v)\n", duration)
		return
	}
	fmt.Printf("Destination: %s (took %v)\n", result.Destination, duration)
}

func (r *repl) handleGenerate(ctx context.Context, sigType int) {
	start := time.Now()
	dest, err := r.client.GenerateDestination(ctx, sigType)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v (took %v)\n", err, duration)
		return
	}
	fmt.Printf("Public:  %s\n", dest.Public)
	fmt.Printf("Private: %s\n", dest.Private)
	fmt.Printf("Generated (took %v)\n", duration)
}

func (r *repl) handleSession(ctx context.Context, id string) {
	if _, exists := r.sessions[id]; exists {
		fmt.Printf("Session %s already open\n", id)
		return
	}

	start := time.Now()
	session, err := r.client.CreateSession(ctx, sam.SessionConfig{ID: id, SignatureType: r.config.SignatureType})
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v (took %v)\n", err, duration)
		return
	}
	r.sessions[id] = session
	fmt.Printf("Session %s created on %s (took %v)\n", id, session.Bridge(), duration)
}

func (r *repl) handleClose(id string) {
	session, exists := r.sessions[id]
	if !exists {
		fmt.Printf("No session %s\n", id)
		return
	}
	delete(r.sessions, id)

	if err := session.Close(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Session %s closed\n", id)
}

func (r *repl) closeSessions() {
	for id, session := range r.sessions {
		_ = session.Close()
		delete(r.sessions, id)
	}
}

func (r *repl) handleStats() {
	stats := r.client.Stats()

	fmt.Println("Operations:")
	fmt.Printf("  Lookups:   %d (%d hits)\n", stats.Lookups, stats.LookupHits)
	fmt.Printf("  Generates: %d\n", stats.Generates)
	fmt.Printf("  Sessions:  %d (%d open)\n", stats.Sessions, len(r.sessions))
	fmt.Printf("  Streams:   %d\n", stats.Streams)
	fmt.Printf("  Errors:    %d\n", stats.Errors)

	pools := r.client.AllPoolStats()
	if len(pools) == 0 {
		return
	}

	fmt.Println("Bridges:")
	for _, s := range pools {
		fmt.Printf("  %s:\n", s.Addr)
		fmt.Printf("    Connections: %d total, %d active, %d idle\n",
			s.PoolStats.TotalConns, s.PoolStats.ActiveConns, s.PoolStats.IdleConns)
		fmt.Printf("    Created: %d, Destroyed: %d, Connect errors: %d\n",
			s.PoolStats.CreatedConns, s.PoolStats.DestroyedConns, s.PoolStats.ConnectErrors)
		fmt.Printf("    Circuit breaker: %s\n", s.CircuitBreakerState)
	}
}
