// Command imi-mcp exposes the imi worktree manager as MCP tools.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	imimcp "github.com/imihq/imi-mcp"
	"github.com/imihq/imi-mcp/internal/config"
	imcp "github.com/imihq/imi-mcp/internal/mcp"
	"github.com/imihq/imi-mcp/internal/runner"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("imi-mcp: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "mcp":
		err = mcpMain(args)
	case "call":
		err = callMain(args)
	case "version":
		fmt.Println(imimcp.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "imi-mcp: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: imi-mcp <command> [flags] [args]

Commands:
  mcp         Start the MCP server (stdio by default)
  call        Run one imi command through the wrapper and print the outcome
  version     Print the version
  help        Show this help

Use "imi-mcp <command> -h" for command-specific flags.`)
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(imcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg.Level())
	if err != nil {
		return err
	}

	r := &runner.Runner{
		Binary:    cfg.BinaryPath(),
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}
	server := imcp.NewServer(r, logger)

	logger.Info().
		Str("binary", cfg.BinaryPath()).
		Dur("timeout", cfg.Timeout()).
		Msg("imi-mcp server starting")

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr, logger)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string, logger zerolog.Logger) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	logger.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// newLogger builds a stderr logger; stdout belongs to the stdio transport.
func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl), nil
}

// --- call ---

func callMain(args []string) error {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	timeoutFlag := fs.Duration("timeout", 0, "override configured timeout (e.g. 45s)")
	_ = fs.Parse(args)

	if len(fs.Args()) == 0 {
		return fmt.Errorf("call: no imi arguments given")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	timeout := cfg.Timeout()
	if *timeoutFlag > 0 {
		timeout = *timeoutFlag
	}

	r := &runner.Runner{
		Binary:    cfg.BinaryPath(),
		Timeout:   timeout,
		MaxOutput: cfg.MaxOutputBytes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	raw := r.Invoke(ctx, fs.Args())
	out := runner.Extract(raw)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "imi-mcp: run %s exit %d in %s\n", raw.RunID, out.ExitCode, time.Since(start).Round(time.Millisecond))

	if !out.OK {
		code := out.ExitCode
		if code == 0 {
			code = 1
		}
		os.Exit(code)
	}
	return nil
}
