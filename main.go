package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	toolcli "github.com/sammcj/mcp-pdf-reader/internal/cli"
	"github.com/sammcj/mcp-pdf-reader/internal/config"
	"github.com/sammcj/mcp-pdf-reader/internal/pathguard"
	"github.com/sammcj/mcp-pdf-reader/internal/registry"
	"github.com/sammcj/mcp-pdf-reader/internal/tools"

	// Import all tool packages to register them
	_ "github.com/sammcj/mcp-pdf-reader/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup
// Using atomic operations to prevent race conditions between signal handlers and cleanup
var (
	debugLogFile atomic.Pointer[os.File]
	isStdioMode  atomic.Bool
)

const (
	// DefaultMemoryLimit is the default memory limit for the Go application (2GB)
	DefaultMemoryLimit = 2 * 1024 * 1024 * 1024
)

// parseLogLevel parses the LOG_LEVEL environment variable and returns the appropriate logrus level.
// Defaults to WarnLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	logLevelStr := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))

	switch logLevelStr {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

// setMemoryLimit configures the Go runtime memory limit. Parsing large
// PDFs is memory-hungry; the soft limit keeps the GC aggressive before
// the OS steps in.
func setMemoryLimit() {
	var memLimit int64 = DefaultMemoryLimit
	if s := os.Getenv("MCP_PDF_READER_MEMORY_LIMIT"); s != "" {
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil && parsed > 0 {
			memLimit = parsed
		}
	}
	debug.SetMemoryLimit(memLimit)
}

func main() {
	setMemoryLimit()

	// Pick up a local .env before anything reads the environment
	_ = godotenv.Load()

	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create a logger with default configuration. Initially discard
	// output - it is reconfigured in Action once the transport is known.
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Initialise the registry
	registry.Init(logger)

	// Ensure cleanup runs on normal exit OR signal
	defer performCleanup(logger)

	app := &cli.Command{
		Name:    "mcp-pdf-reader",
		Usage:   "MCP server for reading, searching and outlining PDF documents",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&cli.StringFlag{
				Name:  "port",
				Value: "18080",
				Usage: "Port to use for HTTP transports (SSE and Streamable HTTP)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Value: "http://localhost",
				Usage: "Base URL for HTTP transports",
			},
			&cli.StringFlag{
				Name:  "endpoint-path",
				Value: "/http",
				Usage: "Endpoint path for Streamable HTTP transport",
			},
			&cli.StringSliceFlag{
				Name:    "root",
				Usage:   "Directory local PDF paths are confined to (repeatable flag, or comma-separated PDF_ROOTS; overrides the config file)",
				Sources: cli.EnvVars(config.RootsEnvVar),
			},
			&cli.StringFlag{
				Name:  "config",
				Value: config.DefaultPath(),
				Usage: "Path to the server configuration file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("mcp-pdf-reader version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
			{
				Name:  "config",
				Usage: "Print the effective configuration (roots, tools)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return handleConfigShow(cmd)
				},
			},
			{
				Name:  "cli",
				Usage: "Run tools directly without an MCP client",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit results as JSON",
					},
				},
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List available tools",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							return newCLIRunner(cmd, logger).ListTools()
						},
					},
					{
						Name:      "help",
						Usage:     "Show a tool's parameters",
						ArgsUsage: "<tool>",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if cmd.Args().Len() != 1 {
								return fmt.Errorf("usage: mcp-pdf-reader cli help <tool>")
							}
							return newCLIRunner(cmd, logger).HelpTool(cmd.Args().First())
						},
					},
					{
						Name:      "run",
						Usage:     "Execute a tool",
						ArgsUsage: "<tool> [--key=value ... | '{json}']",
						Action: func(cliCtx context.Context, cmd *cli.Command) error {
							if cmd.Args().Len() < 1 {
								return fmt.Errorf("usage: mcp-pdf-reader cli run <tool> [args]")
							}
							roots, err := effectiveRoots(cmd)
							if err != nil {
								return err
							}
							pathguard.Default().Configure(roots)
							return newCLIRunner(cmd, logger).RunTool(cliCtx, cmd.Args().First(), cmd.Args().Tail())
						},
					},
				},
			},
		},
		Action: func(cliCtx context.Context, cmd *cli.Command) error {
			transport := cmd.String("transport")
			port := cmd.String("port")
			baseURL := cmd.String("base-url")

			// Track stdio mode for error handling (atomic to prevent races with signal handlers)
			isStdioMode.Store(transport == "stdio")

			configureLogging(logger, transport)

			// Initialise tool error logger after logging is configured
			if err := tools.InitGlobalErrorLogger(logger); err != nil {
				logger.WithError(err).Debug("Failed to initialise tool error logger")
				if transport != "stdio" {
					logger.WithError(err).Warn("Failed to initialise tool error logger")
				}
			}

			// Resolve the allowed roots and configure the path guard
			roots, err := effectiveRoots(cmd)
			if err != nil {
				return err
			}
			pathguard.Default().Configure(roots)
			logger.WithField("roots", pathguard.Default().Roots()).Debug("Path confinement configured")

			if transport != "stdio" {
				logger.Infof("Starting mcp-pdf-reader version %s (commit: %s, built: %s)",
					Version, Commit, BuildDate)
			}

			logger.Debug("Creating MCP server")
			mcpSrv := mcpserver.NewMCPServer("mcp-pdf-reader", "MCP PDF Reader Server")

			enabledTools := registry.GetEnabledTools()
			logger.WithField("tool_count", len(enabledTools)).Debug("MCP server created, registering tools")

			for toolName, toolImpl := range enabledTools {
				// Capture variables to avoid closure race condition
				name := toolName
				tool := toolImpl

				if transport != "stdio" {
					logger.Infof("Registering tool: %s", name)
				}

				mcpSrv.AddTool(tool.Definition(), func(toolCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					// Get fresh reference from registry to ensure consistency
					currentTool, ok := registry.GetTool(name)
					if !ok {
						return nil, fmt.Errorf("tool not found: %s", name)
					}

					args, ok := request.Params.Arguments.(map[string]any)
					if !ok {
						return nil, fmt.Errorf("invalid arguments type: expected map[string]interface{}, got %T", request.Params.Arguments)
					}

					result, err := currentTool.Execute(toolCtx, registry.GetLogger(), registry.GetCache(), args)
					if err != nil {
						if transport != "stdio" {
							logger.WithError(err).Errorf("Tool execution failed: %s", name)
						}
						if errorLogger := tools.GetGlobalErrorLogger(); errorLogger != nil && errorLogger.IsEnabled() {
							errorLogger.LogToolError(name, args, err, transport)
						}
						return nil, fmt.Errorf("tool execution failed: %w", err)
					}

					return result, nil
				})
			}

			logger.WithField("transport", transport).Debug("Starting server")
			switch transport {
			case "stdio":
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				logger.WithField("port", port).Debug("Starting SSE server")
				sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(baseURL+"/sse"))
				return sseServer.Start(":" + port)
			case "http":
				logger.WithField("port", port).Debug("Starting Streamable HTTP server")
				httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
					mcpserver.WithEndpointPath(cmd.String("endpoint-path")))
				return httpServer.Start(":" + port)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// In stdio mode we must not write to stdout or stderr as it
		// breaks the MCP protocol, even for startup errors.
		if !isStdioMode.Load() {
			logger.Fatalf("Error: %v", err)
		}
		os.Exit(1)
	}
}

// configureLogging routes logs to a file so that stdio transports never
// see log output on stdout/stderr.
func configureLogging(logger *logrus.Logger, transport string) {
	logLevel := parseLogLevel()
	if transport == "stdio" && logLevel < logrus.WarnLevel {
		logLevel = logrus.WarnLevel // minimum warn level for stdio mode
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		logDir := filepath.Join(homeDir, ".mcp-pdf-reader", "logs")
		if err := os.MkdirAll(logDir, 0700); err == nil {
			logFile := filepath.Join(logDir, "mcp-pdf-reader.log")
			if file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
				debugLogFile.Store(file)
				logger.SetOutput(file)
				logrus.SetOutput(file)
				logger.SetLevel(logLevel)
				logrus.SetLevel(logLevel)
				logger.WithField("level", logLevel.String()).Debug("Logging configured")
				return
			}
		}
	}

	// No usable log file: discard in stdio mode to protect the
	// protocol, fall back to stderr otherwise.
	if transport == "stdio" {
		logger.SetOutput(io.Discard)
		logrus.SetOutput(io.Discard)
	} else {
		logger.SetOutput(os.Stderr)
		logrus.SetOutput(os.Stderr)
	}
	logger.SetLevel(logLevel)
	logrus.SetLevel(logLevel)
}

// newCLIRunner builds a tool runner for direct command-line execution.
func newCLIRunner(cmd *cli.Command, logger *logrus.Logger) *toolcli.Runner {
	logger.SetOutput(os.Stderr)
	return toolcli.NewRunner(logger, registry.GetCache(), os.Stdout, cmd.Bool("json"))
}

// effectiveRoots merges the --root flags, PDF_ROOTS and the config file.
func effectiveRoots(cmd *cli.Command) ([]string, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	return config.EffectiveRoots(cmd.StringSlice("root"), cfg), nil
}

// handleConfigShow prints the effective configuration for operators.
func handleConfigShow(cmd *cli.Command) error {
	roots, err := effectiveRoots(cmd)
	if err != nil {
		return err
	}

	heading := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)

	_, _ = heading.Println("Allowed roots")
	if len(roots) == 0 {
		cwd, _ := os.Getwd()
		_, _ = warn.Printf("  (none configured - local paths resolve against the working directory: %s)\n", cwd)
	}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = root
		}
		fmt.Printf("  %s\n", abs)
	}

	_, _ = heading.Println("Tools")
	for _, name := range registry.GetEnabledToolNames() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

// performCleanup handles cleanup of resources on shutdown
func performCleanup(logger *logrus.Logger) {
	// Close the debug log file if it was opened (atomic load to prevent races)
	if file := debugLogFile.Load(); file != nil {
		// Silently close - stdio mode allows no output and other modes
		// may be writing to this very file.
		_ = file.Close()
	}

	// Close the tool error logger if it was initialised
	if errorLogger := tools.GetGlobalErrorLogger(); errorLogger != nil {
		if err := errorLogger.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close tool error logger")
		}
	}
}
