package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/babyman/lox/internal/ast"
	"github.com/babyman/lox/internal/config"
	"github.com/babyman/lox/internal/evaluator"
	"github.com/babyman/lox/internal/history"
	"github.com/babyman/lox/internal/lexer"
	"github.com/babyman/lox/internal/parser"
	"github.com/babyman/lox/internal/report"
	"github.com/babyman/lox/internal/repl"
	"github.com/babyman/lox/internal/resolver"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

var (
	help       bool
	version    bool
	logLevel   string
	logFile    string
	configPath string
	historyDSN string
	debugAST   bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.BoolVar(&debugAST, "debug-ast", false, "Print the parsed AST before executing it")
	flag.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, none (default none)")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
	flag.StringVar(&configPath, "config", ".lox.toml", "Path to an optional TOML configuration file")
	flag.StringVar(&historyDSN, "history-dsn", "", "DSN (sqlite://path or mysql://dsn) for REPL session history")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	cfg := loadConfiguration()

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	file := cfg.Logging.File
	if logFile != "" {
		file = logFile
	}
	dsn := cfg.HistoryDSN
	if historyDSN != "" {
		dsn = historyDSN
	}

	logWriter := configureLogWriter(file)
	slog.SetDefault(slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level: logLevelFromString(level),
	})))

	store := openHistoryStore(dsn)
	defer store.Close()

	switch flag.NArg() {
	case 0:
		runREPL(store)
	case 1:
		os.Exit(runFile(flag.Arg(0)))
	default:
		fmt.Fprintln(os.Stderr, "Usage: lox [options] [script]")
		os.Exit(64)
	}
}

func loadConfiguration() *config.Configuration {
	if _, err := os.Stat(configPath); err != nil {
		return config.Default()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("failed to load config file, using defaults", slog.String("path", configPath), slog.Any("error", err))
		return config.Default()
	}
	return cfg
}

func openHistoryStore(dsn string) *history.Store {
	if dsn == "" {
		return nil
	}
	store, err := history.Open(context.Background(), dsn)
	if err != nil {
		slog.Warn("failed to open history store, continuing without history", slog.Any("error", err))
		return nil
	}
	return store
}

func runREPL(store *history.Store) {
	repl.New(os.Stdin, os.Stdout, os.Stderr, store, debugAST).Run()
}

// runFile interprets a single script and returns the process exit code:
// 0 on success, 65 on a parse/resolve error, 70 on a runtime error.
func runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", path, err)
		return 64
	}

	rep := report.New(os.Stderr)

	slog.Debug("scan", slog.String("file", path))
	tokens := lexer.New(string(source), rep).ScanTokens()
	slog.Debug("parse", slog.Int("tokens", len(tokens)))
	stmts := parser.New(tokens, rep).Parse()
	if rep.HadError() {
		return 65
	}

	if debugAST {
		fmt.Println(ast.PrintStmts(stmts))
	}

	slog.Debug("resolve", slog.Int("statements", len(stmts)))
	locals := resolver.New(rep).Resolve(stmts)
	if rep.HadError() {
		return 65
	}

	slog.Debug("evaluate", slog.Int("statements", len(stmts)))
	interp := evaluator.New(locals, func(s string) { fmt.Println(s) })
	if err := interp.Interpret(stmts); err != nil {
		if rtErr, ok := err.(*evaluator.RuntimeError); ok {
			rep.Runtime(&report.RuntimeError{Line: rtErr.Line, Message: rtErr.Message})
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 70
	}
	return 0
}

func configureLogWriter(logFile string) *os.File {
	if logFile == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	return f
}

func printVersion() {
	fmt.Printf("lox version %s %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: lox [options] [script]

Options:
  -debug-ast            Print the parsed AST before executing it.
  -help                 Display this help information and exit.
  -version              Display version information and exit.
  -log-level <level>    Set the log level: trace, debug, info, warn, error, none. Default is none.
  -log-file <path>      Specify a log file to write logs. Default is stderr.
  -config <path>        Path to an optional TOML configuration file. Default is .lox.toml.
  -history-dsn <dsn>    DSN for REPL session history, e.g. sqlite://history.db.

With no script argument, starts an interactive REPL. Type :history at the
REPL prompt to replay the current session's recorded lines (requires
-history-dsn).

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

// levelTrace and levelNone extend slog's four built-in levels to cover the
// driver's full trace|debug|info|warn|error|none set: trace is finer than
// slog.LevelDebug, and none is a threshold no real record can reach.
const (
	levelTrace = slog.Level(-8)
	levelNone  = slog.Level(math.MaxInt)
)

// logLevelFromString maps a configured level name to an slog.Level.
// Anything unrecognized, including the empty string, is treated as "none"
// so a malformed config value degrades to silence rather than to the
// noisiest level.
func logLevelFromString(level string) slog.Level {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return levelNone
	}
}
