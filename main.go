// Package main implements the gentoostats client, which reports what is
// installed on a Gentoo system to a statistics collector.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/gg7/gentoostats/cmd"
	"github.com/gg7/gentoostats/internal/core"
	"github.com/gg7/gentoostats/internal/portage"
	"github.com/gg7/gentoostats/internal/tui"
	"github.com/gg7/gentoostats/internal/types"
	"github.com/gg7/gentoostats/internal/version"
)

// defaultHistoryLimit is how many submissions "history" shows without --limit.
const defaultHistoryLimit = 10

// commandAlias describes a short or retired command name.
type commandAlias struct {
	target     string
	deprecated bool
}

// commandAliases maps the single-letter module names and retired commands to
// the current command.
var commandAliases = map[string]commandAlias{
	"s":         {target: "submit"},
	"c":         {target: "init", deprecated: true},
	"configure": {target: "init", deprecated: true},
}

// rewriteDeprecatedCommand replaces an aliased command in os.Args and
// returns the command to dispatch. Retired commands print a notice to stderr.
func rewriteDeprecatedCommand(command string) string {
	alias, ok := commandAliases[command]
	if !ok {
		return command
	}
	if alias.deprecated {
		fmt.Fprintf(os.Stderr, "DEPRECATED: 'gentoostats %s' is now 'gentoostats %s'\n", command, alias.target)
	}
	os.Args[1] = alias.target
	return alias.target
}

// parseCommonFlags extracts the flags every command accepts from args.
// Returns: flags, remainingArgs
func parseCommonFlags(args []string) (core.CommonFlags, []string, error) {
	flags := core.CommonFlags{}
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--quiet" || arg == "-q":
			flags.Mode = core.OutputQuiet
		case arg == "--json":
			flags.Mode = core.OutputJSON
		case arg == "--verbose" || arg == "-v":
			flags.Verbose = true
		case arg == "--config" || arg == "--root":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			if arg == "--config" {
				flags.ConfigPath = args[i]
			} else {
				flags.Root = args[i]
			}
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--root="):
			flags.Root = strings.TrimPrefix(arg, "--root=")
		default:
			remaining = append(remaining, arg)
		}
	}

	return flags, remaining, nil
}

// submitFlags holds the parsed options of "submit".
type submitFlags struct {
	opts        core.SubmitOptions
	serverSet   bool
	sslSet      bool
	authFile    string
	payloadFile string
}

// parseSubmitFlags parses the options of "submit" and fills in defaults from
// cfg. Without an explicit server, disabling SSL selects the plain-HTTP
// server.
func parseSubmitFlags(args []string, cfg types.ClientConfig) (core.SubmitOptions, types.ClientConfig, error) {
	var f submitFlags

	value := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "--") {
			name, inline, hasInline = arg, "", false
		}

		var v string
		var err error
		switch name {
		case "--pretend", "-p":
			if hasInline {
				return core.SubmitOptions{}, cfg, fmt.Errorf("%s does not take a value", name)
			}
			f.opts.Pretend = true
			continue
		case "--server", "-s", "--url", "-u", "--ssl", "--auth", "-a", "--payload", "-P":
			if hasInline {
				v = inline
			} else if v, err = value(&i, name); err != nil {
				return core.SubmitOptions{}, cfg, err
			}
		default:
			return core.SubmitOptions{}, cfg, fmt.Errorf("unknown option %q", arg)
		}

		switch name {
		case "--server", "-s":
			f.opts.Server, f.serverSet = v, true
		case "--url", "-u":
			f.opts.URL = v
		case "--ssl":
			ssl, err := core.ParseFlexibleBool(v)
			if err != nil {
				return core.SubmitOptions{}, cfg, fmt.Errorf("--ssl: %w", err)
			}
			f.opts.SSL, f.sslSet = ssl, true
		case "--auth", "-a":
			f.authFile = v
		case "--payload", "-P":
			f.payloadFile = v
		}
	}

	if !f.sslSet {
		f.opts.SSL = cfg.UseSSL()
	}
	if !f.serverSet {
		f.opts.Server = cfg.Server
		if !f.opts.SSL {
			f.opts.Server = cfg.ServerNoSSL
		}
	}
	if f.opts.URL == "" {
		f.opts.URL = cfg.URL
	}
	if f.authFile != "" {
		cfg.AuthFile = f.authFile
	}
	if f.payloadFile != "" {
		cfg.PayloadFile = f.payloadFile
	}
	return f.opts, cfg, nil
}

// sbomFlags holds the parsed options of "sbom".
type sbomFlags struct {
	format core.SBOMFormat
	output string
}

func parseSBOMFlags(args []string) (sbomFlags, error) {
	f := sbomFlags{format: core.SBOMFormatCycloneDX}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--format" || arg == "--output" || arg == "-o":
			if i+1 >= len(args) {
				return f, fmt.Errorf("%s requires a value", arg)
			}
			i++
			if arg == "--format" {
				format, err := core.ParseSBOMFormat(args[i])
				if err != nil {
					return f, err
				}
				f.format = format
			} else {
				f.output = args[i]
			}
		case strings.HasPrefix(arg, "--format="):
			format, err := core.ParseSBOMFormat(strings.TrimPrefix(arg, "--format="))
			if err != nil {
				return f, err
			}
			f.format = format
		case strings.HasPrefix(arg, "--output="):
			f.output = strings.TrimPrefix(arg, "--output=")
		default:
			return f, fmt.Errorf("unknown option %q", arg)
		}
	}
	return f, nil
}

// parseLimit parses "history --limit N".
func parseLimit(args []string) (int, error) {
	limit := defaultHistoryLimit
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var raw string
		switch {
		case arg == "--limit":
			if i+1 >= len(args) {
				return 0, errors.New("--limit requires a value")
			}
			i++
			raw = args[i]
		case strings.HasPrefix(arg, "--limit="):
			raw = strings.TrimPrefix(arg, "--limit=")
		default:
			return 0, fmt.Errorf("unknown option %q", arg)
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid --limit %q: must be a positive integer", raw)
		}
		limit = n
	}
	return limit, nil
}

// hasFlag reports whether args contains any of names, and returns the rest.
func hasFlag(args []string, names ...string) (bool, []string) {
	found := false
	var rest []string
	for _, arg := range args {
		matched := false
		for _, n := range names {
			if arg == n {
				matched = true
				break
			}
		}
		if matched {
			found = true
			continue
		}
		rest = append(rest, arg)
	}
	return found, rest
}

// payloadFlag extracts --payload/-P from args for commands that only build
// the report.
func payloadFlag(args []string) (string, []string, error) {
	var payload string
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--payload" || arg == "-P":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			payload = args[i]
		case strings.HasPrefix(arg, "--payload="):
			payload = strings.TrimPrefix(arg, "--payload=")
		default:
			rest = append(rest, arg)
		}
	}
	return payload, rest, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// setupLogging sends diagnostics to stderr; --verbose enables debug records.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newCallback picks the UI callback: styled output on an interactive
// terminal, plain or JSON output otherwise.
func newCallback(flags core.CommonFlags, interactive bool) core.UICallback {
	if flags.Mode == core.OutputNormal && interactive {
		return tui.NewTUICallback()
	}
	return tui.NewNonInteractiveTUICallback(flags)
}

// newProgressTracker picks the progress display for package collection.
func newProgressTracker(flags core.CommonFlags, interactive bool) core.ProgressTracker {
	const label = "Reading installed packages"
	switch {
	case flags.Mode != core.OutputNormal:
		return tui.NewNoOpProgressTracker()
	case interactive:
		return tui.NewBubbletaeProgressTracker(0, label)
	default:
		return tui.NewTextProgressTracker(0, label)
	}
}

// documentName names SBOM documents after the host.
func documentName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "gentoostats"
	}
	return "gentoostats-" + host
}

func main() {
	if len(os.Args) < 2 {
		tui.PrintHelp()
		os.Exit(0)
	}

	command := os.Args[1]

	// Handle help flags
	if command == "--help" || command == "-h" || command == "help" {
		tui.PrintHelp()
		os.Exit(0)
	}

	// Handle version flag
	if command == "--version" || command == "-V" {
		fmt.Print(version.Banner("gentoostats"))
		os.Exit(0)
	}

	// Completion output must not depend on configuration.
	if command == "completion" {
		if len(os.Args) < 3 {
			tui.PrintError("Usage", "gentoostats completion <bash|zsh|fish|powershell>")
			os.Exit(core.ExitInvalidArguments)
		}
		script, err := cmd.Generate(os.Args[2])
		if err != nil {
			tui.PrintError("Error", err.Error())
			os.Exit(core.ExitInvalidArguments)
		}
		fmt.Print(script)
		os.Exit(0)
	}

	command = rewriteDeprecatedCommand(command)

	flags, args, err := parseCommonFlags(os.Args[2:])
	interactive := isTerminal(os.Stderr)
	callback := newCallback(flags, interactive)
	if err != nil {
		os.Exit(fail(flags, callback, "Invalid arguments", invalidArgs(err)))
	}
	setupLogging(flags.Verbose)

	manager := core.NewManager(flags.ConfigPath, portage.Open)
	manager.SetUICallback(callback)
	manager.SetProgressTracker(newProgressTracker(flags, interactive))

	cfg, err := manager.Config()
	if err != nil {
		os.Exit(fail(flags, callback, "Configuration error", err))
	}
	if flags.Root != "" {
		cfg.Root = flags.Root
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var code int
	switch command {
	case "submit":
		code = runSubmit(ctx, manager, cfg, flags, callback, args)
	case "dump":
		code = runDump(ctx, manager, cfg, flags, callback, args)
	case "sbom":
		code = runSBOM(ctx, manager, cfg, flags, callback, args)
	case "history":
		code = runHistory(ctx, manager, cfg, flags, callback, args)
	case "watch":
		code = runWatch(ctx, manager, cfg, flags, callback, args)
	case "init":
		code = runInit(manager, cfg, flags, callback, args)
	default:
		code = fail(flags, callback, "Unknown command", invalidArgs(fmt.Errorf("unknown command %q; run 'gentoostats help'", command)))
	}

	stop()
	os.Exit(code)
}

// invalidArgsError marks a command-line usage error.
type invalidArgsError struct{ err error }

func (e *invalidArgsError) Error() string { return e.err.Error() }
func (e *invalidArgsError) Unwrap() error { return e.err }

func invalidArgs(err error) error { return &invalidArgsError{err: err} }

// fail reports err the way the output mode asks for and returns the exit code.
func fail(flags core.CommonFlags, callback core.UICallback, title string, err error) int {
	code, exit := core.CLIErrorCodeForError(err), core.CLIExitCodeForError(err)
	var usage *invalidArgsError
	if errors.As(err, &usage) {
		code, exit = core.ErrCodeInvalidArguments, core.ExitInvalidArguments
	}
	if flags.Mode == core.OutputJSON {
		return core.EmitCLIError(code, err.Error(), exit)
	}
	callback.ShowError(title, err.Error())
	return exit
}

// ============================================================================
// Commands
// ============================================================================

func runSubmit(ctx context.Context, manager *core.Manager, cfg types.ClientConfig, flags core.CommonFlags, callback core.UICallback, args []string) int {
	opts, cfg, err := parseSubmitFlags(args, cfg)
	if err != nil {
		return fail(flags, callback, "Invalid arguments", invalidArgs(err))
	}

	result, err := manager.Submit(ctx, cfg, opts)
	if err != nil {
		return fail(flags, callback, "Submission failed", err)
	}

	if flags.Mode == core.OutputJSON {
		data := map[string]any{
			"url":     result.URL,
			"pretend": opts.Pretend,
		}
		if opts.Pretend {
			data["payload"] = json.RawMessage(result.Body)
		} else {
			data["response"] = string(result.Response)
		}
		core.EmitCLISuccess(data)
		return core.ExitSuccess
	}

	if opts.Pretend {
		callback.ShowInfo("Would submit to " + result.URL)
		fmt.Println(string(result.Body))
		return core.ExitSuccess
	}
	callback.ShowSuccess("Submitted to " + result.URL)
	if resp := strings.TrimSpace(string(result.Response)); resp != "" {
		callback.ShowInfo(resp)
	}
	return core.ExitSuccess
}

func runDump(ctx context.Context, manager *core.Manager, cfg types.ClientConfig, flags core.CommonFlags, callback core.UICallback, args []string) int {
	payload, args, err := payloadFlag(args)
	if err != nil {
		return fail(flags, callback, "Invalid arguments", invalidArgs(err))
	}
	if payload != "" {
		cfg.PayloadFile = payload
	}
	human, args := hasFlag(args, "--human")
	if len(args) > 0 {
		return fail(flags, callback, "Invalid arguments", invalidArgs(fmt.Errorf("unknown option %q", args[0])))
	}

	data, err := manager.Dump(ctx, cfg, human)
	if err != nil {
		return fail(flags, callback, "Report failed", err)
	}

	if flags.Mode == core.OutputJSON {
		core.EmitCLISuccess(json.RawMessage(data))
		return core.ExitSuccess
	}
	fmt.Println(string(data))
	return core.ExitSuccess
}

func runSBOM(ctx context.Context, manager *core.Manager, cfg types.ClientConfig, flags core.CommonFlags, callback core.UICallback, args []string) int {
	opts, err := parseSBOMFlags(args)
	if err != nil {
		return fail(flags, callback, "Invalid arguments", invalidArgs(err))
	}

	data, err := manager.SBOM(ctx, cfg, opts.format, documentName())
	if err != nil {
		return fail(flags, callback, "SBOM generation failed", err)
	}

	if opts.output == "" {
		fmt.Println(string(data))
		return core.ExitSuccess
	}
	if err := os.WriteFile(opts.output, append(data, '\n'), 0o644); err != nil {
		return fail(flags, callback, "SBOM generation failed", err)
	}
	if flags.Mode == core.OutputJSON {
		core.EmitCLISuccess(map[string]string{"format": string(opts.format), "output": opts.output})
		return core.ExitSuccess
	}
	callback.ShowSuccess(fmt.Sprintf("%s SBOM written to %s", opts.format, opts.output))
	return core.ExitSuccess
}

func runHistory(ctx context.Context, manager *core.Manager, cfg types.ClientConfig, flags core.CommonFlags, callback core.UICallback, args []string) int {
	limit, err := parseLimit(args)
	if err != nil {
		return fail(flags, callback, "Invalid arguments", invalidArgs(err))
	}

	records, err := manager.History(ctx, cfg, limit)
	if err != nil {
		return fail(flags, callback, "History unavailable", err)
	}

	if flags.Mode == core.OutputJSON {
		if records == nil {
			records = []types.SubmissionRecord{}
		}
		core.EmitCLISuccess(records)
		return core.ExitSuccess
	}
	tui.PrintHistory(records)
	return core.ExitSuccess
}

func runWatch(ctx context.Context, manager *core.Manager, cfg types.ClientConfig, flags core.CommonFlags, callback core.UICallback, args []string) int {
	payload, args, err := payloadFlag(args)
	if err != nil {
		return fail(flags, callback, "Invalid arguments", invalidArgs(err))
	}
	if payload != "" {
		cfg.PayloadFile = payload
	}
	if len(args) > 0 {
		return fail(flags, callback, "Invalid arguments", invalidArgs(fmt.Errorf("unknown option %q", args[0])))
	}

	callback.ShowInfo("Watching " + cfg.PayloadFile + " (Ctrl+C to stop)")
	err = manager.Watch(ctx, cfg, func() error {
		policy, err := manager.LoadPolicy(cfg)
		if err != nil {
			return err
		}
		if flags.Mode == core.OutputNormal {
			tui.PrintPolicySummary(policy)
		}
		data, err := manager.Dump(ctx, cfg, true)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fail(flags, callback, "Watch failed", err)
	}
	return core.ExitSuccess
}

func runInit(manager *core.Manager, cfg types.ClientConfig, flags core.CommonFlags, callback core.UICallback, args []string) int {
	payload, args, err := payloadFlag(args)
	if err != nil {
		return fail(flags, callback, "Invalid arguments", invalidArgs(err))
	}
	if payload != "" {
		cfg.PayloadFile = payload
	}
	force, args := hasFlag(args, "--force")
	if len(args) > 0 {
		return fail(flags, callback, "Invalid arguments", invalidArgs(fmt.Errorf("unknown option %q", args[0])))
	}

	result, err := manager.Init(cfg, force)
	if err != nil {
		return fail(flags, callback, "Initialization failed", err)
	}

	if flags.Mode == core.OutputJSON {
		core.EmitCLISuccess(map[string][]string{
			"written": nonNil(result.Written),
			"skipped": nonNil(result.Skipped),
		})
		return core.ExitSuccess
	}
	for _, path := range result.Written {
		callback.ShowSuccess("Wrote " + path)
	}
	for _, path := range result.Skipped {
		callback.ShowWarning("Skipped", path+" already exists; use --force to overwrite")
	}
	return core.ExitSuccess
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
