package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	yaiwr "github.com/softdevteam/pavel.yaiwr"
)

const (
	appName   = "yaiwr"
	sourceExt = ".yaiwr"
)

var helpText = `
REPL commands:
  :quit    Exit the REPL
  :scope   List global names
  :reset   Drop all global bindings
  :help    Show this help
`

// app carries the streams and configuration shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    Config
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet(appName, flag.ContinueOnError)
	flags.SetOutput(stderr)
	cfgPath := flags.String("config", "", "config file (default $"+configEnv+" or ~/"+configFile+")")
	flags.Usage = func() { usage(stderr) }
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(configPath(*cfgPath), *cfgPath != "")
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 2
	}
	a := &app{stdout: stdout, stderr: stderr, cfg: cfg}
	return a.dispatch(flags.Args())
}

func (a *app) dispatch(args []string) int {
	if len(args) == 0 {
		return a.cmdRepl(nil)
	}

	cmd := args[0]
	switch cmd {
	case "run":
		return a.cmdRun(args[1:])
	case "eval":
		return a.cmdEval(args[1:])
	case "repl":
		return a.cmdRepl(args[1:])
	case "fmt":
		return a.cmdFmt(args[1:])
	case "disasm":
		return a.cmdDisasm(args[1:])
	case "mcp":
		return a.cmdMCP(args[1:])
	case "config":
		return a.cmdConfig(args[1:])
	case "version":
		fmt.Fprintln(a.stdout, yaiwr.Version)
		return 0
	case "-h", "--help", "help":
		usage(a.stdout)
		return 0
	}

	// Shorthands: `yaiwr prog.yaiwr` runs a file, `yaiwr '<src>'` evaluates.
	if strings.HasSuffix(cmd, sourceExt) {
		return a.cmdRun(args)
	}
	if len(args) == 1 {
		return a.cmdEval(args)
	}
	fmt.Fprintf(a.stderr, "%s: unknown command %q\n", appName, cmd)
	usage(a.stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `yaiwr %s (built %s)

Usage:
  %s [--config file] <command> [args]

Commands:
  run <file.yaiwr>          Run a program file.
  eval <source>             Evaluate source and print the final value.
  repl                      Start the REPL (default with no arguments).
  fmt [--check] [path ...]  Format .yaiwr files in place (default ".").
  disasm <file.yaiwr>       Print the compiled bytecode.
  mcp                       Serve an evaluation session over MCP (stdio).
  config                    Print the effective configuration.
  version                   Print the version.

Shorthands:
  %s <file.yaiwr>           Same as run.
  %s '<source>'             Same as eval.

`, yaiwr.Version, yaiwr.BuildDate, appName, appName, appName)
}

// errorText renders an error the way the command line reports it.
func errorText(err error) string {
	switch {
	case yaiwr.IsKind(err, yaiwr.ErrParse), yaiwr.IsKind(err, yaiwr.ErrIncomplete), yaiwr.IsKind(err, yaiwr.ErrEval):
		return err.Error()
	}
	return "Evaluation error: " + err.Error()
}

func (a *app) newInterpreter() (*yaiwr.Interpreter, error) {
	logger, err := a.cfg.logger(a.stderr)
	if err != nil {
		return nil, err
	}
	return yaiwr.NewInterpreter(
		yaiwr.WithOutput(a.stdout),
		yaiwr.WithLogger(logger),
		yaiwr.WithMaxCallDepth(a.cfg.MaxCallDepth),
	), nil
}

// -----------------------------------------------------------------------------
// run / eval
// -----------------------------------------------------------------------------

func (a *app) cmdRun(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(a.stderr, "usage: %s run <file%s>\n", appName, sourceExt)
		return 2
	}
	ip, err := a.newInterpreter()
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return 2
	}
	if _, _, err := ip.RunFile(args[0]); err != nil {
		fmt.Fprintln(a.stderr, errorText(err))
		return 1
	}
	return 0
}

func (a *app) cmdEval(args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(a.stderr, "usage: %s eval <source>\n", appName)
		return 2
	}
	ip, err := a.newInterpreter()
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return 2
	}
	v, ok, err := ip.EvalPersistentSource(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(a.stderr, errorText(err))
		return 1
	}
	if ok {
		fmt.Fprintln(a.stdout, yaiwr.FormatValue(v))
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func (a *app) cmdRepl(_ []string) int {
	fmt.Fprintf(a.stdout, "yaiwr %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", yaiwr.Version)

	ip, err := a.newInterpreter()
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return 2
	}
	yaiwr.EnableColor = a.cfg.Color

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := a.cfg.historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	for {
		code, ok := readByParseProbe(ln, a.cfg.Prompt, a.cfg.ContinuationPrompt)
		if !ok {
			fmt.Fprintln(a.stdout)
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if a.replCommand(ip, trimmed) {
				return 0
			}
			continue
		}

		v, ok, err := ip.EvalPersistentSource(code)
		if err != nil {
			fmt.Fprintln(a.stderr, yaiwr.FormatError(errorText(err)))
			continue
		}
		if ok {
			fmt.Fprintln(a.stdout, yaiwr.FormatValue(v))
		}
	}
	return 0
}

// replCommand runs a ':' command and reports whether the REPL should exit.
func (a *app) replCommand(ip *yaiwr.Interpreter, cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":scope":
		for _, name := range ip.Global.Names() {
			b, _ := ip.Global.Lookup(name)
			switch b.Kind {
			case yaiwr.BindFunction:
				fmt.Fprintf(a.stdout, "%s = %s\n", name, yaiwr.FunVal(b.Fun))
			case yaiwr.BindUninit:
				fmt.Fprintf(a.stdout, "%s (uninitialised)\n", name)
			default:
				fmt.Fprintf(a.stdout, "%s = %s\n", name, yaiwr.FormatValue(b.Value))
			}
		}
	case ":reset":
		ip.Reset()
	case ":help":
		fmt.Fprint(a.stdout, helpText)
	default:
		fmt.Fprintln(a.stdout, "unknown command. Type :help for commands.")
	}
	return false
}

// readByParseProbe keeps prompting while the buffered input is an unfinished
// construct.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := yaiwr.ParseSExprInteractive(src); perr != nil && yaiwr.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// -----------------------------------------------------------------------------
// fmt
// -----------------------------------------------------------------------------

func (a *app) cmdFmt(args []string) int {
	flags := flag.NewFlagSet("fmt", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	check := flags.Bool("check", false, "check format; exit 1 if any file would change")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	paths := flags.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	files, err := collectSources(paths)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return 1
	}

	var bad, failed int
	for _, f := range files {
		changed, err := formatFile(f, !*check)
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			failed++
			continue
		}
		if changed && *check {
			fmt.Fprintln(a.stdout, f)
			bad++
		}
	}
	if bad > 0 || failed > 0 {
		return 1
	}
	return 0
}

// collectSources expands directories to the .yaiwr files below them.
func collectSources(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("fmt: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, sourceExt) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fmt: walk %s: %w", p, err)
		}
	}
	return files, nil
}

// formatFile reports whether path is not in canonical form, rewriting it
// when write is set.
func formatFile(path string, write bool) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("fmt: read %s: %w", path, err)
	}
	pretty, err := yaiwr.Pretty(string(src))
	if err != nil {
		return false, yaiwr.WrapErrorWithName(unwrapSnippet(err), path, string(src))
	}
	pretty += "\n"
	if pretty == string(src) {
		return false, nil
	}
	if write {
		if err := os.WriteFile(path, []byte(pretty), 0o644); err != nil {
			return true, fmt.Errorf("fmt: write %s: %w", path, err)
		}
	}
	return true, nil
}

// unwrapSnippet recovers the bare *Error from a rendered snippet so it can be
// rendered again under a file name.
func unwrapSnippet(err error) error {
	var e *yaiwr.Error
	if errors.As(err, &e) {
		return e
	}
	return err
}

// -----------------------------------------------------------------------------
// disasm / config
// -----------------------------------------------------------------------------

func (a *app) cmdDisasm(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(a.stderr, "usage: %s disasm <file%s>\n", appName, sourceExt)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(a.stderr, errorText(&yaiwr.Error{Kind: yaiwr.ErrProgramFileNotFound, Name: args[0]}))
		return 1
	}
	ip, err := a.newInterpreter()
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return 2
	}
	code, err := ip.Compile(string(src))
	if err != nil {
		fmt.Fprintln(a.stderr, yaiwr.WrapErrorWithName(unwrapSnippet(err), args[0], string(src)))
		return 1
	}
	fmt.Fprintln(a.stdout, yaiwr.FormatCode(code))
	return 0
}

func (a *app) cmdConfig(args []string) int {
	if len(args) != 0 {
		fmt.Fprintf(a.stderr, "usage: %s config\n", appName)
		return 2
	}
	data, err := a.cfg.encode()
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return 1
	}
	_, _ = a.stdout.Write(data)
	return 0
}
