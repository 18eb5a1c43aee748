// Package cli implements the wirevm command line: running and disassembling
// assembly files, driving the random-program fuzz loop, and hosting or
// querying the gRPC evaluation service.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/funvibe/wirevm/internal/asm"
	"github.com/funvibe/wirevm/internal/config"
	"github.com/funvibe/wirevm/internal/corpus"
	"github.com/funvibe/wirevm/internal/evalserver"
	"github.com/funvibe/wirevm/internal/vm"
	"github.com/funvibe/wirevm/tests/fuzz/generators"
)

// Exit codes: user-level program failures are distinguished from everything
// else so scripted callers can tell "the program's assertion fired" apart
// from "the tool or the program is broken".
const (
	exitOK       = 0
	exitFailure  = 1
	exitInternal = 2
)

// Entry dispatches os.Args and returns the process exit code.
func Entry() int {
	if len(os.Args) < 2 {
		printUsage()
		return exitInternal
	}

	switch os.Args[1] {
	case "run":
		return handleRun(os.Args[2:])
	case "disasm":
		return handleDisasm(os.Args[2:])
	case "fuzz":
		return handleFuzz(os.Args[2:])
	case "serve":
		return handleServe(os.Args[2:])
	case "eval":
		return handleEval(os.Args[2:])
	case "help", "-help", "--help":
		printUsage()
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		return exitInternal
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [options]

Commands:
  run <file>      parse and interpret an assembly file
  disasm <file>   parse an assembly file and print its listing
  fuzz            run random programs and record outcomes
  serve           host the gRPC evaluation service
  eval <file>     send an assembly file to a running eval server
  help            show this message

Common options:
  -config <path>  configuration file (default wirevm.yaml if present)
`, filepath.Base(os.Args[0]))
}

// loadConfig reads the named config file, or wirevm.yaml when it exists, or
// falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat("wirevm.yaml"); err == nil {
		return config.Load("wirevm.yaml")
	}
	return config.Default(), nil
}

func handleRun(args []string) int {
	var configPath string
	slots := -1
	var files []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-config requires a path")
				return exitInternal
			}
			configPath = args[i]
		case "-slots":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-slots requires a count")
				return exitInternal
			}
			n, err := parsePositiveInt(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "-slots: %s\n", err)
				return exitInternal
			}
			slots = n
		default:
			files = append(files, args[i])
		}
	}
	if len(files) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s run [-slots n] [-config path] <file>\n", filepath.Base(os.Args[0]))
		return exitInternal
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	colors := newColorizer(cfg.Color)

	code, parseErr := parseFile(files[0])
	if parseErr != nil {
		fmt.Fprintf(os.Stderr, "%s\n", colors.red(parseErr.Error()))
		return exitInternal
	}
	if slots < 0 {
		slots = countSlots(code)
	}

	result, err := vm.Interpret(code, vm.NewEnvironment(slots))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", colors.red(vm.ClassifyError(err).String()), err)
		if vm.IsInternalError(err) {
			return exitInternal
		}
		return exitFailure
	}
	fmt.Println(colors.green(result.Inspect()))
	return exitOK
}

func handleDisasm(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s disasm <file>\n", filepath.Base(os.Args[0]))
		return exitInternal
	}
	code, err := parseFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	fmt.Print(vm.Disassemble(code, name))
	return exitOK
}

func handleFuzz(args []string) int {
	var configPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-config requires a path")
				return exitInternal
			}
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown fuzz option: %s\n", args[i])
			return exitInternal
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	colors := newColorizer(cfg.Color)

	store, err := corpus.Open(cfg.Fuzz.Corpus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	defer store.Close()

	seed := cfg.Fuzz.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx := context.Background()
	gen := generators.New(seed)
	counts := map[string]int{}
	for i := 0; i < cfg.Fuzz.Samples; i++ {
		code := gen.GenerateProgram()
		slots := gen.SlotCount()

		outcome := corpus.OutcomeOK
		detail := ""
		result, err := vm.Interpret(code, vm.NewEnvironment(slots))
		if err != nil {
			outcome = vm.ClassifyError(err).String()
			detail = err.Error()
		} else {
			detail = result.Inspect()
		}
		counts[outcome]++

		if outcome == corpus.OutcomeOK && !cfg.Fuzz.KeepPassing {
			continue
		}
		sample := corpus.Sample{
			Assembly:  generators.RenderAssembly(code),
			SlotCount: slots,
			Outcome:   outcome,
			Detail:    detail,
		}
		if _, err := store.Put(ctx, sample); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return exitInternal
		}
	}

	fmt.Printf("ran %d samples (seed %d)\n", cfg.Fuzz.Samples, seed)
	for outcome, n := range counts {
		line := fmt.Sprintf("  %-20s %d", outcome, n)
		if outcome == corpus.OutcomeOK {
			fmt.Println(colors.green(line))
		} else {
			fmt.Println(colors.red(line))
		}
	}
	// Generated programs are valid by construction, so anything but a clean
	// run points at a generator or interpreter bug.
	if len(counts) > 1 || counts[corpus.OutcomeOK] != cfg.Fuzz.Samples {
		return exitFailure
	}
	return exitOK
}

func handleServe(args []string) int {
	var configPath, addr string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-config requires a path")
				return exitInternal
			}
			configPath = args[i]
		case "-addr":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-addr requires an address")
				return exitInternal
			}
			addr = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown serve option: %s\n", args[i])
			return exitInternal
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	srv, err := evalserver.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	fmt.Printf("serving %s on %s\n", evalserver.ServiceName, addr)
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	return exitOK
}

func handleEval(args []string) int {
	var configPath, addr string
	slots := 0
	var files []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-config requires a path")
				return exitInternal
			}
			configPath = args[i]
		case "-addr":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-addr requires an address")
				return exitInternal
			}
			addr = args[i]
		case "-slots":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-slots requires a count")
				return exitInternal
			}
			n, err := parsePositiveInt(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "-slots: %s\n", err)
				return exitInternal
			}
			slots = n
		default:
			files = append(files, args[i])
		}
	}
	if len(files) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s eval [-addr host:port] [-slots n] <file>\n", filepath.Base(os.Args[0]))
		return exitInternal
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	colors := newColorizer(cfg.Color)
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}

	client, err := evalserver.Dial(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	out, err := client.Evaluate(ctx, string(data), slots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return exitInternal
	}
	if out.Kind != "ok" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", colors.red(out.Kind), out.Failure)
		if out.Kind == "assertion failure" || out.Kind == "index out of bounds" {
			return exitFailure
		}
		return exitInternal
	}
	fmt.Println(colors.green(out.Value))
	return exitOK
}

func parseFile(path string) ([]vm.Instruction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := asm.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, nil
}

// countSlots infers an environment size from the highest slot an instruction
// touches.
func countSlots(code []vm.Instruction) int {
	max := 0
	for _, in := range code {
		if (in.Op == vm.OP_STORE || in.Op == vm.OP_LOAD) && in.Slot+1 > max {
			max = in.Slot + 1
		}
	}
	return max
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return n, nil
}
