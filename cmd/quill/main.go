// Quill CLI - brings up a runtime and reports its state, for smoke-testing
// an embedding before the evaluation loop is attached.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/quillvm/quill/vm"
)

func main() {
	configPath := flag.String("config", "", "Path to quill.toml (defaults to built-in config)")
	interps := flag.Int("interps", 1, "Number of subinterpreters to create")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quill [options]\n\n")
		fmt.Fprintf(os.Stderr, "Starts a Quill runtime, creates subinterpreters, and prints pool\n")
		fmt.Fprintf(os.Stderr, "and registry state.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	cfg := vm.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = vm.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	rt, err := vm.NewRuntime(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating runtime: %v\n", err)
		os.Exit(1)
	}

	for i := 1; i < *interps; i++ {
		rt.NewInterpreter(cfg)
	}

	fmt.Printf("runtime %s\n", rt.InstanceID)
	fmt.Printf("interpreters: %d\n", rt.InterpreterCount())

	n := 0
	rt.ForEachInterpreter(func(interp *vm.InterpreterState) bool {
		fmt.Printf("\ninterpreter #%d (id=%d, recursion-limit=%d)\n",
			n, interp.ID(), interp.Ceval().RecursionLimit())
		stats := interp.FreeLists().Stats()
		names := make([]string, 0, len(stats))
		for name := range stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  pool %-13s %d\n", name, stats[name])
		}
		n++
		return true
	})

	if err := rt.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		os.Exit(1)
	}
}
