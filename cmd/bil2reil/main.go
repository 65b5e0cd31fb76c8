// bil2reil translates textual BIL programs into REIL instruction
// listings. It is the command-line front end for pkg/reilgen; the
// machine-code lifter is replaced by the textual parser.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/openreil/reilgen/pkg/bilparse"
	"github.com/openreil/reilgen/pkg/reil"
	"github.com/openreil/reilgen/pkg/reilgen"
	"github.com/openreil/reilgen/pkg/x86"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
)

var version = "0.1.0"

// Debug trace flags, also settable through the environment
var (
	dBap     bool // DBG_BAP: trace BIL statements
	dTempReg bool // DBG_TEMPREG: trace temporary allocation
)

var outputFile string

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Normalize single-dash debug flags to double-dash for pflag compatibility
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bil2reil: %v\n", err)
		return 1
	}
	return 0
}

// debugFlagNames lists the debug flags that accept single-dash style
var debugFlagNames = []string{"dbap", "dtempreg"}

// normalizeFlags converts single-dash debug flags like -dbap to --dbap
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bil2reil [flags] [file]",
		Short:         "Translate textual BIL to REIL instructions",
		Long:          "bil2reil lowers a textual BIL program to a linear REIL instruction listing.\nWith no file argument, input is read from stdin.",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return translate(args, out, errOut)
		},
	}

	rootCmd.Flags().BoolVar(&dBap, "dbap", env.Bool("DBG_BAP"), "trace BIL statements during translation")
	rootCmd.Flags().BoolVar(&dTempReg, "dtempreg", env.Bool("DBG_TEMPREG"), "trace temporary register allocation")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the REIL listing to a file instead of stdout")

	return rootCmd
}

func translate(args []string, out, errOut io.Writer) error {
	var src []byte
	var err error
	if len(args) == 1 {
		src, err = os.ReadFile(args[0])
		if err != nil {
			return err
		}
	} else {
		src, err = io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
	}

	insns, err := bilparse.Parse(string(src))
	if err != nil {
		return err
	}

	w := out
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	opts := []reilgen.Option{
		reilgen.WithFlagExpander(x86.Flags{}),
		reilgen.WithDisasm(x86.Regs{}),
		reilgen.WithDiagnostics(errOut),
	}
	if dBap {
		opts = append(opts, reilgen.WithStmtTrace(errOut))
	}
	if dTempReg {
		opts = append(opts, reilgen.WithTempTrace(errOut))
	}

	lifter := bilparse.NewLifter(insns)
	tr := reilgen.New(reilgen.ArchX86, lifter, opts...)

	for _, addr := range lifter.Addrs() {
		_, err := tr.Translate(addr, nil, func(inst reil.Inst) {
			fmt.Fprintln(w, inst)
		})
		if err != nil {
			return fmt.Errorf("0x%x: %w", addr, err)
		}
	}
	return nil
}
