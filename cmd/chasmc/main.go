package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	chasmc "github.com/konik-sektion/chasmc"
)

// This is a thin CLI shim, out of scope for the core translator itself
// (spec.md §1): it locates an input file, calls chasmc.Compile, and
// optionally shells out to an assembler/linker to produce a binary.
func main() {
	var (
		outFlag     = flag.String("o", "", "output .s file path (default: <input>.s)")
		configFlag  = flag.String("c", "", "path to a chasmc.toml config file")
		assembleOut = flag.String("A", "", "assemble the generated .s to an object/binary at this path")
		// -p is the legacy combined flag from the original driver: it
		// sets the assembled-output path and the final linked-output
		// path to the same value, rather than letting them diverge.
		combined = flag.String("p", "", "assemble and link in one step, writing the executable here (equivalent to matching -A and -O)")
		linkOut  = flag.String("O", "", "link the assembled object into an executable at this path")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: chasmc [-o out.s] [-A out.o] [-O out] [-p out] [-c chasmc.toml] <input>")
		os.Exit(2)
	}
	inputPath := args[0]

	assembleTo := *assembleOut
	linkTo := *linkOut
	if *combined != "" {
		assembleTo = *combined
		linkTo = *combined
	}

	cfg, err := chasmc.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chasmc error: %v\n", err)
		os.Exit(1)
	}

	outPath := *outFlag
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".s"
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chasmc error: %v\n", err)
		os.Exit(1)
	}
	if err := chasmc.Compile(inputPath, outFile, cfg); err != nil {
		outFile.Close()
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	if err := outFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "chasmc error: %v\n", err)
		os.Exit(1)
	}

	if assembleTo == "" {
		return
	}
	if err := runAssembler(cfg, outPath, assembleTo); err != nil {
		fmt.Fprintf(os.Stderr, "chasmc error: %v\n", err)
		os.Exit(1)
	}
	if linkTo == "" {
		return
	}
	if err := runLinker(cfg, assembleTo, linkTo); err != nil {
		fmt.Fprintf(os.Stderr, "chasmc error: %v\n", err)
		os.Exit(1)
	}
}

func runAssembler(cfg *chasmc.Config, srcPath, objPath string) error {
	extra, err := shellwords.Parse(cfg.Assembler.ExtraFlags)
	if err != nil {
		return fmt.Errorf("parsing assembler extra flags: %w", err)
	}
	args := append([]string{"-f", "elf64", "-o", objPath}, extra...)
	args = append(args, srcPath)
	return runTool(cfg.Assembler.Assembler, args...)
}

func runLinker(cfg *chasmc.Config, objPath, binPath string) error {
	extra, err := shellwords.Parse(cfg.Assembler.LinkerFlags)
	if err != nil {
		return fmt.Errorf("parsing linker extra flags: %w", err)
	}
	args := append([]string{"-o", binPath}, extra...)
	args = append(args, objPath)
	return runTool(cfg.Assembler.Linker, args...)
}

func runTool(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
