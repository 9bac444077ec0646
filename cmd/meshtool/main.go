// meshtool builds simplified levels of detail for triangle meshes.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/logger"
)

// usageError carries the synopsis of a command invoked with missing arguments.
type usageError string

func (e usageError) Error() string {
	return "meshtool " + string(e)
}

func main() {
	// Global flags come before the command name.
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := args[0]
	args = args[1:]

	switch command {
	case "simplify", "s":
		err = cmdSimplify(cfg, args)
	case "batch", "b":
		err = cmdBatch(cfg, args)
	case "gen":
		err = cmdGen(args)
	case "info":
		err = cmdInfo(args)
	case "preview":
		err = cmdPreview(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(os.Stderr, "Usage: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - triangle mesh simplifier

Usage:
  meshtool [global options] <command> [options]

Global options:
  -config <file>   Config file (default ./meshtool.yaml or user config dir)
  -debug           Debug logging, including every collapse pass
  -log <file>      Also log to a rotating file
  -workers <n>     Parallel simplifications for batch (0 = one per CPU)

Commands:
  simplify [options] <in.obj> <out.obj>   Simplify one mesh
  batch [options] <in-dir> <out-dir>      Simplify every .obj in a directory
  gen sphere|plane [options] <out.obj>    Generate a test mesh
  info <in.obj>                           Show mesh statistics
  preview [options] <in.obj> <out.img>    Render a png, webp or tga preview
  config [file]                           Write the effective config

Examples:
  meshtool simplify -ratio 0.25 -preview cmp.png head.obj head_lod1.obj
  meshtool simplify -error 1e-5 terrain.obj terrain_lod.obj
  meshtool -workers 8 batch -ratio 0.5 ./models ./lod1
  meshtool gen sphere -level 4 sphere.obj`)
}
