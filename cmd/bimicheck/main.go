// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.

// Command bimicheck runs the BIMI readiness diagnostic and the SVG Tiny PS
// validator from the command line.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Verbose bool `short:"v" long:"verbose" description:"Log resolver activity to stderr"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		level := slog.LevelWarn
		if opts.Verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	diagnose := &diagnoseCommand{out: os.Stdout}
	validate := &validateCommand{out: os.Stdout}
	if _, err := parser.AddCommand("diagnose", "Check a domain's BIMI readiness",
		"Runs the MX, SPF, DMARC, BIMI, logo and certificate checks in order and prints the score.", diagnose); err != nil {
		panic(err)
	}
	if _, err := parser.AddCommand("validate", "Validate an SVG against the Tiny PS profile",
		"Reports every profile violation. With --write a repaired file is written back.", validate); err != nil {
		panic(err)
	}

	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		return 2
	}
	return 0
}
