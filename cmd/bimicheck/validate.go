// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/assets"
)

type validateCommand struct {
	Write bool `short:"w" long:"write" description:"Write the repaired SVG back to FILE"`
	JSON  bool `long:"json" description:"Print the result as JSON"`
	Args  struct {
		File string `positional-arg-name:"FILE" description:"SVG file to validate"`
	} `positional-args:"yes" required:"yes"`

	out io.Writer
}

func (c *validateCommand) Execute(_ []string) error {
	info, err := os.Stat(c.Args.File)
	if err != nil {
		return failWith(2, "%v", err)
	}
	raw, err := os.ReadFile(c.Args.File)
	if err != nil {
		return failWith(2, "%v", err)
	}

	candidate := &assets.Candidate{SourceText: string(raw)}
	result := assets.NewValidator().Validate(candidate)

	if result.Repaired && c.Write {
		if err := os.WriteFile(c.Args.File, []byte(candidate.SourceText), info.Mode().Perm()); err != nil {
			return failWith(2, "write %s: %v", c.Args.File, err)
		}
	}

	if c.JSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		c.printText(result)
	}

	if !result.Compliant {
		return failWith(1, "%s is not compliant", c.Args.File)
	}
	return nil
}

func (c *validateCommand) printText(result assets.ValidationResult) {
	switch {
	case result.Compliant && result.Repaired:
		fmt.Fprintf(c.out, "%s: compliant after adding missing root attributes\n", c.Args.File)
	case result.Compliant:
		fmt.Fprintf(c.out, "%s: compliant\n", c.Args.File)
	default:
		fmt.Fprintf(c.out, "%s: %d violation(s)\n", c.Args.File, len(result.Violations))
	}
	for _, v := range result.Violations {
		fmt.Fprintf(c.out, "  %-20s %s\n", v.Rule, v.Detail)
	}
	if result.Repaired && !c.Write {
		fmt.Fprintln(c.out, "  (run with --write to save the repaired file)")
	}
}
