// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/diagnostic"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/dnsclient"
)

type diagnoseCommand struct {
	Domain   string        `short:"d" long:"domain" description:"Domain to check" required:"true"`
	Selector string        `short:"s" long:"selector" description:"BIMI selector" default:"default"`
	DoH      string        `long:"doh" description:"DNS-over-HTTPS JSON endpoint (empty to disable)" default:"https://dns.google/resolve"`
	UDP      []string      `long:"udp" description:"UDP resolver host[:port], repeatable" default:"1.1.1.1"`
	Timeout  time.Duration `long:"timeout" description:"Per-lookup timeout" default:"8s"`
	Retries  int           `long:"retries" description:"Retries for transient lookup failures (0-2)" default:"1"`
	JSON     bool          `long:"json" description:"Print the full report as JSON"`

	out      io.Writer
	resolver dnsclient.Resolver
}

func (c *diagnoseCommand) Execute(_ []string) error {
	target, err := diagnostic.NewTarget(c.Domain, c.Selector)
	if err != nil {
		return failWith(2, "%v", err)
	}

	resolver := c.resolver
	if resolver == nil {
		resolver, _, err = dnsclient.NewStack(dnsclient.StackConfig{
			DoHEndpoint:     c.DoH,
			UDPServers:      c.UDP,
			UpstreamTimeout: c.Timeout,
			Cache:           dnsclient.NewLRUCache(64, time.Minute),
			MaxCacheTTL:     time.Minute,
		})
		if err != nil {
			return failWith(2, "%v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chain := diagnostic.NewChain(resolver, diagnostic.WithLookupTimeout(c.Timeout), diagnostic.WithRetries(c.Retries))
	report, runErr := chain.Run(ctx, target)
	score := diagnostic.Score(report)

	if c.JSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{
			"id":          report.ID,
			"report":      report,
			"score":       score,
			"verdict":     diagnostic.VerdictFor(score),
			"complete":    report.Complete(),
			"remediation": diagnostic.Remediate(report),
		}); err != nil {
			return err
		}
	} else {
		c.printText(report, score)
	}

	if runErr != nil {
		return failWith(130, "interrupted")
	}
	if score < 100 {
		return failWith(1, "%s is %s", target.Domain, diagnostic.VerdictFor(score))
	}
	return nil
}

func (c *diagnoseCommand) printText(report *diagnostic.Report, score int) {
	fmt.Fprintf(c.out, "%s (selector %s)\n\n", report.Target.Domain, report.Target.Selector)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, s := range report.Steps {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Status, s.Detail)
	}
	_ = tw.Flush()
	fmt.Fprintf(c.out, "\nScore: %d (%s)\n", score, diagnostic.VerdictFor(score))

	fixes := diagnostic.Remediate(report)
	if len(fixes) == 0 {
		return
	}
	fmt.Fprintln(c.out, "\nSuggested fixes:")
	for _, f := range fixes {
		fmt.Fprintf(c.out, "  [%s] %s\n", f.Severity, f.Title)
		if f.DNSValue != "" {
			fmt.Fprintf(c.out, "        %s %s %q\n", f.DNSHost, f.DNSType, f.DNSValue)
		}
	}
}
