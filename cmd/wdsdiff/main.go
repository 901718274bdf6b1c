// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package wdsdiff provides a command-line tool to inspect and compare
// data service configuration digests.  Given two digest files it
// prints a sectioned report of what changed between them; given one
// file it prints a summary, or compares against the most recent
// archived snapshot of the same service.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli"

	"github.com/mmcclenn/go-dataservice/diff"
	"github.com/mmcclenn/go-dataservice/digest"
	"github.com/mmcclenn/go-dataservice/store"
)

var archive = store.Store{}

func main() {
	app := cli.NewApp()
	app.Name = "wdsdiff"
	app.Usage = "inspect and compare data service configuration digests"
	app.ArgsUsage = "FILE [FILE]"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "ds", Usage: "compare service-level attributes"},
		cli.BoolFlag{Name: "specials", Usage: "compare special parameters"},
		cli.BoolFlag{Name: "vocabs", Usage: "compare vocabularies"},
		cli.BoolFlag{Name: "formats", Usage: "compare output formats"},
		cli.BoolFlag{Name: "nodes", Usage: "compare all nodes"},
		cli.BoolFlag{Name: "ops", Usage: "compare operation nodes"},
		cli.BoolFlag{Name: "pages", Usage: "compare file page nodes"},
		cli.BoolFlag{Name: "dirs", Usage: "compare file directory nodes"},
		cli.BoolFlag{Name: "params", Usage: "compare node parameters"},
		cli.BoolFlag{Name: "blocks", Usage: "compare node output blocks"},
		cli.BoolFlag{Name: "fields", Usage: "compare output block fields (implies --blocks)"},
		cli.BoolFlag{Name: "all", Usage: "compare everything"},
		cli.StringFlag{Name: "node", Usage: "restrict node comparison to paths matching `PATTERN`"},
		cli.BoolFlag{Name: "comp", Usage: "use <<< and >>> comparison markers"},
		cli.GenericFlag{
			Name:  "archive",
			Value: &archive,
			Usage: "impl[:address] of a digest snapshot archive",
		},
		cli.BoolFlag{Name: "save", Usage: "save the digest to the archive"},
	}
	app.Action = run
	app.RunAndExitOnError()
}

func run(c *cli.Context) error {
	opts := options(c)
	args := c.Args()

	switch len(args) {
	case 1:
		d, err := digest.Load(args[0])
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		if c.Bool("save") {
			if err := saveToArchive(d); err != nil {
				return cli.NewExitError(err.Error(), 1)
			}
		}
		if archive.Implementation != "" {
			return diffAgainstArchive(d, opts)
		}
		summarize(os.Stdout, d)
		return nil

	case 2:
		left, err := digest.Load(args[0])
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		right, err := digest.Load(args[1])
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return report(left, right, opts)
	}

	return cli.NewExitError("expected one or two digest files", 1)
}

// options converts command-line flags into diff options.  With no
// axis selected at all, nodes are compared.
func options(c *cli.Context) diff.Options {
	if c.Bool("all") {
		opts := diff.AllAxes()
		opts.NodePattern = c.String("node")
		opts.Comparison = c.Bool("comp")
		return opts
	}
	opts := diff.Options{
		DS:          c.Bool("ds"),
		Specials:    c.Bool("specials"),
		Vocabs:      c.Bool("vocabs"),
		Formats:     c.Bool("formats"),
		Nodes:       c.Bool("nodes"),
		Ops:         c.Bool("ops"),
		Pages:       c.Bool("pages"),
		Dirs:        c.Bool("dirs"),
		Params:      c.Bool("params"),
		Blocks:      c.Bool("blocks") || c.Bool("fields"),
		Fields:      c.Bool("fields"),
		NodePattern: c.String("node"),
		Comparison:  c.Bool("comp"),
	}
	if !(opts.DS || opts.Specials || opts.Vocabs || opts.Formats ||
		opts.Nodes || opts.Ops || opts.Pages || opts.Dirs) {
		opts.Nodes = true
	}
	return opts
}

// diffAgainstArchive compares a digest file against the most recent
// archived snapshot of the same service.
func diffAgainstArchive(right *digest.Digest, opts diff.Options) error {
	a, err := archive.Archive()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	left, err := a.LoadLatest(right.DS.Name)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return report(left, right, opts)
}

func saveToArchive(d *digest.Digest) error {
	if archive.Implementation == "" {
		return fmt.Errorf("--save requires --archive")
	}
	a, err := archive.Archive()
	if err != nil {
		return err
	}
	return a.Save(d)
}

func report(left, right *digest.Digest, opts diff.Options) error {
	r, err := diff.Diff(left, right, opts)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return r.Write(os.Stdout)
}

// summarize prints a short accounting of one digest's contents.
func summarize(w io.Writer, d *digest.Digest) {
	fmt.Fprintf(w, "%s %s (generated %s, format %s)\n",
		d.DS.Name, d.DS.Version, d.DS.Generated, d.WDSVersion)
	fmt.Fprintf(w, "  %d nodes, %d blocks, %d sets, %d rulesets\n",
		len(d.Node), len(d.Block), len(d.Set), len(d.Ruleset))
	fmt.Fprintf(w, "  %d formats, %d vocabularies, %d special parameters\n",
		len(d.DS.Format), len(d.DS.Vocab), len(d.DS.Special))
	if len(d.Errors) > 0 {
		fmt.Fprintf(w, "  %d errors:\n", len(d.Errors))
		contexts := make([]string, 0, len(d.Errors))
		for context := range d.Errors {
			contexts = append(contexts, context)
		}
		sort.Strings(contexts)
		for _, context := range contexts {
			fmt.Fprintf(w, "    %s: %s\n", context, d.Errors[context])
		}
	}
}
