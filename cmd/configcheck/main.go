// Command configcheck validates storefront configuration documents offline.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"storefront/internal/models"
	"storefront/internal/schema"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("configcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	quiet := fs.Bool("q", false, "only report invalid files")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: configcheck [-q] <file>...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	status := 0
	for _, path := range fs.Args() {
		if !checkFile(path, *quiet, stdout) {
			status = 1
		}
	}
	return status
}

func checkFile(path string, quiet bool, out io.Writer) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", path, err)
		return false
	}

	cfg, err := schema.Validate(raw)
	if err == nil {
		if !quiet {
			fmt.Fprintf(out, "%s: ok (%s, %d products)\n", path, cfg.Name, len(cfg.ProductIDs))
		}
		return true
	}

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		fmt.Fprintf(out, "%s: %v\n", path, err)
		return false
	}
	fmt.Fprintf(out, "%s: %d violation(s)\n", path, len(verr.Violations))
	for _, v := range verr.Violations {
		fmt.Fprintf(out, "  %s\n", v)
	}
	return false
}
