package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/darasahq/darasa/core/license"
)

// checkLicenses runs a one-off license availability check and prints the
// report as JSON.
func (cli *commandLine) checkLicenses() error {
	tokens := license.NewTokenSource(cli.conf, nil)
	presence := license.NewPresenceClient(cli.conf, tokens, nil)
	checker := license.NewChecker(license.NewRegistry(cli.conf), presence)

	report := checker.CheckAll(context.Background())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
