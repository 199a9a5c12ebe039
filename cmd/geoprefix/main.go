// Package main provides the entry point for the geoprefix CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/geoprefix/cmd/geoprefix/cmd"
	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, geoerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
