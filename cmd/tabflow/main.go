// Command tabflow builds, validates and runs tabular operation pipelines.
//
//	tabflow validate pipeline.yaml --data frames.json
//	tabflow run pipeline.yaml --data frames.json --out out.json
//	tabflow serve --pipeline pipeline.yaml
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
