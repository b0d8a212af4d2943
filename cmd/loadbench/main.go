// Command loadbench drives the parallel graph-ingest engine from the
// command line: it reads a metagraph request, runs it through
// internal/orchestrator against a document-graph database, and prints
// (or exports) the resulting feature/COO/NetworkX bundle.
package main

import (
	"github.com/arangoml/phenolrs-go/cmd/loadbench/cmd"
)

func main() {
	cmd.Execute()
}
