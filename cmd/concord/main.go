// Concord reviews a codebase with several LLM providers in parallel and
// synthesizes their free-text reviews into one structured report with
// cross-model agreement scoring.
//
// Usage:
//
//	concord review                    # review the current directory
//	concord review ./path --models anthropic:claude-sonnet-4-6,openai:gpt-5.2
//	concord config init               # write a default .concord.yaml
//	concord models list               # list known providers and models
//
// See https://github.com/dshills/concord for full documentation.
package main

import (
	"os"

	"github.com/dshills/concord/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
