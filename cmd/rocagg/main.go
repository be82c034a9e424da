// Command rocagg merges per-group ROC curves into dataset-wide ROC,
// precision-recall and confusion-count curves.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Stack().Err(err).Msg("failed to run rocagg")
	}
}
