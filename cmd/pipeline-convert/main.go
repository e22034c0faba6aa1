// Command pipeline-convert writes a JSON pipeline document into a SQLite
// artifact after checking that it compiles.
//
//	go run ./cmd/pipeline-convert -in models/xgb_pipeline.json -out models/xgb_pipeline.db
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/aanand-mishra/car-price-api/internal/logger"
	"github.com/aanand-mishra/car-price-api/internal/pipeline"
	"github.com/aanand-mishra/car-price-api/internal/storage/file"
	"github.com/aanand-mishra/car-price-api/internal/storage/sqlite"
)

func main() {
	in := flag.String("in", "", "JSON pipeline document to read")
	out := flag.String("out", "", "SQLite artifact to write")
	flag.Parse()

	log := logger.New(os.Getenv("ENV"))

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	doc, err := file.New(*in).Load()
	if err != nil {
		log.Error("cannot read document", slog.String("error", err.Error()))
		os.Exit(1)
	}

	p, err := pipeline.Compile(doc)
	if err != nil {
		log.Error("document does not compile", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := sqlite.New(*out).Save(doc); err != nil {
		log.Error("cannot write artifact", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("artifact written", slog.String("path", *out), slog.String("pipeline", p.Describe()))
}
