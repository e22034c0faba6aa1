// Command inference-server loads the price prediction pipeline and serves
// predictions over HTTP.
//
// STARTUP SEQUENCE:
//  1. Load configuration
//  2. Initialise the logger and the rotating warning log
//  3. Load the pipeline artifact (fatal on any error; nothing is served)
//  4. Register routes and serve until SIGINT/SIGTERM
//
// RUNNING THE SERVER:
//
//	go run ./cmd/inference-server --config=config/local.yaml
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/aanand-mishra/car-price-api/internal/config"
	"github.com/aanand-mishra/car-price-api/internal/http/handlers/predict"
	"github.com/aanand-mishra/car-price-api/internal/http/middleware"
	"github.com/aanand-mishra/car-price-api/internal/http/server"
	"github.com/aanand-mishra/car-price-api/internal/logger"
	"github.com/aanand-mishra/car-price-api/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting inference-server", slog.String("env", cfg.Env))

	warnLog := logger.NewRotating(cfg.Inference.WarnLog.Path,
		cfg.Inference.WarnLog.MaxSizeMB, cfg.Inference.WarnLog.MaxBackups)
	defer warnLog.Close()

	// The pipeline is loaded once and shared read-only by every request.
	model, err := storage.LoadPipeline(cfg.Inference.ModelPath)
	if err != nil {
		log.Error("failed to load pipeline",
			slog.String("path", cfg.Inference.ModelPath),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("pipeline loaded",
		slog.String("path", cfg.Inference.ModelPath),
		slog.String("pipeline", model.Describe()))

	// Route table:
	//   GET  /         → welcome text
	//   POST /predict  → price prediction
	router := http.NewServeMux()
	router.HandleFunc("GET /{$}", predict.Welcome())
	router.HandleFunc("POST /predict", predict.New(model, warnLog.Logger))

	srv := server.New(cfg.Inference.Addr, middleware.Logging(log, router))
	if err := server.Run(log, srv); err != nil {
		log.Error("server encountered an error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
