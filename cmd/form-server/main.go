// Command form-server serves the HTML form that collects a car's attributes
// and shows the price predicted by the inference service.
//
//	go run ./cmd/form-server --config=config/local.yaml
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/aanand-mishra/car-price-api/internal/client/inference"
	"github.com/aanand-mishra/car-price-api/internal/config"
	"github.com/aanand-mishra/car-price-api/internal/http/handlers/form"
	"github.com/aanand-mishra/car-price-api/internal/http/middleware"
	"github.com/aanand-mishra/car-price-api/internal/http/server"
	"github.com/aanand-mishra/car-price-api/internal/logger"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting form-server",
		slog.String("env", cfg.Env),
		slog.String("inference_url", cfg.Form.InferenceURL),
		slog.Duration("timeout", cfg.Form.RequestTimeout))

	client := inference.New(cfg.Form.InferenceURL, cfg.Form.RequestTimeout)

	// Route table:
	//   GET  /                      → index page
	//   GET  /predict_form          → empty form
	//   POST /predict_form          → validate, forward, redirect
	//   GET  /predicted/{response}  → results page
	router := http.NewServeMux()
	router.HandleFunc("GET /{$}", form.Index())
	router.HandleFunc("GET /predict_form", form.Show())
	router.HandleFunc("POST /predict_form", form.Submit(client))
	router.HandleFunc("GET /predicted/{response}", form.Predicted())

	srv := server.New(cfg.Form.Addr, middleware.Logging(log, router))
	if err := server.Run(log, srv); err != nil {
		log.Error("server encountered an error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
