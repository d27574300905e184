package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"envibridge/internal/bridge"
	"envibridge/internal/config"
	"envibridge/internal/core"
	"envibridge/internal/logging"
	"envibridge/internal/server"
	"envibridge/plugins/envi"
)

func main() {
	configPath := flag.String("config", envOrDefault("ENVIBRIDGE_CONFIG", config.DefaultPath), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Logging)

	enviCfg := envi.Config{
		BaseURL:      cfg.Envi.BaseURL,
		Username:     cfg.Envi.Username,
		Password:     cfg.Envi.Password,
		PollInterval: time.Duration(cfg.Envi.PollIntervalSeconds) * time.Second,
	}
	client, err := envi.NewClient(enviCfg)
	if err != nil {
		logger.Error("envi client", "err", err)
		os.Exit(1)
	}
	registry := envi.NewRegistry(client, enviCfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sessions, err := registry.Discover(ctx)
	if err != nil {
		logger.Error("device discovery", "err", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		logger.Warn("no devices on account")
	}

	var mqttBridge *bridge.Bridge
	if cfg.MQTT.Enabled {
		mqttBridge, err = bridge.New(bridge.Config{
			Host:        cfg.MQTT.Host,
			Port:        cfg.MQTT.Port,
			TLS:         cfg.MQTT.TLS,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, logger)
		if err != nil {
			logger.Error("mqtt connect", "err", err)
			os.Exit(1)
		}
		defer mqttBridge.Close()

		for _, session := range sessions {
			mqttBridge.Bind(session)
		}
	}

	// Hooks are installed; start the poll loops.
	for _, session := range sessions {
		go session.Run(ctx)
	}

	plugins := []core.Plugin{envi.NewPlugin(registry)}
	if err := core.ValidatePlugins(plugins); err != nil {
		logger.Error("plugin validation", "err", err)
		os.Exit(1)
	}

	metricsRegistry := core.MetricsRegistry(plugins)
	metricsRegistry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "envibridge_build_info",
		Help: "Build information",
	}, func() float64 { return 1 }))

	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/health", server.HealthHandler)
	httpMux.Handle("/status", server.StatusHandler(plugins))
	httpMux.Handle("/metrics", server.MetricsHandler(metricsRegistry))
	httpMux.Handle("/dashboards/", server.DashboardsHandler(core.DashboardsMap(plugins)))
	for _, plugin := range plugins {
		if registrant, ok := plugin.(core.HTTPRegistrant); ok {
			registrant.RegisterHTTP(httpMux)
		}
	}

	httpServer := server.NewHTTPServer(cfg.HTTP.Addr, httpMux)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "err", err)
			cancel()
		}
	}()

	logger.Info("envibridge running", "devices", len(sessions), "http_addr", cfg.HTTP.Addr, "mqtt", cfg.MQTT.Enabled)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := httpServer.Shutdown(context.Background()); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
