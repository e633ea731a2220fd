/*
 * Copyright 2025 Teleolink Robotics.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teleolink/coordinator/pkg/api"
	"github.com/teleolink/coordinator/pkg/config"
	"github.com/teleolink/coordinator/pkg/coordinator"
	"github.com/teleolink/coordinator/pkg/logger"
	"github.com/teleolink/coordinator/pkg/metrics"
	"github.com/teleolink/coordinator/pkg/models"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/teleolink/coordinator.json", "Path to coordinator config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg models.CoordinatorConfig

	bootstrapLog, err := logger.NewLogger(logger.DefaultConfig())
	if err != nil {
		return err
	}

	if err := config.NewConfig(bootstrapLog).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		// Run on defaults when no config file is present; the file is
		// optional in dev setups.
		if errors.Is(err, fs.ErrNotExist) {
			bootstrapLog.Warn().
				Str("path", *configPath).
				Msg("Config file not found, using defaults")

			if err := cfg.Validate(); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("API_KEY")
	}

	mainLogger, err := logger.NewComponentLogger("coordinator", cfg.Logging)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	coord := coordinator.New(mainLogger, m, coordinator.WithCORS(cfg.CORS))

	prober := coordinator.NewProber(coord, time.Duration(cfg.PingInterval), mainLogger)
	go prober.Run(ctx)

	server := api.NewAPIServer(
		api.WithCoordinator(coord),
		api.WithWebSocketHandler(coord.ServeWS),
		api.WithMetricsHandler(promhttp.Handler()),
		api.WithAPIKey(cfg.APIKey),
		api.WithCORSConfig(cfg.CORS),
		api.WithLogger(mainLogger),
	)

	return server.Start(ctx, cfg.ListenAddr)
}
