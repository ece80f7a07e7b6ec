// Copyright 2025 The fawa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/fawa-io/savebridge/pkg/config"
	"github.com/fawa-io/savebridge/pkg/cors"
	"github.com/fawa-io/savebridge/pkg/fwlog"
	"github.com/fawa-io/savebridge/pkg/notify"
	"github.com/fawa-io/savebridge/pkg/storage"
	"github.com/fawa-io/savebridge/service/bridge"
)

func main() {
	if err := config.InitConfig(); err != nil {
		fwlog.Fatalf("Failed to initialize configuration: %v", err)
	}

	cfg := config.Get()

	logLevel, err := fwlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fwlog.Warnf("Invalid initial log level '%s': %v. Using default.", cfg.LogLevel, err)
	}
	fwlog.SetLevel(logLevel)
	fwlog.Infof("Logger initialized with level: %s", logLevel)

	// Roots and platform version are read from the live config on every
	// save, so a reload takes effect on the next call.
	host := storage.HostFunc(func() storage.StaticHost {
		s := config.Get().Storage
		return storage.StaticHost{
			Public:  s.PublicDownloadsDir,
			App:     s.AppDownloadsDir,
			Version: s.PlatformVersion,
		}
	})

	opts := []storage.Option{
		storage.WithNamespace(cfg.Storage.Namespace),
		storage.WithRestrictedSince(cfg.Storage.RestrictedSince),
	}
	if cfg.Archive.Enabled() {
		archiver, err := storage.NewMinioArchiver(context.Background(), storage.MinioOptions{
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			Bucket:          cfg.Archive.Bucket,
			UseSSL:          cfg.Archive.UseSSL,
		})
		if err != nil {
			fwlog.Warnf("Archive mirror disabled: %v", err)
		} else {
			opts = append(opts, storage.WithArchiver(archiver))
			fwlog.Infof("Archiving saved files to bucket %s", cfg.Archive.Bucket)
		}
	}
	saver := storage.NewSaver(afero.NewOsFs(), host, opts...)

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.Notify.RedisAddr != "" {
		rn, err := notify.NewRedisNotifier(cfg.Notify.RedisAddr, cfg.Notify.Channel)
		if err != nil {
			fwlog.Warnf("Redis notifications unavailable, logging instead: %v", err)
		} else {
			notifier = rn
			fwlog.Infof("Publishing notifications on %s", cfg.Notify.Channel)
		}
	}

	mux := http.NewServeMux()
	bridge.Mount(mux, bridge.NewHandler(saver, notifier))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"status":"ok","service":"savebridge"}`)); err != nil {
			fwlog.Warnf("write response failed: %v", err)
		}
	})

	bridgeSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: cors.Wrap(mux),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fwlog.Info("Shutting down server...")

		// Set timeout for HTTP server shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := bridgeSrv.Shutdown(ctx); err != nil {
			fwlog.Errorf("Server shutdown error: %v", err)
		}

		fwlog.Info("Server shutdown complete")
		os.Exit(0)
	}()

	fwlog.Infof("Server starting on %v", cfg.Addr)

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		if _, err := os.Stat(cfg.CertFile); err == nil {
			if _, err := os.Stat(cfg.KeyFile); err == nil {
				fwlog.Infof("Starting HTTPS server with certificates: %s, %s", cfg.CertFile, cfg.KeyFile)
				if err := bridgeSrv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
					fwlog.Fatalf("Failed to start HTTPS server: %v", err)
				}
				return
			}
		}
		fwlog.Warnf("Certificate files not found, falling back to HTTP mode")
	}

	// Plaintext HTTP/2 for connect clients, HTTP/1.1 for the web shell.
	bridgeSrv.Handler = h2c.NewHandler(bridgeSrv.Handler, &http2.Server{})
	fwlog.Infof("Starting HTTP server")
	if err := bridgeSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fwlog.Fatalf("Failed to start HTTP server: %v", err)
	}
}
