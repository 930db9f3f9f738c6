/**
* Copyright 2020 MonetDB Solutions B.V.
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

// Command mapi-diag is a minimal standalone binary wiring internal/config,
// internal/diag, and internal/sockcache together for manual testing. It
// connects to every configured profile once, registers the resulting
// sessions with the diagnostics registry, and serves /healthz, /metrics,
// and /debug/connections until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	promversion "github.com/prometheus/common/version"

	"github.com/MonetDB/mapi-go/internal/config"
	"github.com/MonetDB/mapi-go/internal/diag"
	"github.com/MonetDB/mapi-go/internal/log"
	"github.com/MonetDB/mapi-go/internal/sockcache"
	"github.com/MonetDB/mapi-go/internal/tracing"
	"github.com/MonetDB/mapi-go/mapi"
)

const applicationName = "mapi-diag"
const applicationVersion = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, fl, err := config.Load(applicationName, applicationVersion, os.Args[1:])
	if err != nil {
		return err
	}
	if fl.PrintVersion {
		promversion.Version = applicationVersion
		fmt.Println(promversion.Print(applicationName))
		return nil
	}

	if err := log.Init(log.Config{
		LogFile:    cfg.Logging.LogFile,
		LogLevel:   cfg.Logging.LogLevel,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}); err != nil {
		return err
	}
	for _, w := range config.LoaderWarnings {
		log.Warn("config warning", log.Pairs{"warning": w})
	}

	impl, ok := tracing.TracerImplementations[cfg.Tracing.Implementation]
	if !ok {
		impl = tracing.StdoutTracerImplementation
	}
	flush, err := tracing.SetTracer(impl, cfg.Tracing.CollectorURL)
	if err != nil {
		return err
	}
	defer flush()

	cache, err := sockcache.New(cfg.SockCache.AsSockCacheConfig())
	if err != nil {
		return err
	}
	defer cache.Close()

	registry := diag.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for name, p := range cfg.Profiles {
		settings, err := p.Resolve()
		if err != nil {
			log.Error("profile failed to resolve", log.Pairs{"profile": name, "error": err.Error()})
			continue
		}
		sess, err := mapi.Connect(ctx, settings, mapi.ConnectOptions{
			Cache: &mapi.SockCacheAdapter{Cache: cache},
		})
		if err != nil {
			log.Error("profile failed to connect", log.Pairs{"profile": name, "error": err.Error()})
			continue
		}
		defer sess.Close()
		registry.Register(name, sess)
		log.Info("profile connected", log.Pairs{"profile": name})
	}

	addr := fmt.Sprintf("%s:%d", cfg.Main.DiagListenAddr, cfg.Main.DiagListenPort)
	srv := diag.New(addr, registry)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		srv.Shutdown()
	}()

	return srv.ListenAndServe()
}
