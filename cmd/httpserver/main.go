package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/docserver/internal/resource"
	"github.com/Brownie44l1/docserver/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "httpserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config := server.DefaultConfig()
	docs := resource.DefaultConfig()

	flag.StringVar(&config.Addr, "addr", config.Addr, "listen address")
	flag.StringVar(&docs.DocumentRoot, "root", docs.DocumentRoot, "document root")
	flag.StringVar(&docs.DefaultDocument, "index", docs.DefaultDocument, "document served for / and directories")
	flag.StringVar(&docs.PrivatePrefix, "private", docs.PrivatePrefix, "path prefix that needs credentials")
	flag.StringVar(&docs.Username, "user", docs.Username, "username for the private area")
	flag.StringVar(&docs.Password, "password", docs.Password, "password for the private area")
	flag.StringVar(&docs.TokenSecret, "token-secret", docs.TokenSecret, "HS256 secret for bearer tokens; empty disables them")
	flag.StringVar(&config.Realm, "realm", config.Realm, "realm sent with 401 responses")
	flag.IntVar(&config.BufferSize, "bufsize", config.BufferSize, "receive buffer size in bytes")
	flag.DurationVar(&config.IdleTimeout, "keepalive", config.IdleTimeout, "idle timeout between requests")
	flag.StringVar(&config.Encoding, "encoding", config.Encoding, "text encoding of requests and headers")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	logFormat := flag.String("log-format", "text", "text or json")
	flag.Parse()

	level, err := server.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := server.NewLogger(os.Stdout, level, *logFormat)

	if err := docs.Validate(); err != nil {
		return err
	}
	if info, err := os.Stat(docs.DocumentRoot); err != nil || !info.IsDir() {
		return fmt.Errorf("document root %q is not a directory", docs.DocumentRoot)
	}

	srv, err := server.New(config, resource.New(docs, nil), logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			server.Field{Key: "addr", Value: config.Addr},
			server.Field{Key: "root", Value: docs.DocumentRoot},
		)
		errCh <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, server.ErrServerClosed) {
			return err
		}
	case sig := <-sigChan:
		logger.Info("shutting down", server.Field{Key: "signal", Value: sig.String()})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("shutdown incomplete", server.Field{Key: "error", Value: err})
		}
	}

	stats := srv.Stats()
	logger.Info("server stopped",
		server.Field{Key: "requests", Value: stats.RequestsTotal},
		server.Field{Key: "connections", Value: stats.ConnectionsTotal},
		server.Field{Key: "errors_4xx", Value: stats.Errors4xx},
		server.Field{Key: "errors_5xx", Value: stats.Errors5xx},
		server.Field{Key: "idle_timeouts", Value: stats.IdleTimeouts},
		server.Field{Key: "avg_latency", Value: stats.AverageLatency},
	)
	return nil
}
