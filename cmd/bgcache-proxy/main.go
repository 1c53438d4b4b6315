// Package main runs HTTP read-through cache proxy.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/vearutop/bgcache/internal/proxy"
)

func main() {
	configPath := flag.String("config", "/etc/bgcache/proxy.conf", "path to config file")
	flag.Parse()

	defer glog.Flush()

	cfg, err := proxy.LoadConfig(*configPath)
	if err != nil {
		glog.Fatal(err)
	}

	s, err := proxy.NewServer(cfg, proxy.GlogLogger{})
	if err != nil {
		glog.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		glog.Error(err)
		glog.Flush()
		os.Exit(1) //nolint:gocritic
	}
}
