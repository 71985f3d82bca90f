// Package debug provides diagnostics for the perfkit CLI: a pprof
// endpoint, tracing, workload timing and raw profile dumps.
package debug

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/sirupsen/logrus"
)

// StartPprofServer starts a pprof HTTP server at the given address and
// returns the bound address and a stop function that shuts it down,
// logging any shutdown failure.
func StartPprofServer(addr string, logger *logrus.Logger) (string, func(), error) {
	if addr == "" {
		addr = ":6060"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("pprof server failed: %w", err)
	}

	server := &http.Server{
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bound := ln.Addr().String()
	logger.WithField("addr", bound).Info("pprof server starting")
	go func() {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("pprof server stopped")
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("pprof server shutdown failed")
			return
		}
		logger.WithField("addr", bound).Debug("pprof server shut down")
	}

	return bound, stop, nil
}
