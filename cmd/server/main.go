// Command server runs the fleet compliance server: it ingests reports from
// endpoint agents and serves current fleet state to the polling dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fleetsight/fleetsight/internal/logging"
	"github.com/fleetsight/fleetsight/internal/security"
	"github.com/fleetsight/fleetsight/internal/store"
	"github.com/fleetsight/fleetsight/internal/version"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	addr := flag.String("addr", ":8080", "Server listen address")
	dbPath := flag.String("db", "", "SQLite database path (default <data>/fleet.db)")
	dataDir := flag.String("data", "data", "Data directory for database and TLS material")
	webDir := flag.String("web", "", "Dashboard assets directory path")
	tlsDomain := flag.String("tls-domain", "", "Serve HTTPS with ACME certificates for this domain")
	selfSigned := flag.Bool("self-signed", false, "Serve HTTPS with an auto-generated self-signed certificate")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log := logging.New("server", *debug)
	log.Info().Str("version", version.Version).Str("built", version.BuildTime).Msg("starting")

	if err := os.MkdirAll(*dataDir, 0o700); err != nil {
		log.Fatal().Err(err).Str("dir", *dataDir).Msg("create data directory")
	}
	if *dbPath == "" {
		*dbPath = filepath.Join(*dataDir, "fleet.db")
	}

	db, err := store.NewSQLiteStore(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dbPath).Msg("open store")
	}
	defer db.Close() //nolint:errcheck

	if *webDir == "" {
		*webDir = findWebDir()
	}
	if *webDir != "" {
		abs, _ := filepath.Abs(*webDir)
		*webDir = abs
		log.Info().Str("dir", *webDir).Msg("serving dashboard")
	} else {
		log.Warn().Msg("dashboard assets not found; serving API only (use -web)")
	}

	srv := NewServer(db, *webDir, log)
	mux := http.NewServeMux()
	srv.routes(mux)

	httpSrv := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	switch {
	case *tlsDomain != "":
		manager, tlsCfg := security.NewACMEManager(*dataDir, *tlsDomain)
		httpSrv.TLSConfig = tlsCfg
		// Port 80 answers HTTP-01 challenges.
		go func() {
			errCh <- http.ListenAndServe(":80", manager.HTTPHandler(nil)) //nolint:gosec
		}()
		go func() {
			log.Info().Str("addr", *addr).Str("domain", *tlsDomain).Msg("listening (ACME TLS)")
			errCh <- httpSrv.ListenAndServeTLS("", "")
		}()
	case *selfSigned:
		tlsCfg, err := security.LoadOrGenerateTLS(*dataDir)
		if err != nil {
			log.Fatal().Err(err).Msg("TLS setup")
		}
		httpSrv.TLSConfig = tlsCfg
		go func() {
			log.Info().Str("addr", *addr).Msg("listening (self-signed TLS)")
			errCh <- httpSrv.ListenAndServeTLS("", "")
		}()
	default:
		go func() {
			log.Info().Str("addr", *addr).Msg("listening")
			errCh <- httpSrv.ListenAndServe()
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}

// findWebDir searches common locations for the dashboard assets directory.
func findWebDir() string {
	candidates := []string{
		"web",
		"../web",
	}

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates,
			filepath.Join(filepath.Dir(exe), "web"),
			filepath.Join(filepath.Dir(exe), "..", "web"),
		)
	}

	for _, dir := range candidates {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(abs, "index.html")); err == nil {
			return abs
		}
	}

	return ""
}
