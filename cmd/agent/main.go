// Command agent runs the endpoint compliance agent. It checks disk
// encryption, antivirus, and sleep-policy state on an interval and reports
// the results to the fleet server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fleetsight/fleetsight/internal/logging"
	"github.com/fleetsight/fleetsight/internal/version"
)

func main() {
	serverURL := flag.String("server", "", "Fleet server base URL")
	interval := flag.Duration("interval", 0, "Reporting interval")
	configPath := flag.String("config", "", "YAML config file path")
	stateDir := flag.String("state", "", "Directory for state.json and the machine-id fallback")
	once := flag.Bool("once", false, "Report once and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log := logging.New("agent", *debug)
	log.Info().Str("version", version.Version).Str("built", version.BuildTime).
		Str("os", runtime.GOOS).Str("arch", runtime.GOARCH).Msg("starting")

	cfg := defaultConfig()
	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
		}
	}
	// Flags set on the command line override the config file.
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *interval > 0 {
		cfg.Interval = *interval
	}
	if *stateDir != "" {
		cfg.StateDir = *stateDir
	}

	if cfg.MachineID == "" {
		cfg.MachineID = machineID(cfg.StateDir)
	}
	log.Info().Str("machine_id", cfg.MachineID).Str("server", cfg.ServerURL).
		Dur("interval", cfg.Interval).Msg("configured")

	agent := &Agent{
		serverURL: cfg.ServerURL,
		machineID: cfg.MachineID,
		stateDir:  cfg.StateDir,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log,
	}

	if st, err := agent.loadState(); err != nil {
		log.Warn().Err(err).Msg("read previous state")
	} else if st != nil {
		log.Debug().Time("reported_at", st.ReportedAt).Msg("previous state found")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info().Msg("shutting down")
		cancel()
	}()

	if *once {
		agent.reportOnce(ctx)
		return
	}
	agent.run(ctx, cfg.Interval)
}
