package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/config"
	"github.com/muurk/projctl/internal/discovery"
	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/server"
	"github.com/muurk/projctl/internal/ui"
)

// Serve command flags
var (
	serveAddr      string
	serveAdvertise bool
	serveInstance  string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from preferences, or :8470)")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Advertise the server on the local network via mDNS")
	serveCmd.Flags().StringVar(&serveInstance, "name", "", "mDNS instance name (default: host name)")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Share projectors over HTTP and WebSocket",
	Long: `Run a control server for every saved profile.

Each projector gets its own serial session. Requests to the same projector
are serialized; a session that fails is reopened on the next request.

Endpoints:
  GET  /api/v1/projectors
  GET  /api/v1/projectors/{name}
  POST /api/v1/projectors/{name}/commands
  GET  /api/v1/projectors/{name}/ws
  GET  /metrics
  GET  /healthz`,
	Example: `  # Serve all profiles on the default address
  projctl serve

  # Serve a single projector without a profile and advertise it
  projctl serve --port /dev/ttyUSB0 --model EH470 --advertise`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	projectors, err := serveProjectors(reg)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = reg.Preferences.ServeAddr
	}
	if addr == "" {
		addr = config.DefaultServeAddr
	}

	srv, err := server.New(&server.Config{
		Addr:       addr,
		Projectors: projectors,
		Open:       openPort,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	params := []ui.Detail{{Key: "Listen", Value: listener.Addr().String()}}
	for _, name := range srv.Names() {
		pc := projectors[name]
		params = append(params, ui.Detail{Key: name, Value: pc.Model + " on " + pc.Port})
	}

	if serveAdvertise {
		ad, err := advertise(listener.Addr(), srv.Names())
		if err != nil {
			_ = listener.Close()
			return err
		}
		defer ad.Shutdown()
		params = append(params, ui.Detail{Key: "mDNS", Value: discovery.ServiceType})
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintHeader(ui.NewHeader("control server", "projctl serve", params...))

	return srv.Serve(ctx, listener)
}

// serveProjectors returns every saved profile, or a single projector named
// "default" when only flags or environment describe one.
func serveProjectors(reg *config.Registry) (map[string]server.ProjectorConfig, error) {
	projectors := make(map[string]server.ProjectorConfig)

	if viper.GetString(keyPort) != "" || viper.GetString(keyProjector) != "" || len(reg.Projectors) == 0 {
		t, err := resolveTarget(viper.GetViper(), reg)
		if err != nil {
			return nil, err
		}
		name := t.Profile
		if name == "" || viper.GetString(keyPort) != "" {
			name = "default"
		}
		projectors[name] = server.ProjectorConfig{Port: t.Port, Model: t.Model, Timeout: t.Timeout}
		return projectors, nil
	}

	for _, name := range reg.ProfileNames() {
		p := reg.Projectors[name]
		projectors[name] = server.ProjectorConfig{
			Port:    p.Port,
			Model:   p.Model,
			Timeout: reg.EffectiveTimeout(p),
		}
	}
	return projectors, nil
}

func advertise(addr net.Addr, projectors []string) (*discovery.Advertisement, error) {
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	instance := serveInstance
	if instance == "" {
		instance, err = os.Hostname()
		if err != nil {
			logging.Warn("Could not read host name", zap.Error(err))
			instance = "projctl"
		}
	}
	return discovery.Advertise(instance, port, projectors)
}
