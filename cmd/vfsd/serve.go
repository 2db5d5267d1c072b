package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vfscore/vfscore/cmd"
	"github.com/vfscore/vfscore/pkg/blob"
	"github.com/vfscore/vfscore/pkg/config"
	"github.com/vfscore/vfscore/pkg/daemon"
	"github.com/vfscore/vfscore/pkg/logging"
	"github.com/vfscore/vfscore/pkg/service"
	"github.com/vfscore/vfscore/pkg/vfs"
)

var serveConfiguration struct {
	configPath string
	listen     string
}

func serveMain(command *cobra.Command, arguments []string) error {
	cfg := config.Defaults()
	if serveConfiguration.configPath != "" {
		loaded, err := config.Load(serveConfiguration.configPath)
		if err != nil {
			return errors.Wrap(err, "unable to load configuration")
		}
		cfg = loaded
	}

	listenAddress := cfg.Service.ListenAddress
	if serveConfiguration.listen != "" {
		listenAddress = serveConfiguration.listen
	}

	logger := logging.NewRoot(logging.LevelInfo)

	var blobOptions []blob.Option
	if cfg.Blob.HotThreshold > 0 {
		blobOptions = append(blobOptions, blob.WithHotThreshold(int64(cfg.Blob.HotThreshold)))
	}
	if cfg.Blob.DurablePath != "" {
		durable, err := blob.OpenBoltDurableTier(cfg.Blob.DurablePath)
		if err != nil {
			return errors.Wrap(err, "unable to open durable blob tier")
		}
		defer durable.Close()
		blobOptions = append(blobOptions, blob.WithDurableTier(durable))
	}
	blobs := blob.New(logger.Sublogger("blob"), blobOptions...)
	backend := vfs.New(logger.Sublogger("vfs"), blobs)
	adapter := service.New(logger.Sublogger("service"), backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go daemon.HousekeepRegularly(ctx, logger.Sublogger("housekeeping"), blobs, adapter)

	network, address := "tcp", listenAddress
	if strings.HasPrefix(listenAddress, "unix:") {
		network, address = "unix", strings.TrimPrefix(listenAddress, "unix:")
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		return errors.Wrap(err, "unable to bind listener")
	}
	defer listener.Close()

	logger.Infof("serving on %s://%s", network, address)

	mux := http.NewServeMux()
	mux.Handle("/rpc", adapter.Handler())

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- http.Serve(listener, mux)
	}()

	signalTermination := make(chan os.Signal, 1)
	signal.Notify(signalTermination, cmd.TerminationSignals...)
	select {
	case sig := <-signalTermination:
		logger.Infof("terminating on signal: %s", sig)
		return nil
	case err := <-serverErrors:
		return errors.Wrap(err, "premature server termination")
	}
}

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Start the virtual filesystem's JSON/HTTP service adapter",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(serveMain),
}

func init() {
	flags := serveCommand.Flags()
	flags.StringVar(&serveConfiguration.configPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&serveConfiguration.listen, "listen", "", "Override the configured listen address (tcp host:port or unix:/path)")
}
