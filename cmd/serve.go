package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgbatch/internal/api"
	"github.com/AnyUserName/imgbatch/internal/codec"
	"github.com/AnyUserName/imgbatch/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for running profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fs := afero.NewOsFs()
		host := newHost(fs)
		srv := api.NewServer(api.Options{
			Addr:     appCfg.APIAddr,
			Fs:       fs,
			Codec:    codec.New(fs),
			Profiles: profileDir(host),
			Workers:  appCfg.Workers,
		})

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", config.Default().APIAddr, "listen address")
	rootCmd.AddCommand(serveCmd)
}
