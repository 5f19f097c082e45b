package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StoryVault/config"
	"StoryVault/handlers"
	"StoryVault/job"
	"StoryVault/migrations"
	"StoryVault/repositories"
	"StoryVault/routes"
	"StoryVault/services"
	"StoryVault/storage"
	"StoryVault/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		db, err := repositories.OpenDB(cfg.DB)
		if err != nil {
			return err
		}
		if autoMigrate {
			if err := migrations.RunMigrations(db); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		archiveStorage, err := newStorage(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		key, err := utils.DeriveKey(cfg.BackupKey)
		if err != nil {
			return err
		}
		if key == nil {
			logrus.Warn("BACKUP_ENCRYPTION_SECRET not set, archives are stored unencrypted")
		}

		uow := repositories.NewUnitOfWork(db)
		backups := services.NewSessionBackupService(uow)
		archive := services.NewSnapshotArchiveService(backups, uow.Stores().Backups, archiveStorage, key)
		if cfg.Reconcile.Interval > 0 {
			reconciler := job.NewArchiveReconciler(uow.Stores().Backups, archiveStorage, cfg.Reconcile.Prune)
			go reconciler.Start(ctx, cfg.Reconcile.Interval)
		}

		e := routes.NewRouter(handlers.NewBackupHandler(backups, archive), []byte(cfg.JWTSecret))

		errCh := make(chan error, 1)
		go func() {
			logrus.WithField("addr", cfg.HTTPAddr).Info("Starting server")
			if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logrus.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func newStorage(ctx context.Context, sc config.StorageConfig) (storage.Storage, error) {
	switch sc.Type {
	case "s3", "r2":
		s3Storage, err := storage.NewS3Storage(ctx, sc.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to configure %s storage: %w", sc.Type, err)
		}
		return s3Storage, nil
	default:
		return storage.NewLocalStorage(sc.Dir)
	}
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "run migrations before serving")
}
