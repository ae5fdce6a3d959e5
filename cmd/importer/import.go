package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"matriz-curricular/backend/config"
	"matriz-curricular/backend/internal/authz"
	"matriz-curricular/backend/internal/repository"
	"matriz-curricular/backend/internal/service"
	"matriz-curricular/backend/pkg/database"
	"matriz-curricular/backend/pkg/jwt"
	applogger "matriz-curricular/backend/pkg/logger"
	"matriz-curricular/backend/pkg/redis"
)

type importOptions struct {
	matrixID string
	force    bool
	token    string
	userID   string
	tenantID string
	role     string
}

// newImportCmd builds "dry-run" or "apply". Both go through the same
// service the HTTP API uses, so permissions, locking and audit behave alike.
func newImportCmd(root *rootOptions, apply bool) *cobra.Command {
	opts := importOptions{}

	use, short := "dry-run", "Classify a plan against a matrix without writing"
	if apply {
		use, short = "apply", "Classify a plan and persist inserts and updates"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := uuid.Parse(opts.matrixID); err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("--matrix must be a matrix UUID: %w", err)}
			}
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			caller, err := opts.caller(cfg)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}

			logger, err := applogger.NewLogger(&cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			svc, cleanup, err := buildService(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := os.Open(root.file)
			if err != nil {
				return err
			}
			defer f.Close()

			importCmd := service.ImportCommand{
				Caller:   caller,
				MatrixID: opts.matrixID,
				Force:    opts.force,
				FileName: filepath.Base(root.file),
				Content:  f,
			}
			run := svc.MatrixImport.DryRun
			if apply {
				run = svc.MatrixImport.Apply
			}
			res, err := run(cmd.Context(), importCmd)
			if err != nil {
				return err
			}

			render, _ := newRenderer(root.output, cmd.OutOrStdout())
			if err := render(res); err != nil {
				return err
			}
			if res.TotalFailed > 0 {
				return &exitError{code: exitPartial, err: fmt.Errorf("%d entries failed", res.TotalFailed)}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.matrixID, "matrix", "m", "", "target matrix id")
	cmd.Flags().BoolVar(&opts.force, "force", false, "also overwrite normative fields")
	cmd.Flags().StringVar(&opts.token, "token", "", "access token identifying the caller")
	cmd.Flags().StringVar(&opts.userID, "user", "", "caller user id (without --token)")
	cmd.Flags().StringVar(&opts.tenantID, "tenant", "", "caller tenant id (without --token)")
	cmd.Flags().StringVar(&opts.role, "role", "coordinator", "caller role (without --token)")
	_ = cmd.MarkFlagRequired("matrix")
	cmd.MarkFlagsMutuallyExclusive("token", "user")
	return cmd
}

// caller resolves the identity from a verified token or from explicit flags.
func (o importOptions) caller(cfg *config.Config) (authz.Caller, error) {
	if o.token != "" {
		claims, err := jwt.NewManager(&cfg.Auth).ParseToken(o.token)
		if err != nil {
			return authz.Caller{}, fmt.Errorf("--token: %w", err)
		}
		return authz.Caller{UserID: claims.UserID, TenantID: claims.TenantID, Role: claims.Role}, nil
	}
	if o.userID == "" || o.tenantID == "" {
		return authz.Caller{}, fmt.Errorf("either --token or both --user and --tenant are required")
	}
	return authz.Caller{UserID: o.userID, TenantID: o.tenantID, Role: o.role}, nil
}

func buildService(cfg *config.Config, logger *zap.Logger) (*service.Service, func(), error) {
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		if rdb, err = redis.NewClient(&cfg.Redis, logger); err != nil {
			logger.Warn("redis unavailable, running without lock and cache", zap.Error(err))
			rdb = nil
		}
	}

	cleanup := func() {
		sqlDB.Close()
		if rdb != nil {
			rdb.Close()
		}
	}

	svc, err := service.NewService(cfg, repository.NewRepository(db), rdb, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
