package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vdms/internal/genjob"
	"vdms/internal/httpapi"
	"vdms/internal/observability"
	"vdms/internal/pool"
	"vdms/internal/storage/db"
	"vdms/internal/storage/model"
	"vdms/internal/storage/repo"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动图表后端服务",
		Long: `启动图表后端服务：我的图表分页查询、图表详情、异步生成任务以及 /health、/metrics。

Examples:
  vdms serve
  vdms serve --addr 0.0.0.0:8101 --config vdms.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			log := newLogger(cfg)

			gdb, err := db.New(db.Options{
				Name:   cfg.Sqlite.Db,
				Prefix: cfg.Sqlite.Prefix,
				Logger: db.NewLogger(log),
			})
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			if err := db.Migrate(gdb, &model.Chart{}, &model.Setting{}); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}

			metrics := observability.NewMetrics()
			workers := pool.New(pool.Options{
				Workers:  cfg.Generator.Workers,
				QueueCap: cfg.Generator.QueueCap,
				Logger:   log,
				Hooks: pool.Hooks{
					OnDepth: func(depth int) { metrics.QueueDepth.Set(float64(depth)) },
				},
			})
			charts := repo.NewChartRepo(gdb, cfg.Server.MaxPageSize)
			runner := genjob.NewRunner(charts, workers, genjob.Options{Logger: log, Metrics: metrics})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr: cfg.Server.Addr,
				Handler: httpapi.NewHandler(httpapi.Deps{
					Charts:    charts,
					Generator: runner,
					Logger:    log,
					Metrics:   metrics,
				}),
				ReadHeaderTimeout: 15 * time.Second,
				BaseContext: func(_ net.Listener) context.Context {
					return ctx
				},
			}

			workers.Start(ctx)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				printStep(os.Stderr, "vdms listening on %s", cfg.Server.Addr)
				log.Info("后端服务启动", "addr", cfg.Server.Addr, "workers", cfg.Generator.Workers)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				printStep(os.Stderr, "shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				err := srv.Shutdown(shutdownCtx)
				workers.Stop()
				log.Info("后端服务已关闭")
				return err
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "监听地址，覆盖配置文件中的 server.addr")
	return cmd
}
