package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/app"
	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/config"
	"github.com/Freeeeeet/contract_scheduler/internal/controller/http"
	"github.com/Freeeeeet/contract_scheduler/internal/controller/telegram"
	"github.com/Freeeeeet/contract_scheduler/internal/directory"
	"github.com/Freeeeeet/contract_scheduler/internal/recurrence"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
	"github.com/Freeeeeet/contract_scheduler/internal/service"
	"github.com/Freeeeeet/contract_scheduler/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the REST API and the Telegram bot",
		GroupID: "runtime",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before start")

	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting scheduler",
		zap.String("environment", cfg.Environment),
		zap.Bool("env_file", cfg.EnvFileLoaded),
		zap.Bool("bot_enabled", cfg.BotEnabled()),
		zap.String("substitution_policy", string(cfg.SubstitutionPolicy)))

	pool, err := app.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("Database connected")

	if migrate {
		mg, err := app.NewMigrator(pool, migrations.FS, logger)
		if err != nil {
			return err
		}
		err = mg.Run(ctx)
		if cerr := mg.Close(); cerr != nil {
			logger.Warn("Failed to close migrator", zap.Error(cerr))
		}
		if err != nil {
			return err
		}
	}

	directoryDB, err := app.NewDirectoryDB(pool, logger)
	if err != nil {
		return err
	}

	// Инициализация слоёв
	var (
		clk      = clock.RealClock{}
		store    = repository.NewPgxStore(pool, logger)
		dir      = directory.NewGormDirectory(directoryDB)
		detector = recurrence.NewDetector(cfg.LookaheadDays)
		hours    = service.BusinessHours{Start: cfg.BusinessHoursStart, End: cfg.BusinessHoursEnd}
	)

	contracts := service.NewContractService(store, dir, detector, clk, logger)
	suggestions := service.NewSuggestionService(store, dir, detector, hours, logger)
	leaves := service.NewLeaveService(store, dir, logger)
	lessons := service.NewLessonService(store, contracts, logger)
	substitutions := service.NewSubstitutionService(contracts, suggestions, cfg.SubstitutionPolicy, logger)

	server := http.NewServer(http.Services{
		Contracts:     contracts,
		Leaves:        leaves,
		Lessons:       lessons,
		Suggestions:   suggestions,
		Substitutions: substitutions,
		Directory:     dir,
		Clock:         clk,
	}, logger)

	var bc *telegram.BotController
	if cfg.BotEnabled() {
		bc, err = telegram.New(cfg.TelegramToken, telegram.Services{
			Contracts: contracts,
			Lessons:   lessons,
			Leaves:    leaves,
			Directory: dir,
			Clock:     clk,
		}, logger)
		if err != nil {
			return err
		}
		if err := bc.RegisterHandlers(ctx); err != nil {
			// меню команд не критично, бот работает и без него
			logger.Warn("Bot commands not registered", zap.Error(err))
		}
	} else {
		logger.Info("TELEGRAM_TOKEN is empty, bot disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Listen(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if bc != nil {
		g.Go(func() error {
			return bc.Start(gctx)
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Scheduler stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Scheduler stopped")
	return nil
}
