package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/habitstack/service-habit-go/internal/habit"
	habitrepo "github.com/habitstack/service-habit-go/internal/habit/repo"
	"github.com/habitstack/service-habit-go/internal/router"
	"github.com/habitstack/service-habit-go/internal/token"
	"github.com/habitstack/service-habit-go/internal/user"
	userrepo "github.com/habitstack/service-habit-go/internal/user/repo"
	"github.com/habitstack/service-habit-go/pkg/database"
	"github.com/habitstack/service-habit-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.InitLogger(utilities.LoggerConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-habit-go")

	// pick the store: postgres when DATABASE_URL is set, in-memory otherwise
	var (
		users  user.Repository
		habits habit.Repository
	)
	cfg := database.ConfigFromEnv()
	if cfg.DSN != "" {
		sqlDB, err := database.Connect(cfg)
		if err != nil {
			sugar.Fatalf("db connect: %v", err)
		}
		defer sqlDB.Close()

		sqlxDB := sqlx.NewDb(sqlDB, "postgres")

		ur := userrepo.NewUserRepo(sqlxDB)
		hr := habitrepo.NewHabitRepo(sqlxDB)
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := ur.EnsureTable(initCtx); err != nil {
			cancel()
			sugar.Fatalf("ensure users table: %v", err)
		}
		if err := hr.EnsureTable(initCtx); err != nil {
			cancel()
			sugar.Fatalf("ensure habits table: %v", err)
		}
		cancel()
		users, habits = ur, hr
		sugar.Info("using postgres store")
	} else {
		users, habits = userrepo.NewMemoryRepo(), habitrepo.NewMemoryRepo()
		sugar.Warn("DATABASE_URL not set; using in-memory store")
	}

	issuer := token.IssuerFromEnv()

	authSvc := user.NewAuthService(users, nil, issuer)
	habitSvc := habit.NewService(habits)
	handler := router.RegisterRoutes(sugar,
		issuer,
		user.NewHandler(authSvc, sugar),
		habit.NewHandler(habitSvc, sugar),
	)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
