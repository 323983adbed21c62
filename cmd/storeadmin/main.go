// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command storeadmin runs the admin backend: REST API, background
// scheduler and MongoDB-backed event log.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"

	"github.com/nimbuswork/storeadmin-go/internal/auth"
	"github.com/nimbuswork/storeadmin-go/internal/cache"
	"github.com/nimbuswork/storeadmin-go/internal/config"
	"github.com/nimbuswork/storeadmin-go/internal/handler/api"
	"github.com/nimbuswork/storeadmin-go/internal/logging"
	"github.com/nimbuswork/storeadmin-go/internal/middleware"
	"github.com/nimbuswork/storeadmin-go/internal/perm"
	"github.com/nimbuswork/storeadmin-go/internal/scheduler"
	"github.com/nimbuswork/storeadmin-go/internal/service"
	"github.com/nimbuswork/storeadmin-go/internal/store"
	"github.com/nimbuswork/storeadmin-go/internal/upload"
	"github.com/nimbuswork/storeadmin-go/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = db.Close(closeCtx)
	}()

	logger := buildLogger(cfg, db)
	slog.SetDefault(logger)

	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensuring indexes: %w", err)
	}
	if err := seedTicketSequence(ctx, db); err != nil {
		return fmt.Errorf("seeding ticket sequence: %w", err)
	}

	backend, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	})
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	grants := cache.NewPermissionCache(backend, time.Duration(cfg.CacheTTL)*time.Second)

	directory := perm.NewDirectory(db)
	evaluator := perm.NewEvaluator(directory, directory, grants, logger)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)

	roles := service.NewRoleService(db, evaluator, grants, logger)
	users := service.NewUserService(db, evaluator, roles, tokens, logger)

	blogCats := service.NewCategoryService(service.BlogCategories, db, evaluator, logger)
	productCats := service.NewCategoryService(service.ProductCategories, db, evaluator, logger)
	caseStudyCats := service.NewCategoryService(service.CaseStudyCategories, db, evaluator, logger)

	blogs := service.NewBlogService(db, evaluator, blogCats, logger)
	caseStudies := service.NewCaseStudyService(db, evaluator, caseStudyCats, logger)
	servicePages := service.NewServicePageService(db, evaluator, logger)
	products := service.NewProductService(db, evaluator, productCats, logger)
	coupons := service.NewCouponService(db, evaluator, logger)
	carts := service.NewCartService(db, products, coupons, logger)
	orders := service.NewOrderService(db, evaluator, products, carts, coupons, logger)
	tickets := service.NewTicketService(db, evaluator, logger)

	if cfg.DoSeed {
		if err := service.Seed(ctx, db, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	uploader, err := upload.NewLocalUploader(cfg.UploadsDir, cfg.UploadsURL)
	if err != nil {
		return err
	}

	h := api.NewHandler(api.Deps{
		Users:         users,
		Roles:         roles,
		Blogs:         blogs,
		BlogCats:      blogCats,
		Products:      products,
		ProductCats:   productCats,
		CaseStudies:   caseStudies,
		CaseStudyCats: caseStudyCats,
		Services:      servicePages,
		Tickets:       tickets,
		Coupons:       coupons,
		Carts:         carts,
		Orders:        orders,
		Uploader:      uploader,
		Logger:        logger,
	})

	router := h.Router(api.RouterOptions{
		Tokens:        tokens,
		LoginLimiter:  middleware.NewLoginLimiter(rate.Every(time.Minute/10), 10),
		IsDevelopment: cfg.IsDevelopment(),
	})
	router.Handle(cfg.UploadsURL+"/*",
		http.StripPrefix(cfg.UploadsURL+"/", http.FileServer(http.Dir(cfg.UploadsDir))))

	if cfg.SchedulerEnabled {
		reconciler := service.NewReconciler(db, logger)
		sched := scheduler.New(blogs, carts, reconciler,
			time.Duration(cfg.CartExpiryHours)*time.Hour, logger)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", cfg.ServerAddr(),
			"env", cfg.Env,
			"version", version.Get().String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildLogger creates the slog logger: text to stderr, warnings and
// errors mirrored to the MongoDB event log.
func buildLogger(cfg *config.Config, db *store.Store) *slog.Logger {
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})
	return slog.New(logging.NewEventLogHandler(base, db))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// seedTicketSequence raises the ticket counter to the highest numeric
// suffix already issued so restarts never reissue an id. The document
// count is not enough: deletions leave the count below the top id and
// new tickets would collide with survivors.
func seedTicketSequence(ctx context.Context, db *store.Store) error {
	cursor, err := db.Collection(store.ColTickets).Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"ticketId": 1}))
	if err != nil {
		return err
	}

	var docs []struct {
		TicketID string `bson:"ticketId"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return err
	}

	var max int64
	for _, doc := range docs {
		if seq, ok := service.ParseTicketID(doc.TicketID); ok && seq > max {
			max = seq
		}
	}
	return db.SeedSequence(ctx, store.SeqTickets, max)
}
