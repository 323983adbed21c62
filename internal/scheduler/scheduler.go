// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: scheduled blog
// publication, stale cart expiry and the back-reference reconciliation
// sweep.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nimbuswork/storeadmin-go/internal/service"
)

// jobTimeout bounds each scheduled run.
const jobTimeout = 5 * time.Minute

// Scheduler wires the cron jobs to the services that do the work.
type Scheduler struct {
	cron       *cron.Cron
	blogs      *service.BlogService
	carts      *service.CartService
	reconciler *service.Reconciler
	cartTTL    time.Duration
	logger     *slog.Logger
}

// New creates a scheduler instance. cartTTL is how long an untouched
// cart survives before the sweep empties it.
func New(blogs *service.BlogService, carts *service.CartService, reconciler *service.Reconciler, cartTTL time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:       cron.New(),
		blogs:      blogs,
		carts:      carts,
		reconciler: reconciler,
		cartTTL:    cartTTL,
		logger:     logger,
	}
}

// Start registers the jobs and begins the cron loop: blog publication
// every minute, cart expiry hourly, reconciliation daily.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.publishScheduledBlogs); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 * * * *", s.expireStaleCarts); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("30 3 * * *", s.reconcileBacklinks); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) publishScheduledBlogs() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	count, err := s.blogs.PublishDue(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to publish scheduled blogs", "error", err)
		return
	}
	if count > 0 {
		s.logger.Info("published scheduled blogs", "count", count)
	}
}

func (s *Scheduler) expireStaleCarts() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	count, err := s.carts.ExpireStale(ctx, time.Now().Add(-s.cartTTL))
	if err != nil {
		s.logger.Error("failed to expire stale carts", "error", err)
		return
	}
	if count > 0 {
		s.logger.Info("expired stale carts", "count", count)
	}
}

func (s *Scheduler) reconcileBacklinks() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.reconciler.Run(ctx); err != nil {
		s.logger.Error("reconciliation sweep failed", "error", err)
	}
}
