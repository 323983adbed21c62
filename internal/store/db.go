// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides MongoDB access: client bootstrap, collection
// handles, index management and the transaction helper used by the
// protocols that need multi-document atomicity.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	ColUsers               = "users"
	ColRoles               = "roles"
	ColBlogs               = "blogs"
	ColBlogCategories      = "blog_categories"
	ColProducts            = "products"
	ColProductCategories   = "product_categories"
	ColCaseStudies         = "case_studies"
	ColCaseStudyCategories = "case_study_categories"
	ColServices            = "services"
	ColTickets             = "tickets"
	ColCoupons             = "coupons"
	ColCarts               = "carts"
	ColOrders              = "orders"
	ColCounters            = "counters"
	ColEvents              = "events"
)

// Store wraps the Mongo client and database handle.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Collection returns a handle for the named collection.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// WithTransaction runs fn inside a MongoDB transaction. Both halves of
// a multi-document protocol commit together or not at all; on any
// error the transaction is aborted.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})
	return err
}
