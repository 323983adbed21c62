// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequence names used with NextSequence.
const (
	SeqTickets = "tickets"
)

// NextSequence atomically increments and returns the named counter.
// The counter document is created on first use.
func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}

	err := s.Collection(ColCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("incrementing sequence %s: %w", name, err)
	}

	return doc.Seq, nil
}

// SeedSequence raises the named counter to at least min. Used at
// startup to align the ticket counter with pre-existing documents;
// $max makes re-seeding idempotent and safe under concurrency.
func (s *Store) SeedSequence(ctx context.Context, name string, min int64) error {
	_, err := s.Collection(ColCounters).UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": min}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("seeding sequence %s: %w", name, err)
	}
	return nil
}
