// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event log levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event is an audit log entry persisted by the logging handler for
// WARN-and-above records and by services for notable domain actions.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Level     string              `bson:"level" json:"level"`
	Source    string              `bson:"source" json:"source"`
	Message   string              `bson:"message" json:"message"`
	Data      map[string]string   `bson:"data,omitempty" json:"data,omitempty"`
	UserID    *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
