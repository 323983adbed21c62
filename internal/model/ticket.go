// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TicketStatus values. The status field is free-form settable by
// update; only the transition into closed carries extra semantics
// (closedAt and closedBy are set together, never independently).
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
	TicketStatusReopened   = "reopened"
)

// TicketPriority values.
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// Attachment is an uploaded file reference attached to a ticket
// message.
type Attachment struct {
	URL        string    `bson:"url" json:"url"`
	PublicID   string    `bson:"publicId" json:"publicId"`
	FileName   string    `bson:"fileName" json:"fileName"`
	FileType   string    `bson:"fileType" json:"fileType"`
	FileSize   int64     `bson:"fileSize" json:"fileSize"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// TicketMessage is one entry of a ticket's conversation thread.
type TicketMessage struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Sender      primitive.ObjectID   `bson:"sender" json:"sender"`
	Message     string               `bson:"message" json:"message"`
	Attachments []Attachment         `bson:"attachments,omitempty" json:"attachments,omitempty"`
	ReadBy      []primitive.ObjectID `bson:"readBy,omitempty" json:"readBy,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
}

// TicketMetadata records creation provenance. It is written once at
// creation and never recomputed afterwards.
type TicketMetadata struct {
	CreatedBy                RoleType `bson:"createdBy" json:"createdBy"`
	CreatedForCustomer       bool     `bson:"createdForCustomer" json:"createdForCustomer"`
	SupportCreatedAsCustomer bool     `bson:"supportCreatedAsCustomer" json:"supportCreatedAsCustomer"`
}

// Ticket is a support ticket. Every ticket has exactly one customer
// and at most one assignee.
type Ticket struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TicketID    string              `bson:"ticketId" json:"ticketId"`
	Subject     string              `bson:"subject" json:"subject"`
	Description string              `bson:"description" json:"description"`
	Status      string              `bson:"status" json:"status"`
	Priority    string              `bson:"priority" json:"priority"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Customer    primitive.ObjectID  `bson:"customer" json:"customer"`
	Messages    []TicketMessage     `bson:"messages" json:"messages"`
	Metadata    TicketMetadata      `bson:"metadata" json:"metadata"`
	ClosedAt    *time.Time          `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
	ClosedBy    *primitive.ObjectID `bson:"closedBy,omitempty" json:"closedBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsAssignedTo reports whether the ticket is assigned to the user.
func (t *Ticket) IsAssignedTo(userID primitive.ObjectID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
