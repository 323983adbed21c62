// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/perm"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// ticketIDPrefix prefixes every human-readable ticket id.
const ticketIDPrefix = "ADTKT-"

// maxTicketIDRetries bounds insert retries when a concurrent writer
// races the counter onto the same ticket id.
const maxTicketIDRetries = 3

// TicketAction enumerates the gated ticket operations.
type TicketAction int

// Ticket actions checked by ticketActionAllowed.
const (
	TicketView TicketAction = iota
	TicketUpdate
	TicketMessage
	TicketClose
	TicketDelete
)

// ticketActor is the flattened view of the requester that the gate
// matrix decides on.
type ticketActor struct {
	ID        primitive.ObjectID
	Type      model.RoleType
	CanRead   bool
	CanUpdate bool
	CanDelete bool
}

// TicketService manages support tickets: creation with provenance
// metadata and auto-assignment, the per-action gate matrix, the
// conversation thread and close/reopen transitions.
type TicketService struct {
	store  *store.Store
	perms  *perm.Evaluator
	logger *slog.Logger
}

// NewTicketService creates a TicketService.
func NewTicketService(s *store.Store, perms *perm.Evaluator, logger *slog.Logger) *TicketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketService{store: s, perms: perms, logger: logger}
}

// CreateTicketInput is the payload for Create. Customer is set when an
// admin or support user opens the ticket on a customer's behalf;
// AssignedTo routes the new ticket to a specific staff member.
type CreateTicketInput struct {
	Subject     string
	Description string
	Priority    string
	Customer    *primitive.ObjectID
	AssignedTo  *primitive.ObjectID
	Attachments []model.Attachment
}

// UpdateTicketInput is the patch for Update; nil fields are untouched.
type UpdateTicketInput struct {
	Subject    *string
	Status     *string
	Priority   *string
	AssignedTo **primitive.ObjectID
}

// TicketFilter narrows List results.
type TicketFilter struct {
	Status     string
	Priority   string
	AssignedTo *primitive.ObjectID
	Customer   *primitive.ObjectID
}

// TicketStats is the aggregate ticket dashboard.
type TicketStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByPriority map[string]int64 `json:"byPriority"`
	Unassigned int64            `json:"unassigned"`
}

// Create opens a ticket. Everyone may open one: customers, and support
// users lacking the create grant, are treated as customers — their
// ticket goes to the earliest-created admin and the metadata records a
// customer origin. Staff with the grant may pick the customer (with the
// create-for-others grant) and the assignee, defaulting to themselves.
func (s *TicketService) Create(ctx context.Context, actorID primitive.ObjectID, in CreateTicketInput) (*model.Ticket, error) {
	if strings.TrimSpace(in.Subject) == "" {
		return nil, apperr.BadRequest("Ticket subject is required")
	}

	actorType, err := s.perms.RoleType(ctx, actorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	hasCreate, _ := s.perms.CheckPermission(ctx, actorID, model.ModuleTickets, model.ActionCreate)

	plan, err := planTicketCreation(actorID, actorType, hasCreate, in.Customer, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	if plan.NeedCreateForOthers {
		// Opening on a customer's behalf needs the finer create-for-others
		// grant; the admin bypass inside Require covers admins.
		if err := s.perms.Require(ctx, actorID, model.ModuleTickets, model.ActionCreateForOthers); err != nil {
			return nil, err
		}
	}
	if plan.Customer != actorID {
		targetType, err := s.perms.RoleType(ctx, plan.Customer)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if targetType != model.RoleTypeCustomer {
			return nil, apperr.BadRequest("Tickets can only be opened for customers")
		}
	}

	priority := in.Priority
	if priority == "" {
		priority = model.TicketPriorityMedium
	}
	if !validTicketPriority(priority) {
		return nil, apperr.BadRequest("Invalid priority")
	}

	var assignee *primitive.ObjectID
	switch {
	case plan.AssignDefault:
		assignee, err = s.defaultAssignee(ctx)
		if err != nil {
			return nil, apperr.From(err)
		}
	case plan.AssignTo != nil:
		assigneeType, err := s.perms.RoleType(ctx, *plan.AssignTo)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if assigneeType == model.RoleTypeCustomer {
			return nil, apperr.BadRequest("Tickets cannot be assigned to customers")
		}
		assignee = plan.AssignTo
	default:
		assignee = &actorID
	}

	now := time.Now()
	ticket := &model.Ticket{
		ID:          primitive.NewObjectID(),
		Subject:     strings.TrimSpace(in.Subject),
		Description: in.Description,
		Status:      model.TicketStatusOpen,
		Priority:    priority,
		CreatedBy:   actorID,
		AssignedTo:  assignee,
		Customer:    plan.Customer,
		Messages:    []model.TicketMessage{},
		Metadata:    plan.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Description != "" || len(in.Attachments) > 0 {
		ticket.Messages = append(ticket.Messages, model.TicketMessage{
			ID:          primitive.NewObjectID(),
			Sender:      actorID,
			Message:     in.Description,
			Attachments: in.Attachments,
			ReadBy:      []primitive.ObjectID{actorID},
			CreatedAt:   now,
		})
	}

	for attempt := 0; ; attempt++ {
		seq, err := s.store.NextSequence(ctx, store.SeqTickets)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		ticket.TicketID = formatTicketID(seq)

		_, err = s.store.Collection(store.ColTickets).InsertOne(ctx, ticket)
		if err == nil {
			return ticket, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Internal(fmt.Errorf("creating ticket: %w", err))
		}
		if attempt+1 >= maxTicketIDRetries {
			return nil, apperr.Internal(fmt.Errorf("creating ticket: id %s collided after %d attempts", ticket.TicketID, maxTicketIDRetries))
		}
	}
}

// Get loads a ticket, gated by the view rules.
func (s *TicketService) Get(ctx context.Context, actorID, ticketID primitive.ObjectID) (*model.Ticket, error) {
	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !ticketActionAllowed(TicketView, actor, ticket) {
		return nil, apperr.Forbidden("Access denied")
	}
	return ticket, nil
}

// List returns tickets visible to the actor, newest first. Customers
// see their own tickets; support without the read permission sees only
// tickets assigned to or created by them; admins and readers see all,
// narrowed by the filter.
func (s *TicketService) List(ctx context.Context, actorID primitive.ObjectID, filter TicketFilter) ([]model.Ticket, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	switch {
	case actor.Type == model.RoleTypeAdmin:
	case actor.Type == model.RoleTypeCustomer:
		query["customer"] = actorID
	case actor.CanRead:
	default:
		query["$or"] = bson.A{
			bson.M{"assignedTo": actorID},
			bson.M{"createdBy": actorID},
		}
	}

	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.AssignedTo != nil {
		query["assignedTo"] = *filter.AssignedTo
	}
	if filter.Customer != nil && actor.Type != model.RoleTypeCustomer {
		query["customer"] = *filter.Customer
	}

	cursor, err := s.store.Collection(store.ColTickets).Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing tickets: %w", err))
	}

	var tickets []model.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding tickets: %w", err))
	}
	return tickets, nil
}

// Update patches a ticket. A status change to closed routes through
// the close transition (closedAt and closedBy set together); leaving
// closed clears both.
func (s *TicketService) Update(ctx context.Context, actorID, ticketID primitive.ObjectID, in UpdateTicketInput) (*model.Ticket, error) {
	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	closing := in.Status != nil && *in.Status == model.TicketStatusClosed && ticket.Status != model.TicketStatusClosed
	action := TicketUpdate
	if closing {
		action = TicketClose
	}
	if !ticketActionAllowed(action, actor, ticket) {
		return nil, apperr.Forbidden("Access denied")
	}

	set := bson.M{"updatedAt": time.Now()}
	unset := bson.M{}
	if in.Subject != nil {
		if strings.TrimSpace(*in.Subject) == "" {
			return nil, apperr.BadRequest("Ticket subject is required")
		}
		set["subject"] = strings.TrimSpace(*in.Subject)
	}
	if in.Priority != nil {
		if !validTicketPriority(*in.Priority) {
			return nil, apperr.BadRequest("Invalid priority")
		}
		set["priority"] = *in.Priority
	}
	if in.Status != nil {
		if !validTicketStatus(*in.Status) {
			return nil, apperr.BadRequest("Invalid status")
		}
		set["status"] = *in.Status
		if closing {
			set["closedAt"] = time.Now()
			set["closedBy"] = actorID
		} else if ticket.Status == model.TicketStatusClosed && *in.Status != model.TicketStatusClosed {
			unset["closedAt"] = ""
			unset["closedBy"] = ""
		}
	}
	if in.AssignedTo != nil {
		if actor.Type == model.RoleTypeCustomer {
			return nil, apperr.Forbidden("Customers cannot assign tickets")
		}
		if *in.AssignedTo != nil {
			assigneeType, err := s.perms.RoleType(ctx, **in.AssignedTo)
			if err != nil {
				return nil, apperr.Internal(err)
			}
			if assigneeType == model.RoleTypeCustomer {
				return nil, apperr.BadRequest("Tickets cannot be assigned to customers")
			}
			set["assignedTo"] = **in.AssignedTo
		} else {
			unset["assignedTo"] = ""
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var updated model.Ticket
	err = s.store.Collection(store.ColTickets).FindOneAndUpdate(ctx,
		bson.M{"_id": ticketID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Ticket not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating ticket %s: %w", ticketID.Hex(), err))
	}

	return &updated, nil
}

// AddMessage appends a message to the ticket's thread. Closed tickets
// reject new messages.
func (s *TicketService) AddMessage(ctx context.Context, actorID, ticketID primitive.ObjectID, text string, attachments []model.Attachment) (*model.Ticket, error) {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil, apperr.BadRequest("Message is empty")
	}

	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !ticketActionAllowed(TicketMessage, actor, ticket) {
		return nil, apperr.Forbidden("Access denied")
	}
	if ticket.Status == model.TicketStatusClosed {
		return nil, apperr.Conflict("Ticket is closed")
	}

	message := model.TicketMessage{
		ID:          primitive.NewObjectID(),
		Sender:      actorID,
		Message:     text,
		Attachments: attachments,
		ReadBy:      []primitive.ObjectID{actorID},
		CreatedAt:   time.Now(),
	}

	var updated model.Ticket
	err = s.store.Collection(store.ColTickets).FindOneAndUpdate(ctx,
		bson.M{"_id": ticketID},
		bson.M{
			"$push": bson.M{"messages": message},
			"$set":  bson.M{"updatedAt": message.CreatedAt},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Ticket not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("adding ticket message: %w", err))
	}

	return &updated, nil
}

// MarkRead records the actor in the readBy set of every message of the
// ticket.
func (s *TicketService) MarkRead(ctx context.Context, actorID, ticketID primitive.ObjectID) error {
	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if !ticketActionAllowed(TicketView, actor, ticket) {
		return apperr.Forbidden("Access denied")
	}

	_, err = s.store.Collection(store.ColTickets).UpdateOne(ctx,
		bson.M{"_id": ticketID},
		bson.M{"$addToSet": bson.M{"messages.$[].readBy": actorID}})
	if err != nil {
		return apperr.Internal(fmt.Errorf("marking ticket read: %w", err))
	}
	return nil
}

// Delete removes a ticket. Only admins and holders of the ticket
// delete permission may delete.
func (s *TicketService) Delete(ctx context.Context, actorID, ticketID primitive.ObjectID) error {
	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if !ticketActionAllowed(TicketDelete, actor, ticket) {
		return apperr.Forbidden("Access denied")
	}

	result, err := s.store.Collection(store.ColTickets).DeleteOne(ctx, bson.M{"_id": ticketID})
	if err != nil {
		return apperr.Internal(fmt.Errorf("deleting ticket: %w", err))
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("Ticket not found")
	}
	return nil
}

// Stats aggregates ticket counts by status and priority.
func (s *TicketService) Stats(ctx context.Context, actorID primitive.ObjectID) (*TicketStats, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleTickets, model.ActionRead); err != nil {
		return nil, err
	}

	stats := &TicketStats{
		ByStatus:   make(map[string]int64),
		ByPriority: make(map[string]int64),
	}

	cursor, err := s.store.Collection(store.ColTickets).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"status": "$status", "priority": "$priority"},
			"count": bson.M{"$sum": 1},
			"unassigned": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$assignedTo", nil}}, nil}}, 1, 0,
			}}},
		}}},
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("aggregating ticket stats: %w", err))
	}

	var rows []struct {
		ID struct {
			Status   string `bson:"status"`
			Priority string `bson:"priority"`
		} `bson:"_id"`
		Count      int64 `bson:"count"`
		Unassigned int64 `bson:"unassigned"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding ticket stats: %w", err))
	}

	for _, row := range rows {
		stats.Total += row.Count
		stats.ByStatus[row.ID.Status] += row.Count
		stats.ByPriority[row.ID.Priority] += row.Count
		stats.Unassigned += row.Unassigned
	}
	return stats, nil
}

// defaultAssignee picks the earliest-created admin. Tickets are never
// left unassigned at creation, so an empty admin pool is an error.
func (s *TicketService) defaultAssignee(ctx context.Context) (*primitive.ObjectID, error) {
	var admin model.User
	err := s.store.Collection(store.ColUsers).FindOne(ctx,
		bson.M{"isAdmin": true},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("No admin available for assignment")
	}
	if err != nil {
		return nil, fmt.Errorf("finding default assignee: %w", err)
	}
	return &admin.ID, nil
}

// actor resolves the requester into the flattened gate-matrix view.
func (s *TicketService) actor(ctx context.Context, actorID primitive.ObjectID) (ticketActor, error) {
	actorType, err := s.perms.RoleType(ctx, actorID)
	if err != nil {
		return ticketActor{}, apperr.Forbidden("Access denied")
	}

	actor := ticketActor{ID: actorID, Type: actorType}
	if actorType == model.RoleTypeSupport {
		canRead, _ := s.perms.CheckPermission(ctx, actorID, model.ModuleTickets, model.ActionRead)
		canUpdate, _ := s.perms.CheckPermission(ctx, actorID, model.ModuleTickets, model.ActionUpdate)
		canDelete, _ := s.perms.CheckPermission(ctx, actorID, model.ModuleTickets, model.ActionDelete)
		actor.CanRead = canRead
		actor.CanUpdate = canUpdate
		actor.CanDelete = canDelete
	}
	return actor, nil
}

// ticketCreationPlan is the resolved creation policy: whose ticket it
// is, how it gets assigned, whether the create-for-others grant must
// also hold, and the provenance metadata written once on the ticket.
type ticketCreationPlan struct {
	Customer            primitive.ObjectID
	AssignDefault       bool
	AssignTo            *primitive.ObjectID
	NeedCreateForOthers bool
	Metadata            model.TicketMetadata
}

// planTicketCreation decides the creation policy from the creator's
// role type and create grant. Customers, and support users without the
// create grant, open tickets as customers: they may not pick the
// customer or the assignee, and their ticket falls to the earliest
// admin. Staff with the grant may do both; no assignee means the
// creator keeps the ticket.
func planTicketCreation(actorID primitive.ObjectID, actorType model.RoleType, hasCreate bool, customer, assignee *primitive.ObjectID) (ticketCreationPlan, error) {
	asCustomer := actorType == model.RoleTypeSupport && !hasCreate

	switch {
	case actorType == model.RoleTypeCustomer:
		if customer != nil && *customer != actorID {
			return ticketCreationPlan{}, apperr.Forbidden("Customers can only open tickets for themselves")
		}
		if assignee != nil {
			return ticketCreationPlan{}, apperr.Forbidden("Customers cannot assign tickets")
		}
	case asCustomer:
		if customer != nil || assignee != nil {
			return ticketCreationPlan{}, apperr.Forbidden("Support without create permission must create ticket as customers")
		}
	}

	plan := ticketCreationPlan{
		Customer:      actorID,
		AssignDefault: actorType == model.RoleTypeCustomer || asCustomer,
	}
	if customer != nil && *customer != actorID {
		plan.Customer = *customer
		plan.NeedCreateForOthers = true
	}
	if !plan.AssignDefault {
		plan.AssignTo = assignee
	}

	createdBy := actorType
	if asCustomer {
		createdBy = model.RoleTypeCustomer
	}
	plan.Metadata = model.TicketMetadata{
		CreatedBy:                createdBy,
		CreatedForCustomer:       plan.Customer != actorID,
		SupportCreatedAsCustomer: asCustomer,
	}
	return plan, nil
}

// ticketActionAllowed is the gate matrix, decided from four facts:
// admin, the module's update/delete grants, assignment and being the
// ticket's customer. Updating and closing need the update grant,
// messaging additionally opens to the assignee and the customer,
// deleting needs the delete grant.
func ticketActionAllowed(action TicketAction, actor ticketActor, ticket *model.Ticket) bool {
	if actor.Type == model.RoleTypeAdmin {
		return true
	}

	isCustomer := ticket.Customer == actor.ID
	isAssigned := ticket.IsAssignedTo(actor.ID)

	switch action {
	case TicketView:
		if actor.Type == model.RoleTypeCustomer {
			return isCustomer
		}
		return actor.CanRead || isAssigned || ticket.CreatedBy == actor.ID
	case TicketUpdate, TicketClose:
		return actor.CanUpdate
	case TicketMessage:
		return actor.CanUpdate || isAssigned || isCustomer
	case TicketDelete:
		return actor.CanDelete
	}
	return false
}

// formatTicketID renders a sequence number as a human-readable ticket
// id, zero-padded to two digits.
func formatTicketID(seq int64) string {
	return fmt.Sprintf("%s%02d", ticketIDPrefix, seq)
}

// ParseTicketID extracts the numeric sequence from a ticket id. It
// reports false for ids without the expected prefix or a numeric
// suffix. Seeding the counter needs the numeric value: the ids sort
// lexicographically, so the highest string is not the highest issued.
func ParseTicketID(id string) (int64, bool) {
	suffix, ok := strings.CutPrefix(id, ticketIDPrefix)
	if !ok {
		return 0, false
	}
	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

func (s *TicketService) get(ctx context.Context, ticketID primitive.ObjectID) (*model.Ticket, error) {
	var ticket model.Ticket
	err := s.store.Collection(store.ColTickets).FindOne(ctx, bson.M{"_id": ticketID}).Decode(&ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Ticket not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading ticket: %w", err))
	}
	return &ticket, nil
}

func validTicketStatus(status string) bool {
	switch status {
	case model.TicketStatusOpen, model.TicketStatusInProgress, model.TicketStatusResolved,
		model.TicketStatusClosed, model.TicketStatusReopened:
		return true
	}
	return false
}

func validTicketPriority(priority string) bool {
	switch priority {
	case model.TicketPriorityLow, model.TicketPriorityMedium, model.TicketPriorityHigh, model.TicketPriorityUrgent:
		return true
	}
	return false
}
