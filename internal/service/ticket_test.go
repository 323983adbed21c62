// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func TestFormatTicketID(t *testing.T) {
	tests := []struct {
		seq  int64
		want string
	}{
		{1, "ADTKT-01"},
		{9, "ADTKT-09"},
		{42, "ADTKT-42"},
		{100, "ADTKT-100"},
		{12345, "ADTKT-12345"},
	}
	for _, tt := range tests {
		if got := formatTicketID(tt.seq); got != tt.want {
			t.Errorf("formatTicketID(%d) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

func TestParseTicketID(t *testing.T) {
	tests := []struct {
		id   string
		want int64
		ok   bool
	}{
		{"ADTKT-01", 1, true},
		{"ADTKT-42", 42, true},
		{"ADTKT-100", 100, true},
		{"ADTKT-12345", 12345, true},
		{"ADTKT-", 0, false},
		{"ADTKT-abc", 0, false},
		{"TKT-01", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTicketID(tt.id)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseTicketID(%q) = %d, %v, want %d, %v", tt.id, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPlanTicketCreationProvenance(t *testing.T) {
	actorID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	tests := []struct {
		name      string
		actorType model.RoleType
		hasCreate bool
		customer  *primitive.ObjectID
		assignee  *primitive.ObjectID
		want      ticketCreationPlan
	}{
		{
			name:      "customer opens own ticket",
			actorType: model.RoleTypeCustomer,
			hasCreate: true,
			want: ticketCreationPlan{
				Customer:      actorID,
				AssignDefault: true,
				Metadata:      model.TicketMetadata{CreatedBy: model.RoleTypeCustomer},
			},
		},
		{
			name:      "support without create grant opens as customer",
			actorType: model.RoleTypeSupport,
			want: ticketCreationPlan{
				Customer:      actorID,
				AssignDefault: true,
				Metadata: model.TicketMetadata{
					CreatedBy:                model.RoleTypeCustomer,
					SupportCreatedAsCustomer: true,
				},
			},
		},
		{
			name:      "support with grant keeps own ticket",
			actorType: model.RoleTypeSupport,
			hasCreate: true,
			want: ticketCreationPlan{
				Customer: actorID,
				Metadata: model.TicketMetadata{CreatedBy: model.RoleTypeSupport},
			},
		},
		{
			name:      "support with grant opens for customer",
			actorType: model.RoleTypeSupport,
			hasCreate: true,
			customer:  &otherID,
			want: ticketCreationPlan{
				Customer:            otherID,
				NeedCreateForOthers: true,
				Metadata: model.TicketMetadata{
					CreatedBy:          model.RoleTypeSupport,
					CreatedForCustomer: true,
				},
			},
		},
		{
			name:      "support with grant routes to colleague",
			actorType: model.RoleTypeSupport,
			hasCreate: true,
			assignee:  &otherID,
			want: ticketCreationPlan{
				Customer: actorID,
				AssignTo: &otherID,
				Metadata: model.TicketMetadata{CreatedBy: model.RoleTypeSupport},
			},
		},
		{
			name:      "admin opens for customer",
			actorType: model.RoleTypeAdmin,
			hasCreate: true,
			customer:  &otherID,
			want: ticketCreationPlan{
				Customer:            otherID,
				NeedCreateForOthers: true,
				Metadata: model.TicketMetadata{
					CreatedBy:          model.RoleTypeAdmin,
					CreatedForCustomer: true,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := planTicketCreation(actorID, tt.actorType, tt.hasCreate, tt.customer, tt.assignee)
			if err != nil {
				t.Fatalf("planTicketCreation() error = %v", err)
			}
			if got.Customer != tt.want.Customer {
				t.Errorf("Customer = %s, want %s", got.Customer.Hex(), tt.want.Customer.Hex())
			}
			if got.AssignDefault != tt.want.AssignDefault {
				t.Errorf("AssignDefault = %v, want %v", got.AssignDefault, tt.want.AssignDefault)
			}
			if (got.AssignTo == nil) != (tt.want.AssignTo == nil) ||
				(got.AssignTo != nil && *got.AssignTo != *tt.want.AssignTo) {
				t.Errorf("AssignTo = %v, want %v", got.AssignTo, tt.want.AssignTo)
			}
			if got.NeedCreateForOthers != tt.want.NeedCreateForOthers {
				t.Errorf("NeedCreateForOthers = %v, want %v", got.NeedCreateForOthers, tt.want.NeedCreateForOthers)
			}
			if got.Metadata != tt.want.Metadata {
				t.Errorf("Metadata = %+v, want %+v", got.Metadata, tt.want.Metadata)
			}
		})
	}
}

func TestPlanTicketCreationForbidden(t *testing.T) {
	actorID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	tests := []struct {
		name      string
		actorType model.RoleType
		hasCreate bool
		customer  *primitive.ObjectID
		assignee  *primitive.ObjectID
	}{
		{"customer for another customer", model.RoleTypeCustomer, true, &otherID, nil},
		{"customer picking assignee", model.RoleTypeCustomer, true, nil, &otherID},
		{"ungranted support picking customer", model.RoleTypeSupport, false, &otherID, nil},
		{"ungranted support picking assignee", model.RoleTypeSupport, false, nil, &otherID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planTicketCreation(actorID, tt.actorType, tt.hasCreate, tt.customer, tt.assignee)
			if !apperr.IsKind(err, apperr.KindForbidden) {
				t.Errorf("planTicketCreation() error = %v, want Forbidden", err)
			}
		})
	}
}

func TestTicketGateAdmin(t *testing.T) {
	admin := ticketActor{ID: primitive.NewObjectID(), Type: model.RoleTypeAdmin}
	ticket := &model.Ticket{Customer: primitive.NewObjectID()}

	for _, action := range []TicketAction{TicketView, TicketUpdate, TicketMessage, TicketClose, TicketDelete} {
		if !ticketActionAllowed(action, admin, ticket) {
			t.Errorf("admin denied action %d", action)
		}
	}
}

func TestTicketGateCustomer(t *testing.T) {
	customerID := primitive.NewObjectID()
	customer := ticketActor{ID: customerID, Type: model.RoleTypeCustomer}
	own := &model.Ticket{Customer: customerID}
	foreign := &model.Ticket{Customer: primitive.NewObjectID()}

	tests := []struct {
		name   string
		action TicketAction
		ticket *model.Ticket
		want   bool
	}{
		{"view own", TicketView, own, true},
		{"message own", TicketMessage, own, true},
		{"close own denied", TicketClose, own, false},
		{"update own denied", TicketUpdate, own, false},
		{"delete own denied", TicketDelete, own, false},
		{"view foreign denied", TicketView, foreign, false},
		{"message foreign denied", TicketMessage, foreign, false},
		{"close foreign denied", TicketClose, foreign, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ticketActionAllowed(tt.action, customer, tt.ticket); got != tt.want {
				t.Errorf("ticketActionAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTicketGateSupport(t *testing.T) {
	supportID := primitive.NewObjectID()
	assigned := &model.Ticket{Customer: primitive.NewObjectID(), AssignedTo: &supportID}
	created := &model.Ticket{Customer: primitive.NewObjectID(), CreatedBy: supportID}
	unrelated := &model.Ticket{Customer: primitive.NewObjectID()}

	bare := ticketActor{ID: supportID, Type: model.RoleTypeSupport}
	reader := ticketActor{ID: supportID, Type: model.RoleTypeSupport, CanRead: true}
	updater := ticketActor{ID: supportID, Type: model.RoleTypeSupport, CanUpdate: true}
	deleter := ticketActor{ID: supportID, Type: model.RoleTypeSupport, CanDelete: true}

	tests := []struct {
		name   string
		action TicketAction
		actor  ticketActor
		ticket *model.Ticket
		want   bool
	}{
		{"assigned views without read permission", TicketView, bare, assigned, true},
		{"creator views without read permission", TicketView, bare, created, true},
		{"unrelated needs read permission", TicketView, bare, unrelated, false},
		{"reader views unrelated", TicketView, reader, unrelated, true},
		{"assigned messages without permissions", TicketMessage, bare, assigned, true},
		{"unrelated cannot message", TicketMessage, bare, unrelated, false},
		{"updater messages unrelated", TicketMessage, updater, unrelated, true},
		{"update needs the update grant", TicketUpdate, updater, assigned, true},
		{"involved without grant cannot update", TicketUpdate, bare, assigned, false},
		{"update grant reaches unrelated tickets", TicketUpdate, updater, unrelated, true},
		{"close follows the update rule", TicketClose, updater, assigned, true},
		{"involved without grant cannot close", TicketClose, bare, assigned, false},
		{"delete needs delete permission", TicketDelete, deleter, unrelated, true},
		{"assigned cannot delete without permission", TicketDelete, bare, assigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ticketActionAllowed(tt.action, tt.actor, tt.ticket); got != tt.want {
				t.Errorf("ticketActionAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidTicketStatusAndPriority(t *testing.T) {
	for _, status := range []string{
		model.TicketStatusOpen, model.TicketStatusInProgress, model.TicketStatusResolved,
		model.TicketStatusClosed, model.TicketStatusReopened,
	} {
		if !validTicketStatus(status) {
			t.Errorf("status %q should be valid", status)
		}
	}
	if validTicketStatus("escalated") {
		t.Error("unknown status should be invalid")
	}

	for _, priority := range []string{
		model.TicketPriorityLow, model.TicketPriorityMedium,
		model.TicketPriorityHigh, model.TicketPriorityUrgent,
	} {
		if !validTicketPriority(priority) {
			t.Errorf("priority %q should be valid", priority)
		}
	}
	if validTicketPriority("critical") {
		t.Error("unknown priority should be invalid")
	}
}
