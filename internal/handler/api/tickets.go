// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/service"
	"github.com/nimbuswork/storeadmin-go/internal/upload"
)

type createTicketRequest struct {
	Subject     string             `json:"subject"`
	Description string             `json:"description"`
	Priority    string             `json:"priority"`
	Customer    *string            `json:"customer"`   // hex id; staff opening on a customer's behalf
	AssignedTo  *string            `json:"assignedTo"` // hex id; staff routing the ticket at creation
	Attachments []model.Attachment `json:"attachments"`
}

type updateTicketRequest struct {
	Subject    *string `json:"subject"`
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	AssignedTo *string `json:"assignedTo"` // hex id, or "" to unassign
}

type ticketMessageRequest struct {
	Text        string             `json:"text"`
	Attachments []model.Attachment `json:"attachments"`
}

// ListTickets returns the tickets visible to the caller, filtered by
// ?status=, ?priority=, ?assignedTo= and ?customer=.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := service.TicketFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}
	if filter.AssignedTo, err = optionalID(q.Get("assignedTo")); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	if filter.Customer, err = optionalID(q.Get("customer")); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	tickets, err := h.tickets.List(r.Context(), actorID, filter)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, tickets, &Meta{Total: len(tickets)})
}

// GetTicket returns a single ticket.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	ticketID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	ticket, err := h.tickets.Get(r.Context(), actorID, ticketID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, ticket, nil)
}

// CreateTicket opens a support ticket.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req createTicketRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	in := service.CreateTicketInput{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		Attachments: req.Attachments,
	}
	if req.Customer != nil {
		customer, err := optionalID(*req.Customer)
		if err != nil {
			h.writeAppError(w, r, err)
			return
		}
		in.Customer = customer
	}
	if req.AssignedTo != nil {
		assignee, err := optionalID(*req.AssignedTo)
		if err != nil {
			h.writeAppError(w, r, err)
			return
		}
		in.AssignedTo = assignee
	}

	ticket, err := h.tickets.Create(r.Context(), actorID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, ticket)
}

// UpdateTicket patches a ticket's subject, status, priority or
// assignee.
func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	ticketID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req updateTicketRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	in := service.UpdateTicketInput{
		Subject:  req.Subject,
		Status:   req.Status,
		Priority: req.Priority,
	}
	if req.AssignedTo != nil {
		assignee, err := optionalID(*req.AssignedTo)
		if err != nil {
			h.writeAppError(w, r, err)
			return
		}
		in.AssignedTo = &assignee
	}

	ticket, err := h.tickets.Update(r.Context(), actorID, ticketID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, ticket, nil)
}

// AddTicketMessage appends a message to a ticket's thread.
func (h *Handler) AddTicketMessage(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	ticketID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req ticketMessageRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	ticket, err := h.tickets.AddMessage(r.Context(), actorID, ticketID, req.Text, req.Attachments)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, ticket, nil)
}

// MarkTicketRead marks every message of a ticket as read by the
// caller.
func (h *Handler) MarkTicketRead(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	ticketID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.tickets.MarkRead(r.Context(), actorID, ticketID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// DeleteTicket removes a ticket.
func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	ticketID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.tickets.Delete(r.Context(), actorID, ticketID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// TicketStats returns the ticket dashboard aggregates.
func (h *Handler) TicketStats(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	stats, err := h.tickets.Stats(r.Context(), actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, stats, nil)
}

// UploadAttachment stores a multipart file and returns the attachment
// descriptor to embed in a ticket or message.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	if _, err := actor(r); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(upload.MaxFileSize); err != nil {
		h.writeAppError(w, r, apperr.BadRequest("Invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeAppError(w, r, apperr.BadRequest("Missing file field"))
		return
	}
	defer file.Close()

	attachment, err := h.uploader.Store(header.Filename, header.Size, file)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, attachment)
}
