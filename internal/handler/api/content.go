// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/nimbuswork/storeadmin-go/internal/service"
)

type blogRequest struct {
	Title       *string    `json:"title"`
	Slug        *string    `json:"slug"`
	Body        *string    `json:"body"`
	Excerpt     *string    `json:"excerpt"`
	Image       *string    `json:"image"`
	Status      *string    `json:"status"`
	PublishDate *time.Time `json:"publishDate"`
	Category    *string    `json:"category"` // hex id, or "" to clear
	Tags        *[]string  `json:"tags"`
}

func (req blogRequest) toInput() (service.BlogInput, error) {
	in := service.BlogInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Body:        req.Body,
		Excerpt:     req.Excerpt,
		Image:       req.Image,
		Status:      req.Status,
		PublishDate: req.PublishDate,
		Tags:        req.Tags,
	}
	if req.Category != nil {
		category, err := optionalID(*req.Category)
		if err != nil {
			return in, err
		}
		in.Category = &category
	}
	return in, nil
}

// ListBlogs returns blog posts, filtered by ?status=.
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	blogs, err := h.blogs.List(r.Context(), actorID, r.URL.Query().Get("status"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, blogs, &Meta{Total: len(blogs)})
}

// GetBlog returns a single blog post.
func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	blogID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	blog, err := h.blogs.Get(r.Context(), actorID, blogID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, blog, nil)
}

// CreateBlog creates a blog post.
func (h *Handler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req blogRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	blog, err := h.blogs.Create(r.Context(), actorID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, blog)
}

// UpdateBlog patches a blog post.
func (h *Handler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	blogID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req blogRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	blog, err := h.blogs.Update(r.Context(), actorID, blogID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, blog, nil)
}

// DeleteBlog removes a blog post.
func (h *Handler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	blogID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.blogs.Delete(r.Context(), actorID, blogID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}

type caseStudyRequest struct {
	Title    *string `json:"title"`
	Slug     *string `json:"slug"`
	Body     *string `json:"body"`
	Client   *string `json:"client"`
	Image    *string `json:"image"`
	Status   *string `json:"status"`
	Category *string `json:"category"`
}

func (req caseStudyRequest) toInput() (service.CaseStudyInput, error) {
	in := service.CaseStudyInput{
		Title:  req.Title,
		Slug:   req.Slug,
		Body:   req.Body,
		Client: req.Client,
		Image:  req.Image,
		Status: req.Status,
	}
	if req.Category != nil {
		category, err := optionalID(*req.Category)
		if err != nil {
			return in, err
		}
		in.Category = &category
	}
	return in, nil
}

// ListCaseStudies returns case studies, filtered by ?status=.
func (h *Handler) ListCaseStudies(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	studies, err := h.caseStudies.List(r.Context(), actorID, r.URL.Query().Get("status"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, studies, &Meta{Total: len(studies)})
}

// GetCaseStudy returns a single case study.
func (h *Handler) GetCaseStudy(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	studyID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	study, err := h.caseStudies.Get(r.Context(), actorID, studyID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, study, nil)
}

// CreateCaseStudy creates a case study.
func (h *Handler) CreateCaseStudy(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req caseStudyRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	study, err := h.caseStudies.Create(r.Context(), actorID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, study)
}

// UpdateCaseStudy patches a case study.
func (h *Handler) UpdateCaseStudy(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	studyID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req caseStudyRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	study, err := h.caseStudies.Update(r.Context(), actorID, studyID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, study, nil)
}

// DeleteCaseStudy removes a case study.
func (h *Handler) DeleteCaseStudy(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	studyID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.caseStudies.Delete(r.Context(), actorID, studyID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}

type servicePageRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Body        *string `json:"body"`
	Image       *string `json:"image"`
	Status      *string `json:"status"`
}

// ListServices returns service pages, filtered by ?status=.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	pages, err := h.services.List(r.Context(), actorID, r.URL.Query().Get("status"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, pages, &Meta{Total: len(pages)})
}

// GetService returns a single service page.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	pageID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	page, err := h.services.Get(r.Context(), actorID, pageID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, page, nil)
}

// CreateService creates a service page.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req servicePageRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	page, err := h.services.Create(r.Context(), actorID, service.ServicePageInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Body:        req.Body,
		Image:       req.Image,
		Status:      req.Status,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, page)
}

// UpdateService patches a service page.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	pageID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req servicePageRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	page, err := h.services.Update(r.Context(), actorID, pageID, service.ServicePageInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Body:        req.Body,
		Image:       req.Image,
		Status:      req.Status,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, page, nil)
}

// DeleteService removes a service page.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	pageID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.services.Delete(r.Context(), actorID, pageID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}
