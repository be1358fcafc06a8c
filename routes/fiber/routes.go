// Package fiber provides Fiber route registration for the submission portal.
package fiber

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/andresqui0416/Melotech-Artist/auth"
	portalerrors "github.com/andresqui0416/Melotech-Artist/errors"
	"github.com/andresqui0416/Melotech-Artist/events"
	"github.com/andresqui0416/Melotech-Artist/models"
	"github.com/andresqui0416/Melotech-Artist/service"
	"github.com/andresqui0416/Melotech-Artist/store"
	"github.com/andresqui0416/Melotech-Artist/uploads"
)

// Config holds configuration for the routes.
type Config struct {
	Service       service.PortalService
	Store         store.Store // for health checks
	Authenticator *auth.Authenticator
	Signer        *uploads.Signer // optional; nil disables upload presigning
	Logger        *slog.Logger
}

// Routes handles HTTP routes for the portal.
type Routes struct {
	service       service.PortalService
	store         store.Store
	authenticator *auth.Authenticator
	signer        *uploads.Signer
	logger        *slog.Logger
}

// NewRoutes creates a new Routes instance.
func NewRoutes(cfg Config) *Routes {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Routes{
		service:       cfg.Service,
		store:         cfg.Store,
		authenticator: cfg.Authenticator,
		signer:        cfg.Signer,
		logger:        logger,
	}
}

// Register registers all portal routes on the given router.
func (r *Routes) Register(router fiber.Router) {
	api := router.Group("/api")

	// Public endpoints
	api.Post("/submissions", r.handlePostSubmission)
	api.Post("/upload/presigned-url", r.handlePresignedURL)
	api.Post("/auth/login", r.handleLogin)
	api.Post("/seed", r.handleSeed)

	// The event stream carries no session check; see the security notes in
	// the repository docs before exposing it beyond a trusted network.
	api.Get("/events", r.handleEventStream)

	// Admin endpoints
	admin := api.Group("/admin", r.requireAuth)
	admin.Get("/submissions", r.handleListSubmissions)
	admin.Get("/submissions/:id", r.handleGetSubmission)
	admin.Patch("/submissions/:id", r.handleUpdateSubmission)
	admin.Delete("/submissions/:id", r.handleDeleteSubmission)
	admin.Post("/submissions/:id/reviews", r.handlePostReview)
	admin.Get("/email-templates", r.handleListTemplates)
	admin.Post("/email-templates", r.handleSaveTemplate)
	admin.Put("/email-templates", r.handleSaveTemplate)
}

// requireAuth validates the bearer session token and stores the claims on the
// request context.
func (r *Routes) requireAuth(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return r.sendError(c, portalerrors.New(errors.New("missing bearer token"), portalerrors.StatusUnauthorized))
	}

	claims, err := r.authenticator.Verify(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return r.sendError(c, portalerrors.New(err, portalerrors.StatusUnauthorized))
	}

	c.Locals("claims", claims)
	return c.Next()
}

// handleEventStream streams portal events to admin dashboards
// @Summary Stream submission events
// @Description Server-Sent Events firehose of submission lifecycle events
// @Tags events
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream of submission events"
// @Router /api/events [get]
func (r *Routes) handleEventStream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	// Fiber's UserContext is never cancelled for a streamed body, so the
	// stream derives its own context and cancels it on every exit path.
	ctx, cancel := context.WithCancel(c.UserContext())
	logger := r.logger

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		// Register before the first write so nothing published after this
		// point can be missed by the new stream.
		eventChan, err := r.service.Subscribe(ctx)
		if err != nil {
			logger.Error("failed to subscribe to events", slog.String("error", err.Error()))
			return
		}
		defer r.service.Unsubscribe(eventChan)

		// Acknowledge the open stream to this client only, not broadcast
		if err := writeSSEEvent(w, events.ConnectedEvent()); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-eventChan:
				if !ok {
					return
				}
				if err := writeSSEEvent(w, event); err != nil {
					// Write failure closes only this stream; the broadcast
					// to other subscribers is unaffected.
					logger.Debug("event stream write failed, closing stream",
						slog.String("error", err.Error()))
					return
				}
			}
		}
	}))

	return nil
}

// writeSSEEvent encodes one event as a single SSE data block and flushes it.
func writeSSEEvent(w *bufio.Writer, event *events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		// A payload that cannot be serialized is dropped, not fatal
		return nil
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

// handlePostSubmission accepts a public demo submission
// @Summary Submit a demo
// @Tags submissions
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 422 {object} portalerrors.ErrorFields
// @Router /api/submissions [post]
func (r *Routes) handlePostSubmission(c *fiber.Ctx) error {
	var input service.SubmissionInput
	if err := c.BodyParser(&input); err != nil {
		return r.sendError(c, portalerrors.New(err, portalerrors.StatusBadRequest))
	}

	sub, err := r.service.CreateSubmission(c.UserContext(), &input)
	if err != nil {
		return r.sendError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "submissionId": sub.ID})
}

// handleListSubmissions returns one page of the admin submission list
// @Summary List submissions
// @Tags admin
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Items per page"
// @Param status query string false "Status filter"
// @Param search query string false "Search over artist name, email and track titles"
// @Success 200 {object} store.ListPage
// @Router /api/admin/submissions [get]
func (r *Routes) handleListSubmissions(c *fiber.Ctx) error {
	status := c.Query("status")
	if status == "ALL" {
		status = ""
	}

	page, err := r.service.ListSubmissions(c.UserContext(), store.ListQuery{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
		Status: models.Status(status),
		Search: c.Query("search"),
	})
	if err != nil {
		return r.sendError(c, err)
	}

	return c.JSON(page)
}

func (r *Routes) handleGetSubmission(c *fiber.Ctx) error {
	sub, err := r.service.GetSubmission(c.UserContext(), c.Params("id"))
	if err != nil {
		return r.sendError(c, err)
	}
	return c.JSON(sub)
}

// handleUpdateSubmission changes a submission's status and team notes
// @Summary Update submission
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} models.Submission
// @Router /api/admin/submissions/{id} [patch]
func (r *Routes) handleUpdateSubmission(c *fiber.Ctx) error {
	var input service.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return r.sendError(c, portalerrors.New(err, portalerrors.StatusBadRequest))
	}

	sub, err := r.service.UpdateSubmission(c.UserContext(), c.Params("id"), &input)
	if err != nil {
		return r.sendError(c, err)
	}

	return c.JSON(sub)
}

func (r *Routes) handleDeleteSubmission(c *fiber.Ctx) error {
	if err := r.service.DeleteSubmission(c.UserContext(), c.Params("id")); err != nil {
		return r.sendError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (r *Routes) handlePostReview(c *fiber.Ctx) error {
	var input service.ReviewInput
	if err := c.BodyParser(&input); err != nil {
		return r.sendError(c, portalerrors.New(err, portalerrors.StatusBadRequest))
	}

	reviewerID := ""
	if claims, ok := c.Locals("claims").(*auth.Claims); ok {
		reviewerID = claims.Subject
	}

	review, err := r.service.AddReview(c.UserContext(), c.Params("id"), reviewerID, &input)
	if err != nil {
		return r.sendError(c, err)
	}

	return c.JSON(review)
}

func (r *Routes) handleListTemplates(c *fiber.Ctx) error {
	templates, err := r.service.ListTemplates(c.UserContext())
	if err != nil {
		return r.sendError(c, err)
	}
	return c.JSON(templates)
}

func (r *Routes) handleSaveTemplate(c *fiber.Ctx) error {
	var t models.EmailTemplate
	if err := c.BodyParser(&t); err != nil {
		return r.sendError(c, portalerrors.New(err, portalerrors.StatusBadRequest))
	}

	if err := r.service.SaveTemplate(c.UserContext(), &t); err != nil {
		return r.sendError(c, err)
	}

	return c.JSON(t)
}

// handlePresignedURL issues a pre-signed S3 PUT URL for a demo audio file
// @Summary Presign upload
// @Tags uploads
// @Accept json
// @Produce json
// @Success 200 {object} uploads.Grant
// @Failure 415 {object} portalerrors.ErrorFields
// @Router /api/upload/presigned-url [post]
func (r *Routes) handlePresignedURL(c *fiber.Ctx) error {
	if r.signer == nil {
		return r.sendError(c, portalerrors.NewWithDetail(errors.New("uploads disabled"),
			portalerrors.StatusInternal, "file uploads are not configured"))
	}

	var req uploads.Request
	if err := c.BodyParser(&req); err != nil {
		return r.sendError(c, portalerrors.New(err, portalerrors.StatusBadRequest))
	}

	grant, err := r.signer.PresignUpload(c.UserContext(), req)
	if err != nil {
		return r.sendError(c, err)
	}

	return c.JSON(grant)
}

// loginRequest is the body of POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *Routes) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return r.sendError(c, portalerrors.New(err, portalerrors.StatusBadRequest))
	}

	token, user, err := r.authenticator.Login(c.UserContext(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return r.sendError(c, portalerrors.New(err, portalerrors.StatusUnauthorized))
	}
	if err != nil {
		return r.sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  fiber.Map{"id": user.ID, "email": user.Email, "name": user.Name, "role": user.Role},
	})
}

// handleSeed provisions the admin account, default templates and sample data.
// Intended for local development and first-run setup.
func (r *Routes) handleSeed(c *fiber.Ctx) error {
	if err := r.service.Seed(c.UserContext()); err != nil {
		return r.sendError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleGetHealth returns the health status
// @Summary Health check
// @Tags health
// @Produce text/plain
// @Success 200 {string} string "OK"
// @Failure 503 {string} string "Service Unavailable"
// @Router /health [get]
func (r *Routes) HandleGetHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := r.store.Ping(ctx); err != nil {
		return c.Status(http.StatusServiceUnavailable).SendString("Database connection failed")
	}

	return c.SendString("OK")
}

// sendError maps service errors onto JSON error responses.
func (r *Routes) sendError(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(portalerrors.NewErrorFields(portalerrors.StatusNotFound))
	}

	if pErr := portalerrors.Get(err); pErr != nil {
		return c.Status(int(pErr.StatusCode)).JSON(pErr.ToErrorFields())
	}

	r.logger.Error("request failed",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return c.Status(http.StatusInternalServerError).JSON(portalerrors.NewErrorFields(portalerrors.StatusInternal))
}
