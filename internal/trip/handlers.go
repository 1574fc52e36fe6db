package trip

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/mapstate"
	"backend-staysafe/internal/shared/geo"
	"backend-staysafe/internal/store"
)

type Handler struct {
	planner  *Planner
	registry *Registry
	track    Tracking
	views    *mapstate.Registry
}

func NewHandler(planner *Planner, registry *Registry, track Tracking, views *mapstate.Registry) *Handler {
	return &Handler{planner: planner, registry: registry, track: track, views: views}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Post("/", h.plan)
	r.Get("/:id", h.show)
	r.Get("/:id/map", h.mapView)
	r.Post("/:id/start", h.start)
	r.Post("/:id/pause", h.pause)
	r.Post("/:id/resume", h.resume)
	r.Post("/:id/cancel", h.cancel)
	r.Post("/:id/close", h.close)
	r.Delete("/:id", h.release)
}

type planPayload struct {
	Destination string  `json:"Destination"`
	Latitude    float64 `json:"Latitude"`
	Longitude   float64 `json:"Longitude"`
	Address     string  `json:"Address"`
	Mode        string  `json:"Mode"`
	Leave       string  `json:"Leave"`
	Arrive      string  `json:"Arrive"`
	OriginLat   float64 `json:"OriginLat"`
	OriginLng   float64 `json:"OriginLng"`
	OriginName  string  `json:"OriginName"`
	HasOrigin   bool    `json:"HasOrigin"`
}

func (h *Handler) plan(c *fiber.Ctx) error {
	var payload planPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.Destination == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "destination is required"})
	}

	departure, err := activity.ParseTime(payload.Leave)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid departure time"})
	}

	req := PlanRequest{
		UserID:      principal(c),
		Destination: payload.Destination,
		DestLat:     payload.Latitude,
		DestLng:     payload.Longitude,
		Address:     payload.Address,
		Mode:        activity.TransportMode(payload.Mode),
		Departure:   departure,
		OriginName:  payload.OriginName,
	}
	if payload.Arrive != "" {
		arrival, err := activity.ParseTime(payload.Arrive)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid arrival time"})
		}
		req.Arrival = arrival
	}
	if payload.HasOrigin {
		req.Origin = &geo.Point{Lat: payload.OriginLat, Lng: payload.OriginLng}
	}

	created, err := h.planner.Plan(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	// a "leave now" trip is created already underway
	if created.HasStarted() {
		h.track.Start(created.ID)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) show(c *fiber.Ctx) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return respondError(c, err)
	}
	act, positions, err := ctrl.Refresh(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"Activity": act, "Positions": positions})
}

// mapView returns the reconciled map presentation for the trip: the shown
// activity plus its route overlay when one is drawn.
func (h *Handler) mapView(c *fiber.Ctx) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return respondError(c, err)
	}

	view := h.views.For(principal(c))
	act := ctrl.Activity()

	snap := view.Snapshot()
	if snap.Activity == nil || snap.Activity.ID != act.ID {
		if err := view.Show(c.Context(), act); err != nil {
			return respondError(c, err)
		}
		snap = view.Snapshot()
	}

	resp := fiber.Map{"Activity": snap.Activity}
	if snap.Route != nil {
		resp["Polyline"] = snap.Route.Polyline
		resp["DurationSeconds"] = int(snap.Route.Duration.Seconds())
	}
	return c.JSON(resp)
}

func (h *Handler) start(c *fiber.Ctx) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return respondError(c, err)
	}
	act, err := ctrl.Start(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(act)
}

func (h *Handler) pause(c *fiber.Ctx) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return respondError(c, err)
	}
	act, err := ctrl.Pause(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(act)
}

func (h *Handler) resume(c *fiber.Ctx) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return respondError(c, err)
	}
	paused, err := ctrl.Resume(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"Activity": ctrl.Activity(), "Paused": paused})
}

func (h *Handler) cancel(c *fiber.Ctx) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return respondError(c, err)
	}
	act, err := ctrl.Cancel(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(act)
}

func (h *Handler) close(c *fiber.Ctx) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return respondError(c, err)
	}
	act, err := ctrl.Close(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(act)
}

func (h *Handler) release(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid activity id"})
	}
	h.registry.Release(id, principal(c))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) controller(c *fiber.Ctx) (*Controller, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, errors.Join(activity.ErrValidation, errors.New("invalid activity id"))
	}
	return h.registry.Acquire(c.Context(), id, principal(c))
}

func principal(c *fiber.Ctx) int {
	userID, _ := c.Locals("user_id").(int)
	return userID
}

func respondError(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, activity.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, activity.ErrInvalidTransition), errors.Is(err, ErrInFlight):
		return fiber.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, store.ErrNetwork), errors.Is(err, store.ErrRejected), errors.Is(err, store.ErrDecode):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
