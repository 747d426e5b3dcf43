package httpapi

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/viejopeter/myweather/internal/api/http/views"
	"github.com/viejopeter/myweather/internal/geo"
	"github.com/viejopeter/myweather/internal/search"
	"github.com/viejopeter/myweather/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the JSON API and the HTML pages into the Fiber app.
func RegisterRoutes(app *fiber.App, manager *search.Manager) {
	registerAPI(app, manager)
	registerPages(app, manager)
}

func registerAPI(app *fiber.App, manager *search.Manager) {
	v1 := app.Group("/api/v1")

	v1.Get("/geo/search", func(c *fiber.Ctx) error {
		var q searchQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		candidates, err := manager.Search(c.Context(), q.Q, q.Limit)
		if err != nil {
			return upstreamError(err)
		}
		if candidates == nil {
			candidates = []geo.Candidate{}
		}

		return c.JSON(fiber.Map{
			"query":      q.Q,
			"candidates": candidates,
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid lat")
		}
		lon, err := strconv.ParseFloat(c.Query("lon"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid lon")
		}

		reading, err := manager.CurrentWeather(c.Context(), lat, lon)
		if err != nil {
			return upstreamError(err)
		}

		return c.JSON(reading)
	})

	sessions := v1.Group("/search/sessions")

	sessions.Post("/", func(c *fiber.Ctx) error {
		id, state := manager.Create()
		return c.Status(fiber.StatusCreated).JSON(sessionResponse(id, state))
	})

	sessions.Get("/:id", func(c *fiber.Ctx) error {
		state, err := manager.Get(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(sessionResponse(c.Params("id"), state))
	})

	sessions.Post("/:id/query", func(c *fiber.Ctx) error {
		var body queryBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}

		state, err := manager.Submit(c.Context(), c.Params("id"), body.Input)
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(sessionResponse(c.Params("id"), state))
	})

	sessions.Post("/:id/select", func(c *fiber.Ctx) error {
		var body selectBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		state, err := manager.Select(c.Context(), c.Params("id"), body.Index)
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(sessionResponse(c.Params("id"), state))
	})

	sessions.Post("/:id/clear", func(c *fiber.Ctx) error {
		state, err := manager.Clear(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(sessionResponse(c.Params("id"), state))
	})
}

func registerPages(app *fiber.App, manager *search.Manager) {
	app.Get("/", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := views.RenderIndex(&buf); err != nil {
			return err
		}
		c.Type("html")
		return c.Send(buf.Bytes())
	})

	app.Post("/session", func(c *fiber.Ctx) error {
		id, _ := manager.Create()
		return c.Redirect("/session/"+id, fiber.StatusSeeOther)
	})

	app.Get("/session/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		state, err := manager.Get(id)
		if err != nil {
			return sessionError(err)
		}
		return renderSession(c, id, state)
	})

	app.Post("/session/:id/search", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := manager.Submit(c.Context(), id, c.FormValue("q")); err != nil {
			return sessionError(err)
		}
		return c.Redirect("/session/"+id, fiber.StatusSeeOther)
	})

	app.Post("/session/:id/select", func(c *fiber.Ctx) error {
		id := c.Params("id")
		index, err := strconv.Atoi(c.FormValue("index"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid index")
		}
		if _, err := manager.Select(c.Context(), id, index); err != nil {
			return sessionError(err)
		}
		return c.Redirect("/session/"+id, fiber.StatusSeeOther)
	})

	app.Post("/session/:id/clear", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := manager.Clear(id); err != nil {
			return sessionError(err)
		}
		return c.Redirect("/session/"+id, fiber.StatusSeeOther)
	})
}

func renderSession(c *fiber.Ctx, id string, state search.State) error {
	var buf bytes.Buffer
	if err := views.RenderSession(&buf, views.NewSessionView(id, state)); err != nil {
		return err
	}
	c.Type("html")
	return c.Send(buf.Bytes())
}

// searchQuery holds query parameters for the geocoding endpoint.
type searchQuery struct {
	Q     string `validate:"required"`
	Limit int    `validate:"gte=0,lte=5"`
}

func (q *searchQuery) bind(c *fiber.Ctx) error {
	q.Q = c.Query("q")
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return errors.New("invalid limit")
		}
		q.Limit = limit
	}
	return validate.Struct(q)
}

type queryBody struct {
	Input string `json:"input"`
}

type selectBody struct {
	Index int `json:"index" validate:"gte=0"`
}

func sessionResponse(id string, state search.State) fiber.Map {
	return fiber.Map{
		"id":    id,
		"state": state,
	}
}

// sessionError maps session-level failures to HTTP statuses.
func sessionError(err error) error {
	switch {
	case errors.Is(err, search.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	case errors.Is(err, search.ErrNoSuchCandidate):
		return fiber.NewError(fiber.StatusBadRequest, "no such candidate")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

// upstreamError maps outbound client failures to HTTP statuses. Every
// category suggests a retry; nothing here is fatal.
func upstreamError(err error) error {
	switch {
	case errors.Is(err, geo.ErrNotConfigured), errors.Is(err, weather.ErrNotConfigured):
		return fiber.NewError(fiber.StatusServiceUnavailable, "service is not configured")
	case errors.Is(err, weather.ErrMalformed):
		return fiber.NewError(fiber.StatusBadGateway, "upstream returned malformed data, please try again")
	default:
		return fiber.NewError(fiber.StatusBadGateway, "upstream request failed, please try again")
	}
}
