package httpapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/logger"
)

// GenericFailure is the only error detail callers ever see for a failed
// lookup; the cause is logged server-side.
const GenericFailure = "Sorry, something went wrong"

var validate = validator.New()

// Explorer is the part of explorer.Service the HTTP layer needs.
type Explorer interface {
	ResolveLocation(ctx context.Context, query string) (explorer.Location, error)
	Resource(ctx context.Context, loc explorer.Location, kind explorer.Kind) (interface{}, error)
	Invalidate(ctx context.Context, locationID int64, kind explorer.Kind) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Explorer, log zerolog.Logger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "city-explorer",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/location", func(c *fiber.Ctx) error {
		// The query outlives the request as a cache and store key.
		q := locationQuery{Data: utils.CopyString(c.Query("data"))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "data query parameter is required")
		}

		loc, err := svc.ResolveLocation(c.UserContext(), q.Data)
		if errors.Is(err, explorer.ErrInvalidQuery) {
			return fiber.NewError(fiber.StatusBadRequest, "data query parameter is required")
		}
		if err != nil {
			return internalError(c, log, err)
		}
		return c.JSON(loc)
	})

	// Drops a cached batch so the next read refetches it.
	app.Delete("/cache/:kind/:id", func(c *fiber.Ctx) error {
		kind, err := explorer.ParseKind(c.Params("kind"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "location id must be a positive integer")
		}

		if err := svc.Invalidate(c.UserContext(), id, kind); err != nil {
			return internalError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, kind := range explorer.Kinds {
		app.Get("/"+kind.String(), resourceHandler(svc, kind, log))
	}
}

func resourceHandler(svc Explorer, kind explorer.Kind, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q resolvedLocation
		if err := q.bind(c, kind); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := svc.Resource(c.UserContext(), q.toLocation(), kind)
		if err != nil {
			return internalError(c, log, err)
		}
		return c.JSON(rows)
	}
}

// locationQuery holds the free-text query of /location.
type locationQuery struct {
	Data string `validate:"required"`
}

// resolvedLocation is a previously resolved Location echoed back by the
// client, as data[id]=..&data[latitude]=.. or as flat parameters.
type resolvedLocation struct {
	ID          int64 `validate:"required,gt=0"`
	SearchQuery string
	Latitude    *float64 `validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `validate:"omitempty,gte=-180,lte=180"`
}

func (l *resolvedLocation) bind(c *fiber.Ctx, kind explorer.Kind) error {
	idStr := param(c, "id")
	if idStr == "" {
		return errors.New("location id is required")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return errors.New("location id must be an integer")
	}
	l.ID = id
	l.SearchQuery = param(c, "search_query")

	if l.Latitude, err = optionalFloat(param(c, "latitude")); err != nil {
		return errors.New("latitude must be a number")
	}
	if l.Longitude, err = optionalFloat(param(c, "longitude")); err != nil {
		return errors.New("longitude must be a number")
	}

	if err := validate.Struct(l); err != nil {
		return err
	}

	switch kind {
	case explorer.KindWeather, explorer.KindEvents:
		if l.Latitude == nil || l.Longitude == nil {
			return errors.New("latitude and longitude are required")
		}
	case explorer.KindMovies:
		if l.SearchQuery == "" {
			return errors.New("search_query is required")
		}
	}
	return nil
}

func (l resolvedLocation) toLocation() explorer.Location {
	loc := explorer.Location{ID: l.ID, SearchQuery: l.SearchQuery}
	if l.Latitude != nil {
		loc.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		loc.Longitude = *l.Longitude
	}
	return loc
}

// param returns a copy of the named value; fiber's own strings are only
// valid until the handler returns.
func param(c *fiber.Ctx, name string) string {
	if v := c.Query("data[" + name + "]"); v != "" {
		return utils.CopyString(v)
	}
	return utils.CopyString(c.Query(name))
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func internalError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	l := logger.FromContext(c.UserContext(), log)
	l.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return fiber.NewError(fiber.StatusInternalServerError, GenericFailure)
}

// ErrorHandler renders every error as the same JSON shape. Errors that are
// not *fiber.Error never leak their text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := GenericFailure

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
