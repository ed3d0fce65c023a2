package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

// MobileHandler serves the driver app under /api/mobile/driver.
type MobileHandler struct {
	Mobile  *service.MobileService
	Drivers *service.DriverService
}

func NewMobileHandler(m *service.MobileService, d *service.DriverService) *MobileHandler {
	if m == nil || d == nil {
		panic("nil service passed to NewMobileHandler")
	}
	return &MobileHandler{Mobile: m, Drivers: d}
}

// resolveDriver picks the driver a mobile call acts for. Callers whose only
// elevated role is DRIVER act for their linked driver; ?driverId= must
// match it when given. Staff name the driver with ?driverId=. A zero
// status means the driver was resolved.
func (h *MobileHandler) resolveDriver(c echo.Context) (uuid.UUID, int, string, error) {
	requested, ok := queryID(c, "driverId")
	if !ok {
		return uuid.Nil, http.StatusBadRequest, "driverId is not a valid UUID.", nil
	}
	id, found := middleware.IdentityFrom(c)
	if !found {
		return uuid.Nil, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), nil
	}
	if id.HasRole(model.RoleAdmin) || id.HasRole(model.RoleDispatcher) {
		if requested == nil {
			return uuid.Nil, http.StatusBadRequest, "driverId is required.", nil
		}
		return *requested, 0, "", nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Drivers.ForUser(ctx, id.UserID)
	if err != nil {
		return uuid.Nil, 0, "", err
	}
	if d == nil {
		return uuid.Nil, http.StatusForbidden, "User is not linked to a driver.", nil
	}
	if requested != nil && *requested != d.ID {
		return uuid.Nil, http.StatusForbidden, "Drivers may only act for themselves.", nil
	}
	return d.ID, 0, "", nil
}

// withDriver runs fn once the acting driver is known.
func (h *MobileHandler) withDriver(c echo.Context, fn func(driverID uuid.UUID) error) error {
	driverID, status, msg, err := h.resolveDriver(c)
	if err != nil {
		return err
	}
	if status != 0 {
		return c.JSON(status, envelope{Errors: []string{msg}})
	}
	return fn(driverID)
}

// Trips lists the trips assigned to the driver with their stops and
// packages.
func (h *MobileHandler) Trips(c echo.Context) error {
	return h.withDriver(c, func(driverID uuid.UUID) error {
		ctx, cancel := reqCtx(c)
		defer cancel()
		res, err := h.Mobile.TripsForDriver(ctx, driverID)
		return respond(c, http.StatusOK, res, err)
	})
}

func (h *MobileHandler) StartTrip(c echo.Context) error {
	return h.moveTrip(c, h.Mobile.StartTrip)
}

func (h *MobileHandler) CompleteTrip(c echo.Context) error {
	return h.moveTrip(c, h.Mobile.CompleteTrip)
}

type driverTripMove func(ctx context.Context, driverID, tripID uuid.UUID, at service.GeoPoint) (service.Result[*model.Trip], error)

func (h *MobileHandler) moveTrip(c echo.Context, move driverTripMove) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var at service.GeoPoint
	if err := c.Bind(&at); err != nil {
		return badRequest(c, invalidBody)
	}
	return h.withDriver(c, func(driverID uuid.UUID) error {
		ctx, cancel := reqCtx(c)
		defer cancel()
		res, err := move(ctx, driverID, tripID, at)
		return respond(c, http.StatusOK, res, err)
	})
}

// POD accepts multipart/form-data with optional "image" and "signature"
// files and "latitude", "longitude" and "note" fields.
func (h *MobileHandler) POD(c echo.Context) error {
	jobID, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var pod service.POD
	var msgs []string
	pod.Latitude, msgs = formFloat(c, "latitude", msgs)
	pod.Longitude, msgs = formFloat(c, "longitude", msgs)
	if len(msgs) > 0 {
		return badRequest(c, msgs...)
	}
	pod.Note = c.FormValue("note")

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}()
	for _, part := range []struct {
		field string
		dst   **service.Upload
	}{
		{"image", &pod.Image},
		{"signature", &pod.Signature},
	} {
		fh, err := c.FormFile(part.field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return badRequest(c, "File "+part.field+" could not be read.")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		closers = append(closers, f)
		*part.dst = &service.Upload{Filename: fh.Filename, Content: f}
	}

	return h.withDriver(c, func(driverID uuid.UUID) error {
		ctx, cancel := reqCtx(c)
		defer cancel()
		res, err := h.Mobile.RecordPOD(ctx, driverID, jobID, pod)
		return respond(c, http.StatusOK, res, err)
	})
}

// Location records the driver's current position on the vehicle of its
// active trip.
func (h *MobileHandler) Location(c echo.Context) error {
	var loc service.LocationUpdate
	if err := c.Bind(&loc); err != nil {
		return badRequest(c, invalidBody)
	}
	return h.withDriver(c, func(driverID uuid.UUID) error {
		ctx, cancel := reqCtx(c)
		defer cancel()
		res, err := h.Mobile.UpdateLocation(ctx, driverID, loc)
		return respond(c, http.StatusOK, res, err)
	})
}

func formFloat(c echo.Context, field string, msgs []string) (*float64, []string) {
	raw := c.FormValue(field)
	if raw == "" {
		return nil, msgs
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, append(msgs, "Field "+field+" must be a number.")
	}
	return &f, msgs
}
