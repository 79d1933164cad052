package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/studio-booking/internal/middleware"
	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/repository"
	"github.com/iliyamo/studio-booking/internal/service"
)

// Booker runs booking and cancellation requests.  *service.BookingService
// implements it.
type Booker interface {
	BookClass(ctx context.Context, id service.Identity, classID uint64) service.Result
	CancelBooking(ctx context.Context, id service.Identity, classID uint64) service.Result
}

// ClassHandler serves class listings, scheduling and the booking routes.
type ClassHandler struct {
	Classes *repository.ClassRepo
	Booker  Booker

	// Cache and CachePrefix locate the cached reports that a committed
	// booking makes stale.  A nil Cache skips invalidation.
	Cache       *redis.Client
	CachePrefix string

	Now func() time.Time
}

func NewClassHandler(classes *repository.ClassRepo, booker Booker, rdb *redis.Client, cachePrefix string) *ClassHandler {
	return &ClassHandler{Classes: classes, Booker: booker, Cache: rdb, CachePrefix: cachePrefix}
}

type classView struct {
	model.ClassDetail
	Date string `json:"date"`
}

type bookingView struct {
	model.ClassBooking
	Date string `json:"date"`
}

type createClassReq struct {
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string   `json:"end_time" validate:"required,datetime=15:04"`
	Location    string   `json:"location" validate:"required,max=100"`
	Capacity    int      `json:"capacity" validate:"gte=1"`
	TrainingIDs []uint64 `json:"training_ids"`
}

func (h *ClassHandler) today() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// List returns upcoming classes (today included).
func (h *ClassHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Classes.ListUpcoming(ctx, h.today())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list classes failed"})
	}
	out := make([]classView, 0, len(list))
	for _, d := range list {
		out = append(out, classView{ClassDetail: d, Date: d.Date.Format(repository.DateLayout)})
	}
	return c.JSON(http.StatusOK, echo.Map{"classes": out})
}

// Get returns one class with its trainings.
func (h *ClassHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load class failed"})
	}
	return c.JSON(http.StatusOK, classView{ClassDetail: *d, Date: d.Date.Format(repository.DateLayout)})
}

// Create schedules a class taught by the calling instructor.
func (h *ClassHandler) Create(c echo.Context) error {
	instructorID, role, ok := middleware.SubjectFrom(c)
	if !ok || role != model.RoleInstructor {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req createClassReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if req.EndTime <= req.StartTime {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}
	day, err := time.Parse(repository.DateLayout, req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Classes.Create(ctx, repository.NewClass{
		Date:         day,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Location:     strings.TrimSpace(req.Location),
		Capacity:     req.Capacity,
		InstructorID: &instructorID,
		TrainingIDs:  req.TrainingIDs,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown training id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create class failed"})
	}
	d, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"class_id": id})
	}
	return c.JSON(http.StatusCreated, classView{ClassDetail: *d, Date: d.Date.Format(repository.DateLayout)})
}

// Book reserves a seat for the token's student.
func (h *ClassHandler) Book(c echo.Context) error {
	who, id, rejected := bookingTarget(c)
	if rejected != nil {
		return writeBookingResult(c, *rejected)
	}
	res := h.Booker.BookClass(c.Request().Context(), who, id)
	if res.Success {
		h.invalidate(c)
	}
	return writeBookingResult(c, res)
}

// Cancel releases the token's student's seat.
func (h *ClassHandler) Cancel(c echo.Context) error {
	who, id, rejected := bookingTarget(c)
	if rejected != nil {
		return writeBookingResult(c, *rejected)
	}
	res := h.Booker.CancelBooking(c.Request().Context(), who, id)
	if res.Success {
		h.invalidate(c)
	}
	return writeBookingResult(c, res)
}

// bookingTarget resolves the caller and the class of a booking route.  A
// malformed id names no class, so it is answered as CLASS_NOT_FOUND once
// the caller is known to be a student.
func bookingTarget(c echo.Context) (service.Identity, uint64, *service.Result) {
	who := identityFrom(c)
	id, ok := pathID(c, "id")
	switch {
	case !who.Resolved():
		return who, 0, &service.Result{Code: model.CodeUnauthenticated}
	case !ok:
		return who, 0, &service.Result{Code: model.CodeClassNotFound}
	}
	return who, id, nil
}

// MyBookings lists the classes the caller holds a seat in.
func (h *ClassHandler) MyBookings(c echo.Context) error {
	uid, _, ok := middleware.SubjectFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Classes.ListBookingsByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	out := make([]bookingView, 0, len(list))
	for _, b := range list {
		out = append(out, bookingView{ClassBooking: b, Date: b.Date.Format(repository.DateLayout)})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

func (h *ClassHandler) invalidate(c echo.Context) {
	if h.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), time.Second)
	defer cancel()
	if err := middleware.InvalidateCache(ctx, h.Cache, h.CachePrefix); err != nil {
		glog.Warnf("report cache invalidation failed: %v", err)
	}
}
