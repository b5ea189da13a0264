package jobs

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/utils"
)

const defaultListLimit = 50

// Service submits and tracks matching jobs
type Service interface {
	Submit(ctx context.Context, req models.MatchJobRequest) (models.MatchJob, error)
	Get(ctx context.Context, id string) (models.MatchJob, error)
	List(ctx context.Context, limit int) ([]models.MatchJob, error)
	Cancel(ctx context.Context, id string) (models.MatchJob, error)
}

// Register registers matching job routes
func Register(g *echo.Group) {
	g.POST("", SubmitJob)
	g.GET("", ListJobs)
	g.GET("/:id", GetJob)
	g.POST("/:id/cancel", CancelJob)
}

func service(ctx context.Context) (context.Context, Service, error) {
	ctx, svc, err := ectoinject.GetContext[Service](ctx)
	if err != nil || svc == nil {
		return ctx, nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return ctx, svc, nil
}

// SubmitJob queues a matching run and returns 202 with the pending job
func SubmitJob(c echo.Context) error {
	req, err := utils.BindRequest[models.MatchJobRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := service(c.Request().Context())
	if err != nil {
		return err
	}

	job, err := svc.Submit(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, job)
}

func ListJobs(c echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	ctx, svc, err := service(c.Request().Context())
	if err != nil {
		return err
	}

	jobs, err := svc.List(ctx, limit)
	if err != nil {
		return err
	}
	if jobs == nil {
		jobs = []models.MatchJob{}
	}
	return c.JSON(http.StatusOK, jobs)
}

func GetJob(c echo.Context) error {
	ctx, svc, err := service(c.Request().Context())
	if err != nil {
		return err
	}

	job, err := svc.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// CancelJob cancels a pending job or asks a running job to stop
func CancelJob(c echo.Context) error {
	ctx, svc, err := service(c.Request().Context())
	if err != nil {
		return err
	}

	job, err := svc.Cancel(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, job)
}
