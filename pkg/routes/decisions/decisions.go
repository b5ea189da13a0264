package decisions

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/banksia/internal/repositories/matchdecision"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/utils"
)

// Store reads persisted match decisions
type Store interface {
	List(ctx context.Context, filter matchdecision.Filter) ([]models.MatchDecision, error)
	GetBySource(ctx context.Context, sourceID string) (*models.MatchDecision, error)
}

// Register registers match decision routes
func Register(g *echo.Group) {
	g.GET("", ListDecisions)
	g.GET("/:source_id", GetDecision)
}

func store(ctx context.Context) (context.Context, Store, error) {
	ctx, s, err := ectoinject.GetContext[Store](ctx)
	if err != nil || s == nil {
		return ctx, nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return ctx, s, nil
}

// ListDecisions lists decisions, optionally filtered by source_id and requires_review
func ListDecisions(c echo.Context) error {
	filter := matchdecision.Filter{SourceID: c.QueryParam("source_id")}
	if raw := c.QueryParam("requires_review"); raw != "" {
		review, err := strconv.ParseBool(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "requires_review must be true or false")
		}
		filter.RequiresReview = &review
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if err := utils.ValidateValue(raw, "number"); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit, _ = strconv.Atoi(raw)
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}

	ctx, s, err := store(c.Request().Context())
	if err != nil {
		return err
	}

	decisions, err := s.List(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, decisions)
}

func GetDecision(c echo.Context) error {
	ctx, s, err := store(c.Request().Context())
	if err != nil {
		return err
	}

	decision, err := s.GetBySource(ctx, c.Param("source_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, decision)
}
