package reviews

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/banksia/internal/repositories/reviewitem"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/utils"
)

// Store is the manual review queue
type Store interface {
	List(ctx context.Context, filter reviewitem.Filter) ([]models.ReviewItem, error)
	Get(ctx context.Context, id string) (*models.ReviewItem, error)
	SubmitDecision(ctx context.Context, id string, req models.ReviewDecisionRequest) (*models.ReviewItem, error)
	Summary(ctx context.Context) (models.ReviewSummary, error)
}

// Register registers review queue routes
func Register(g *echo.Group) {
	g.GET("", ListReviewItems)
	g.GET("/summary", GetSummary)
	g.GET("/:id", GetReviewItem)
	g.POST("/:id/decision", SubmitDecision)
}

func store(ctx context.Context) (context.Context, Store, error) {
	ctx, s, err := ectoinject.GetContext[Store](ctx)
	if err != nil || s == nil {
		return ctx, nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return ctx, s, nil
}

// ListReviewItems lists the queue, optionally filtered by status and priority
func ListReviewItems(c echo.Context) error {
	filter := reviewitem.Filter{
		Status:   models.ReviewStatus(c.QueryParam("status")),
		Priority: models.ReviewPriority(c.QueryParam("priority")),
	}
	if filter.Status != "" {
		if err := utils.ValidateValue(string(filter.Status), "oneof=pending approved rejected needs_additional_info"); err != nil {
			return httperror.WrapError(http.StatusBadRequest, err)
		}
	}
	if filter.Priority != "" {
		if err := utils.ValidateValue(string(filter.Priority), "oneof=high medium low"); err != nil {
			return httperror.WrapError(http.StatusBadRequest, err)
		}
	}
	page, pageSize := utils.Page(c, 50, 500)
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	ctx, s, err := store(c.Request().Context())
	if err != nil {
		return err
	}

	items, err := s.List(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func GetSummary(c echo.Context) error {
	ctx, s, err := store(c.Request().Context())
	if err != nil {
		return err
	}

	summary, err := s.Summary(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func GetReviewItem(c echo.Context) error {
	ctx, s, err := store(c.Request().Context())
	if err != nil {
		return err
	}

	item, err := s.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// SubmitDecision records a reviewer's verdict on an open review item
func SubmitDecision(c echo.Context) error {
	req, err := utils.BindRequest[models.ReviewDecisionRequest](c)
	if err != nil {
		return err
	}

	ctx, s, err := store(c.Request().Context())
	if err != nil {
		return err
	}

	id := c.Param("id")
	item, err := s.SubmitDecision(ctx, id, req)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"review_item_id": id,
			"status":         item.Status,
			"reviewer":       req.Reviewer,
		}).Info("Review decision submitted")
	}

	return c.JSON(http.StatusOK, item)
}
