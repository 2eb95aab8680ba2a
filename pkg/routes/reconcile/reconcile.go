package reconcile

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/reconcile"
)

// Register registers reconciliation routes
func Register(g *echo.Group) {
	g.POST("/auto", AutoMatch)
	g.POST("/manual/propose", ProposeManual)
	g.POST("/manual/commit", CommitManual)
	g.POST("/manual/batch", CommitBatch)
	g.POST("/unmatch", Unmatch)
	g.POST("/move", Move)
}

// AutoMatch runs a corpus-wide automatic match pass for one taxonomy
func AutoMatch(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	var req models.AutoMatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.Taxonomy.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown taxonomy")
	}

	ctx, svc, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := svc.AutoMatch(ctx, tenantID, req.Taxonomy)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// ProposeManual validates a selection and returns a match proposal
func ProposeManual(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	var req models.ManualMatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	proposal, err := svc.ProposeManual(ctx, tenantID, req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, proposal)
}

// CommitManual commits a confirmed selection as a new master record
func CommitManual(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	var req models.ManualMatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := svc.CommitManual(ctx, tenantID, req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, result)
}

// CommitBatch commits several selections, each as its own transaction
func CommitBatch(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	var req models.BatchCommitRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Selections) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "at least one selection is required")
	}

	ctx, svc, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := svc.CommitBatch(ctx, tenantID, req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// Unmatch reverts mapped records to pending
func Unmatch(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	var req models.UnmatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	count, err := svc.Unmatch(ctx, tenantID, req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]int{"unmatched": count})
}

// Move reassigns one record to an explicitly chosen master record
func Move(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	var req models.MoveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RecordID == "" || req.TargetMasterID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "record_id and target_master_id are required")
	}

	ctx, svc, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := svc.Move(ctx, tenantID, req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, record)
}

// toHTTPError translates domain errors to HTTP errors, leaving anything that
// already carries a status untouched.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, reconcile.ErrTooFewSelected),
		errors.Is(err, reconcile.ErrMixedTaxonomies),
		errors.Is(err, reconcile.ErrSameTarget),
		errors.Is(err, reconcile.ErrNotLinked):
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, reconcile.ErrUnknownMasterID),
		errors.Is(err, reconcile.ErrRecordNotFound):
		return httperror.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return err
	}
}
