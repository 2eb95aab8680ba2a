package supplierrecord

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/laurel/internal/repositories/supplierrecord"
	"github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/ingest"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/reconcile"
)

// Register registers supplier record routes
func Register(g *echo.Group) {
	g.GET("", ListRecords)
	g.GET("/:id", GetRecord)
	g.DELETE("/:id", DeleteRecord)
	g.POST("/resync", Resync)
	g.POST("/:id/needs-review", MarkNeedsReview)
}

// ListRecords lists supplier records for a taxonomy
func ListRecords(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	taxonomy := models.Taxonomy(c.QueryParam("taxonomy"))
	if !taxonomy.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "taxonomy query parameter is required")
	}

	filter := supplierrecord.Filter{Taxonomy: taxonomy}
	if v := c.QueryParam("supplier_id"); v != "" {
		filter.SupplierID = &v
	}
	if v := c.QueryParam("status"); v != "" {
		status := models.RecordStatus(v)
		filter.Status = &status
	}
	if v := c.QueryParam("master_id"); v != "" {
		filter.MasterID = &v
	}
	if v := c.QueryParam("q"); v != "" {
		filter.Search = &v
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, repo, err := ectoinject.GetContext[*supplierrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, total, err := repo.List(ctx, tenantID, filter, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.SupplierRecordListResponse{
		Items:      records,
		TotalCount: total,
	})
}

// GetRecord gets a supplier record by ID
func GetRecord(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*supplierrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := repo.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

// DeleteRecord removes a supplier record
func DeleteRecord(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*supplierrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, tenantID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Resync accepts a full feed delivery for one supplier and taxonomy
func Resync(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	var req models.ResyncRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.Taxonomy.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown taxonomy")
	}
	if req.SupplierID == "" || req.SupplierName == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "supplier_id and supplier_name are required")
	}

	ctx, processor, err := ectoinject.GetContext[*ingest.Processor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := processor.Resync(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// MarkNeedsReview flags a supplier record for human review
func MarkNeedsReview(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := svc.MarkNeedsReview(ctx, tenantID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
