package masterrecord

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/laurel/internal/repositories/masterrecord"
	"github.com/Ramsey-B/laurel/internal/repositories/supplierrecord"
	"github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// Register registers master record routes
func Register(g *echo.Group) {
	g.GET("", ListMasters)
	g.GET("/:id", GetMaster)
	g.POST("/:id/activate", ActivateMaster)
	g.POST("/:id/deactivate", DeactivateMaster)
}

// ListMasters lists master records for a taxonomy
func ListMasters(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	taxonomy := models.Taxonomy(c.QueryParam("taxonomy"))
	if !taxonomy.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "taxonomy query parameter is required")
	}

	activeOnly := c.QueryParam("active") == "true"
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, repo, err := ectoinject.GetContext[*masterrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, total, err := repo.List(ctx, tenantID, taxonomy, activeOnly, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.MasterRecordListResponse{
		Items:      records,
		TotalCount: total,
	})
}

// GetMaster gets a master record with its derived mapping stats
func GetMaster(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*masterrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	master, err := repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if master == nil {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("master record %s not found", id))
	}

	ctx, supplierRepo, err := ectoinject.GetContext[*supplierrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	mappedCount, supplierSet, err := supplierRepo.CountByMaster(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.MasterRecordDetail{
		MasterRecord: *master,
		MappedCount:  mappedCount,
		SupplierSet:  supplierSet,
	})
}

// ActivateMaster marks a master record as active
func ActivateMaster(c echo.Context) error {
	return setActive(c, true)
}

// DeactivateMaster marks a master record as inactive. Existing mappings are
// untouched; the record just stops being offered for new matches downstream.
func DeactivateMaster(c echo.Context) error {
	return setActive(c, false)
}

func setActive(c echo.Context, active bool) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*masterrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.SetActive(ctx, tenantID, c.Param("id"), active); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
