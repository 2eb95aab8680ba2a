package group

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/reconcile"
)

// Register registers group routes
func Register(g *echo.Group) {
	g.GET("", ListGroups)
}

// ListGroupsResponse is the response for listing candidate groups
type ListGroupsResponse struct {
	Taxonomy models.Taxonomy `json:"taxonomy"`
	Groups   []GroupView     `json:"groups"`
}

// GroupView is one candidate group with its advisory warnings
type GroupView struct {
	Key      string                  `json:"key"`
	Members  []models.SupplierRecord `json:"members"`
	Scores   map[string]int          `json:"scores"`
	Warnings []string                `json:"warnings,omitempty"`
}

// ListGroups computes and returns the candidate groups for a taxonomy.
// Groups are recomputed per request; nothing is persisted.
func ListGroups(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	taxonomy := models.Taxonomy(c.QueryParam("taxonomy"))
	if !taxonomy.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "taxonomy query parameter is required")
	}

	ctx, svc, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	groups, err := svc.ListGroups(ctx, tenantID, taxonomy)
	if err != nil {
		return err
	}

	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, GroupView{
			Key:      g.Key,
			Members:  g.Members,
			Scores:   g.Scores,
			Warnings: reconcile.DetectWarnings(g.Members),
		})
	}

	return c.JSON(http.StatusOK, ListGroupsResponse{
		Taxonomy: taxonomy,
		Groups:   views,
	})
}
