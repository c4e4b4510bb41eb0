// Package custom shows the extension points: blank-import it from a main
// package and its init registers a GraphQL extension, a CLI command and
// an HTTP route.
package custom

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"launcher.GO/api"
	"launcher.GO/cmd"
	"launcher.GO/config"
	gqlpkg "launcher.GO/graphql"
	gqlregistry "launcher.GO/graphql/registry"
	entity "launcher.GO/model/entity"
	catalogService "launcher.GO/service/catalog"
)

// countEntries returns the number of entries per recognised category.
func countEntries(ctx context.Context, svc *catalogService.Service) (map[string]int, error) {
	doc, err := svc.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(entity.Categories))
	for _, c := range entity.Categories {
		counts[string(c)] = len(doc.Entries(c))
	}
	return counts, nil
}

func init() {
	// GraphQL extension: { _extension(name: "counts") }
	gqlregistry.Register("counts", func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
		svc := gqlpkg.ServiceFromContext(ctx)
		if svc == nil {
			return nil, fmt.Errorf("counts: no registry service in context")
		}
		return countEntries(ctx, svc)
	})

	// CLI command
	cmd.Register(&cobra.Command{
		Use:   "custom:version",
		Short: "Print the configured application name",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), cfg.AppName)
			return nil
		},
	})

	// HTTP route
	api.RegisterRoute(func(e *echo.Echo, svc *catalogService.Service) {
		e.GET(config.APIPrefix+"/counts", func(c echo.Context) error {
			counts, err := countEntries(c.Request().Context(), svc)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error while reading services"})
			}
			return c.JSON(http.StatusOK, counts)
		})
	})
}
