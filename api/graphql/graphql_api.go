package graphql

import (
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"

	graphqlpkg "launcher.GO/graphql"
	"launcher.GO/graphqlserver"
	catalogService "launcher.GO/service/catalog"
)

// RegisterGraphQLRoutes mounts /graphql and /playground over the registry service.
func RegisterGraphQLRoutes(e *echo.Echo, svc *catalogService.Service) {
	schema, err := graphqlserver.NewSchema(svc)
	if err != nil {
		panic("graphql schema: " + err.Error())
	}
	registerRoutes(e, schema, svc)
}

// RegisterGraphQLRoutesWithSchema registers /graphql with a prebuilt schema.
func RegisterGraphQLRoutesWithSchema(e *echo.Echo, schema *graphql.Schema, svc *catalogService.Service) {
	registerRoutes(e, schema, svc)
}

func registerRoutes(e *echo.Echo, schema *graphql.Schema, svc *catalogService.Service) {
	h := serviceContextMiddleware(svc, graphqlserver.Handler(schema))
	e.POST("/graphql", echo.WrapHandler(h))
	e.GET("/graphql", echo.WrapHandler(h))
	e.GET("/playground", echo.WrapHandler(playgroundHandler()))
}

func serviceContextMiddleware(svc *catalogService.Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(graphqlpkg.WithService(r.Context(), svc)))
	})
}

func playgroundHandler() http.Handler {
	html := `<!DOCTYPE html>
<html>
<head>
	<title>Launcher GraphQL Playground</title>
	<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/css/index.css"/>
</head>
<body>
	<div id="root"/>
	<script src="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/js/middleware.js"></script>
	<script>window.addEventListener('load', function() {
		GraphQLPlayground.init(document.getElementById('root'), { endpoint: '/graphql' });
	})</script>
</body>
</html>`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	})
}
