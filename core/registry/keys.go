package registry

// Core keys for GlobalRegistry and the per-request echo context.
const (
	// Per-request keys (echo.Context)
	KeyRequestStart = "request_start"

	// Extension registries (cmd, cron, api, graphql) stored in GlobalRegistry
	KeyRegistryCmd     = "registry:cmd"
	KeyRegistryCron    = "registry:cron"
	KeyRegistryAPI     = "registry:api"
	KeyRegistryRoutes  = "registry:routes"
	KeyRegistryGraphQL = "registry:graphql"
)
