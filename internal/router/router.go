package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/skillgraph/internal/handler"
	"github.com/iliyamo/skillgraph/internal/middleware"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	GraphQL *handler.GraphQLHandler
}

// Register wires every route.  identify resolves the caller once per request
// for /graphql and /v1; limit is the token bucket placed in front of the
// endpoints that accept credentials or queries.
func Register(e *echo.Echo, h Handlers, identify, limit echo.MiddlewareFunc) {
	// Liveness for load balancers; no identity, no rate limit.
	e.GET("/healthz", h.Health.Health)

	gql := e.Group("/graphql", identify, limit)
	gql.POST("", h.GraphQL.Serve)
	gql.GET("", h.GraphQL.Serve)

	// Unauthenticated operations that mint tokens.
	v1 := e.Group("/v1", identify)
	auth := v1.Group("/auth", limit)
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)

	// Protected endpoints.
	v1.GET("/me", h.Auth.Me, middleware.RequireAuth())
}
