// Package routes maps URL patterns onto handlers.
package routes

import (
	"github.com/hojin-choi/oreum/internal/handler/api"
	"github.com/hojin-choi/oreum/internal/middleware"
	"github.com/hojin-choi/oreum/internal/router"
)

// Deps contains the handlers and middleware the route table wires together.
type Deps struct {
	Auth   *api.AuthHandler
	Orders *api.OrderHandler
	Carts  *api.CartHandler

	Authenticator *middleware.Authenticator
	AuthLimiter   *middleware.RateLimiter
}

// Register wires the API route table. Auth endpoints are public but
// rate-limited; everything else requires a bearer token, and the full
// listing and status updates additionally require the admin role.
func Register(r *router.Router, deps Deps) {
	limited := r.Group(deps.AuthLimiter.Middleware)
	limited.Post("/api/auth/register", deps.Auth.Register)
	limited.Post("/api/auth/login", deps.Auth.Login)

	authed := r.Group(deps.Authenticator.RequireAuth)

	authed.Post("/api/orders", deps.Orders.Create)
	authed.Get("/api/orders/my", deps.Orders.ListMine)
	authed.Get("/api/orders/{id}", deps.Orders.Get)
	authed.Put("/api/orders/{id}/cancel", deps.Orders.Cancel)
	authed.Put("/api/orders/{id}/payment-status", deps.Orders.UpdatePaymentStatus)

	authed.Get("/api/cart", deps.Carts.Get)
	authed.Post("/api/cart/items", deps.Carts.AddItem)
	authed.Delete("/api/cart/items/{productId}", deps.Carts.RemoveItem)
	authed.Delete("/api/cart", deps.Carts.Clear)

	admin := r.Group(deps.Authenticator.RequireAdmin)
	admin.Get("/api/orders/all", deps.Orders.ListAll)
	admin.Put("/api/orders/{id}/status", deps.Orders.UpdateStatus)
}
