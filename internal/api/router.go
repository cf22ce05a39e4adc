package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "observer/internal/api/context"
	"observer/internal/api/handlers"
	"observer/internal/api/middleware"
)

type Dependencies struct {
	KeyHandler     *handlers.KeyHandler
	NotifyHandler  *handlers.NotifyHandler
	HealthHandler  *handlers.HealthHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))

	authMid := deps.AuthMiddleware

	// Credential pool management
	router.GET("/api/v1/keys", chain(deps.KeyHandler.List, authMid.Handle))
	router.POST("/api/v1/keys", chain(deps.KeyHandler.Add, authMid.Handle))
	router.PUT("/api/v1/keys", chain(deps.KeyHandler.SetLegacy, authMid.Handle))
	router.DELETE("/api/v1/keys", chain(deps.KeyHandler.DeleteLegacy, authMid.Handle))
	router.PATCH("/api/v1/keys/:key_id", chain(deps.KeyHandler.Update, authMid.Handle))
	router.DELETE("/api/v1/keys/:key_id", chain(deps.KeyHandler.Delete, authMid.Handle))
	router.PATCH("/api/v1/keys/:key_id/priority", chain(deps.KeyHandler.Reorder, authMid.Handle))

	// Credit usage refresh (pool-wide, or one key)
	router.POST("/api/v1/credit/refresh", chain(deps.KeyHandler.Refresh, authMid.Handle))
	router.POST("/api/v1/credit/refresh/:key_id", chain(deps.KeyHandler.Refresh, authMid.Handle))

	// Notifications
	router.POST("/api/v1/notifications/test-email", chain(deps.NotifyHandler.SendTestEmail, authMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
