package server

import (
	"context"
	"net/http"

	"pantry/internal/handlers"
	applog "pantry/internal/log"
	"pantry/internal/metrics"
)

type route struct {
	pattern string
	handler http.HandlerFunc
}

var apiRoutes = []route{
	{"GET /api/conversions/{ingredient}/{unit}", handlers.ResolveConversion},
	{"POST /api/conversions", handlers.RegisterConversion},

	{"GET /api/ingredients", handlers.ListIngredients},
	{"POST /api/ingredients", handlers.CreateIngredient},
	{"PATCH /api/ingredients/{ingredient}", handlers.UpdateIngredient},
	{"DELETE /api/ingredients/{ingredient}", handlers.DeleteIngredient},

	{"GET /api/inventory", handlers.ListInventory},
	{"GET /api/inventory/{ingredient}", handlers.GetInventory},
	{"POST /api/inventory/{ingredient}/restock", handlers.Restock},

	{"GET /api/recipes", handlers.ListRecipes},
	{"POST /api/recipes", handlers.CreateRecipe},
	{"GET /api/recipes/cookable", handlers.CookableRecipes},
	{"DELETE /api/recipes/{recipe}", handlers.DeleteRecipe},
	{"GET /api/recipes/{recipe}/cookable", handlers.IsCookable},
	{"GET /api/recipes/{recipe}/missing", handlers.MissingIngredients},
	{"POST /api/recipes/{recipe}/cook", handlers.Cook},

	{"GET /api/shopping-list", handlers.ShoppingList},
	{"GET /api/expiring", handlers.ExpiringIngredients},
}

func newRouter(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("GET /healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.Handle("GET /metrics", m.Handler())
	applog.Debug(context.Background(), "route registered", "path", "/metrics")
	for _, rt := range apiRoutes {
		mux.Handle(rt.pattern, handlers.RequireUser(rt.handler))
		applog.Debug(context.Background(), "route registered", "path", rt.pattern, "protected", true)
	}
	return m.Middleware(mux)
}
