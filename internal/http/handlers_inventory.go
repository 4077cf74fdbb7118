package http

import (
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"opsdesk/internal/audit"
	"opsdesk/internal/core"
	applog "opsdesk/internal/log"
)

type rawMaterialsData struct {
	Materials []core.RawMaterial
	LowStock  int
}

type recipesData struct {
	Recipes []core.Recipe
}

type recipeData struct {
	Recipe core.Recipe
	Cost   core.RecipeCost
}

func (s *Server) handleRawMaterials(w http.ResponseWriter, r *http.Request) {
	var data rawMaterialsData
	v := view{Title: "Raw materials", Nav: "inventory", Data: &data}
	materials, err := s.api.RawMaterials(r.Context())
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Raw material list load failed", err)
		v.Error = userMessage(err)
	}
	data.Materials = materials
	for _, m := range materials {
		if m.LowStock() {
			data.LowStock++
		}
	}
	s.render(w, r, nil, "raw_materials", v, nil)
}

func parseRawMaterial(f rawMaterialForm) (core.RawMaterial, error) {
	cost, err := core.ParseMoneyAllowZero(f.UnitCost)
	if err != nil {
		return core.RawMaterial{}, invalid(err)
	}
	m := core.RawMaterial{Name: f.Name, Unit: f.Unit, UnitCost: cost, Supplier: f.Supplier}
	if f.Stock != "" {
		if m.Stock, err = parseNumber("current stock", f.Stock); err != nil {
			return core.RawMaterial{}, err
		}
	}
	if f.MinStock != "" {
		if m.MinStock, err = parseNumber("minimum stock", f.MinStock); err != nil {
			return core.RawMaterial{}, err
		}
	}
	if err := m.Validate(); err != nil {
		return core.RawMaterial{}, invalid(err)
	}
	return m, nil
}

func (s *Server) handleCreateRawMaterial(w http.ResponseWriter, r *http.Request) {
	const back = "/inventory/raw-materials"
	var form rawMaterialForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, back, err)
		return
	}
	m, err := parseRawMaterial(form)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}
	created, err := s.api.CreateRawMaterial(r.Context(), m)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.record(r.Context(), audit.ActionCreate, audit.ResourceRawMaterial, created.ID,
		fmt.Sprintf("%s at %s per %s", m.Name, m.UnitCost.Format(s.cfg.CurrencySymbol), m.Unit))
	s.done(w, r, audit.ResourceRawMaterial, back, fmt.Sprintf("%s added", m.Name))
}

func (s *Server) handleDeleteRawMaterial(w http.ResponseWriter, r *http.Request) {
	const back = "/inventory/raw-materials"
	id := r.PathValue("id")
	if err := s.api.DeleteRawMaterial(r.Context(), id); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.record(r.Context(), audit.ActionDelete, audit.ResourceRawMaterial, id, "")
	s.done(w, r, audit.ResourceRawMaterial, back, "Raw material deleted")
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	var data recipesData
	v := view{Title: "Recipes", Nav: "inventory", Data: &data}
	recipes, err := s.api.Recipes(r.Context())
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Recipe list load failed", err)
		v.Error = userMessage(err)
	}
	data.Recipes = recipes
	s.render(w, r, nil, "recipes", v, nil)
}

// handleRecipe shows a recipe with the backend's cost breakdown.
func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	var data recipeData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Recipe, err = s.api.Recipe(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		data.Cost, err = s.api.RecipeCost(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).WarnContextErr(ctx, "Recipe load failed", err, applog.FieldResourceID, id)
		s.redirectAway(w, r, "/inventory/recipes", err)
		return
	}
	s.render(w, r, nil, "recipe", view{Title: data.Recipe.Name, Nav: "inventory", Data: &data}, nil)
}
