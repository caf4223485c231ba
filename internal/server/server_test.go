package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bluecrumb/recipecost/internal/auth/token"
	"github.com/bluecrumb/recipecost/internal/authorization"
	"github.com/bluecrumb/recipecost/internal/autosave"
	catalogdomain "github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/bluecrumb/recipecost/internal/clock"
	"github.com/bluecrumb/recipecost/internal/config"
	"github.com/bluecrumb/recipecost/internal/providers/commerce"
	recipedomain "github.com/bluecrumb/recipecost/internal/recipe/domain"
	shoppingdomain "github.com/bluecrumb/recipecost/internal/shoppinglist/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeCatalogService struct {
	createCalls int
	lastCreate  catalogdomain.CreateRequest
	createErr   error
}

func (f *fakeCatalogService) Create(ctx context.Context, req catalogdomain.CreateRequest) (*catalogdomain.Response, error) {
	f.createCalls++
	f.lastCreate = req
	_ = ctx
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &catalogdomain.Response{
		ID:   "1",
		Kind: req.Kind,
		Name: req.Name,
	}, nil
}

func (f *fakeCatalogService) List(ctx context.Context, req catalogdomain.ListRequest) ([]catalogdomain.Response, error) {
	_ = ctx
	_ = req
	return nil, nil
}

func (f *fakeCatalogService) Get(ctx context.Context, id string) (*catalogdomain.Response, error) {
	_ = ctx
	if id == "missing" {
		return nil, catalogdomain.ErrNotFound
	}
	return &catalogdomain.Response{ID: id}, nil
}

func (f *fakeCatalogService) Update(ctx context.Context, req catalogdomain.UpdateRequest) (*catalogdomain.Response, error) {
	_ = ctx
	return &catalogdomain.Response{ID: req.ID}, nil
}

func (f *fakeCatalogService) Delete(ctx context.Context, id string) error {
	_ = ctx
	_ = id
	return nil
}

func (f *fakeCatalogService) Snapshot(ctx context.Context, kind catalogdomain.Kind, ids []string) (map[string]catalogdomain.Entry, error) {
	_ = ctx
	_ = kind
	_ = ids
	return map[string]catalogdomain.Entry{}, nil
}

type fakeRecipeService struct {
	updateCalls int
	lastID      string
	lastSave    recipedomain.SaveRequest
	getResp     *recipedomain.Response
}

func (f *fakeRecipeService) Create(ctx context.Context, req recipedomain.SaveRequest) (*recipedomain.Response, error) {
	_ = ctx
	if req.Title == "" {
		return nil, recipedomain.ErrInvalidTitle
	}
	return &recipedomain.Response{ID: "10", Title: req.Title}, nil
}

func (f *fakeRecipeService) List(ctx context.Context, req recipedomain.ListRequest) ([]recipedomain.Response, error) {
	_ = ctx
	_ = req
	return nil, nil
}

func (f *fakeRecipeService) Get(ctx context.Context, id string) (*recipedomain.Response, error) {
	_ = ctx
	if f.getResp != nil {
		return f.getResp, nil
	}
	if id == "missing" {
		return nil, recipedomain.ErrNotFound
	}
	return &recipedomain.Response{ID: id}, nil
}

func (f *fakeRecipeService) Update(ctx context.Context, id string, req recipedomain.SaveRequest) (*recipedomain.Response, error) {
	f.updateCalls++
	f.lastID = id
	f.lastSave = req
	_ = ctx
	return &recipedomain.Response{ID: id, Title: req.Title}, nil
}

func (f *fakeRecipeService) Delete(ctx context.Context, id string) error {
	_ = ctx
	_ = id
	return nil
}

type fakeShoppingService struct {
	buildErr error
}

func (f *fakeShoppingService) Build(ctx context.Context, req shoppingdomain.BuildRequest) (*shoppingdomain.List, error) {
	_ = ctx
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	if len(req.Selections) == 0 {
		return nil, shoppingdomain.ErrNoSelection
	}
	return &shoppingdomain.List{Items: []shoppingdomain.Item{{Name: "flour"}}}, nil
}

func (f *fakeShoppingService) ExportPDF(ctx context.Context, req shoppingdomain.BuildRequest) (io.Reader, error) {
	_ = ctx
	_ = req
	return strings.NewReader("%PDF-1.7"), nil
}

type fakeCommerceService struct {
	assignCalls int
	lastAmount  float64
}

func (f *fakeCommerceService) GetCost(ctx context.Context, productID, variationID int64) (*commerce.Cost, error) {
	_ = ctx
	return &commerce.Cost{ProductID: productID, VariationID: variationID, Amount: 2.5}, nil
}

func (f *fakeCommerceService) AssignCost(ctx context.Context, productID, variationID int64, amount float64) (*commerce.Cost, error) {
	f.assignCalls++
	f.lastAmount = amount
	_ = ctx
	if amount < 0 {
		return nil, commerce.ErrInvalidAmount
	}
	return &commerce.Cost{ProductID: productID, VariationID: variationID, Amount: amount}, nil
}

type fakeAuthzService struct {
	denied map[string]bool
}

func (f *fakeAuthzService) Authorize(ctx context.Context, subject, object, action string) error {
	_ = ctx
	_ = subject
	if f.denied[object+":"+action] {
		return authorization.ErrForbidden
	}
	return nil
}

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	return &Server{
		cfg:         config.Config{},
		log:         zap.NewNop(),
		authzSvc:    &fakeAuthzService{},
		catalogSvc:  &fakeCatalogService{},
		recipeSvc:   &fakeRecipeService{},
		shoppingSvc: &fakeShoppingService{},
		commerceSvc: &fakeCommerceService{},
		drafts:      autosave.NewStore(autosave.Config{}, clock.NewSystemClock()),
	}
}

func newTestRouter() *gin.Engine {
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateCatalogEntryTrimsFields(t *testing.T) {
	srv := newTestServer()
	catalogSvc := srv.catalogSvc.(*fakeCatalogService)

	router := newTestRouter()
	router.POST("/v1/catalog", srv.CreateCatalogEntry)

	resp := doJSON(t, router, http.MethodPost, "/v1/catalog", `{"kind":" ingredient ","name":"  Flour ","price":3.5,"quantity":1000,"unit":" g "}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if catalogSvc.createCalls != 1 {
		t.Fatalf("expected one create call, got %d", catalogSvc.createCalls)
	}
	if catalogSvc.lastCreate.Name != "Flour" || catalogSvc.lastCreate.Unit != "g" {
		t.Fatalf("expected trimmed fields, got %+v", catalogSvc.lastCreate)
	}
	if catalogSvc.lastCreate.Kind != catalogdomain.KindIngredient {
		t.Fatalf("expected ingredient kind, got %q", catalogSvc.lastCreate.Kind)
	}
}

func TestCreateCatalogEntryValidationErrorMapsTo400(t *testing.T) {
	srv := newTestServer()
	srv.catalogSvc.(*fakeCatalogService).createErr = catalogdomain.ErrInvalidName

	router := newTestRouter()
	router.POST("/v1/catalog", srv.CreateCatalogEntry)

	resp := doJSON(t, router, http.MethodPost, "/v1/catalog", `{"kind":"ingredient","name":""}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	var payload errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload.Error.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", payload.Error.Type)
	}
}

func TestGetCatalogEntryNotFoundMapsTo404(t *testing.T) {
	srv := newTestServer()

	router := newTestRouter()
	router.GET("/v1/catalog/:id", srv.GetCatalogEntryByID)

	resp := doJSON(t, router, http.MethodGet, "/v1/catalog/missing", "")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestDuplicateRecipeMapsTo409(t *testing.T) {
	_, payload := mapError(recipedomain.ErrDuplicateRecipe)
	if payload.Type != "conflict" {
		t.Fatalf("expected conflict, got %q", payload.Type)
	}
	status, _ := mapError(recipedomain.ErrDuplicateRecipe)
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
}

func TestCommerceUnavailableMapsTo502(t *testing.T) {
	status, payload := mapError(commerce.ErrUnavailable)
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if payload.Type != "upstream_unavailable" {
		t.Fatalf("expected upstream_unavailable, got %q", payload.Type)
	}
}

func TestUpdateRecipePassesBodyThrough(t *testing.T) {
	srv := newTestServer()
	recipeSvc := srv.recipeSvc.(*fakeRecipeService)

	router := newTestRouter()
	router.PUT("/v1/recipes/:id", srv.UpdateRecipe)

	resp := doJSON(t, router, http.MethodPut, "/v1/recipes/42", `{"title":" Brownies ","servings":8,"ingredients":[{"id":"a","name":"flour","recipeAmount":"200"}]}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if recipeSvc.updateCalls != 1 || recipeSvc.lastID != "42" {
		t.Fatalf("expected one update for id 42, got %d calls for %q", recipeSvc.updateCalls, recipeSvc.lastID)
	}
	if recipeSvc.lastSave.Title != "Brownies" {
		t.Fatalf("expected trimmed title, got %q", recipeSvc.lastSave.Title)
	}
	if len(recipeSvc.lastSave.Ingredients) != 1 || recipeSvc.lastSave.Ingredients[0].Name != "flour" {
		t.Fatalf("expected ingredient line to survive binding, got %+v", recipeSvc.lastSave.Ingredients)
	}
}

func TestRecipeDraftRoundTrip(t *testing.T) {
	srv := newTestServer()

	router := newTestRouter()
	router.PUT("/v1/recipes/:id/draft", srv.PutRecipeDraft)
	router.GET("/v1/recipes/:id/draft", srv.GetRecipeDraft)
	router.DELETE("/v1/recipes/:id/draft", srv.DeleteRecipeDraft)

	resp := doJSON(t, router, http.MethodPut, "/v1/recipes/7/draft", `{"title":"WIP","servings":2}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 on put, got %d", resp.Code)
	}

	resp = doJSON(t, router, http.MethodGet, "/v1/recipes/7/draft", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 on get, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "WIP") {
		t.Fatalf("expected draft title in body, got %s", resp.Body.String())
	}

	resp = doJSON(t, router, http.MethodDelete, "/v1/recipes/7/draft", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 on delete, got %d", resp.Code)
	}

	resp = doJSON(t, router, http.MethodGet, "/v1/recipes/7/draft", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", resp.Code)
	}
}

func TestBuildShoppingListEmptySelectionMapsTo400(t *testing.T) {
	srv := newTestServer()

	router := newTestRouter()
	router.POST("/v1/shopping-list", srv.BuildShoppingList)

	resp := doJSON(t, router, http.MethodPost, "/v1/shopping-list", `{"selections":[]}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestExportShoppingListPDFSetsHeaders(t *testing.T) {
	srv := newTestServer()

	router := newTestRouter()
	router.POST("/v1/shopping-list/export", srv.ExportShoppingListPDF)

	resp := doJSON(t, router, http.MethodPost, "/v1/shopping-list/export", `{"selections":[{"recipe_id":"1","batches":1}]}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got)
	}
	if !strings.HasPrefix(resp.Body.String(), "%PDF-") {
		t.Fatalf("expected pdf body, got %q", resp.Body.String()[:8])
	}
}

func TestAssignProductCostFromRecipe(t *testing.T) {
	srv := newTestServer()
	srv.recipeSvc.(*fakeRecipeService).getResp = &recipedomain.Response{ID: "9", CostPerServing: 1.75}
	commerceSvc := srv.commerceSvc.(*fakeCommerceService)

	router := newTestRouter()
	router.POST("/v1/cogs/assign", srv.AssignProductCost)

	resp := doJSON(t, router, http.MethodPost, "/v1/cogs/assign", `{"product_id":55,"recipe_id":"9"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if commerceSvc.assignCalls != 1 || commerceSvc.lastAmount != 1.75 {
		t.Fatalf("expected assign with 1.75, got %d calls with %v", commerceSvc.assignCalls, commerceSvc.lastAmount)
	}
}

func TestAssignProductCostRequiresAmountOrRecipe(t *testing.T) {
	srv := newTestServer()

	router := newTestRouter()
	router.POST("/v1/cogs/assign", srv.AssignProductCost)

	resp := doJSON(t, router, http.MethodPost, "/v1/cogs/assign", `{"product_id":55}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if srv.commerceSvc.(*fakeCommerceService).assignCalls != 0 {
		t.Fatal("expected no assign call without an amount source")
	}
}

func TestTokenRequiredMapsTokensToRoles(t *testing.T) {
	writeHash, err := token.Hash("write-token")
	if err != nil {
		t.Fatalf("hash write token: %v", err)
	}
	readHash, err := token.Hash("read-token")
	if err != nil {
		t.Fatalf("hash read token: %v", err)
	}

	srv := newTestServer()
	srv.cfg.APITokenHash = writeHash
	srv.cfg.ReadTokenHash = readHash

	router := newTestRouter()
	router.GET("/v1/whoami", srv.TokenRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(contextSubjectKey)})
	})

	cases := []struct {
		name       string
		authHeader string
		wantStatus int
		wantBody   string
	}{
		{name: "write token", authHeader: "Bearer write-token", wantStatus: http.StatusOK, wantBody: authorization.RoleWriter},
		{name: "read token", authHeader: "Bearer read-token", wantStatus: http.StatusOK, wantBody: authorization.RoleReader},
		{name: "wrong token", authHeader: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, resp.Code)
			}
			if tc.wantBody != "" && !strings.Contains(resp.Body.String(), tc.wantBody) {
				t.Fatalf("expected body to contain %q, got %s", tc.wantBody, resp.Body.String())
			}
		})
	}
}

func TestRequireAccessDeniedMapsTo403(t *testing.T) {
	srv := newTestServer()
	srv.authzSvc = &fakeAuthzService{denied: map[string]bool{"recipe:write": true}}

	router := newTestRouter()
	router.POST("/v1/recipes", func(c *gin.Context) {
		c.Set(contextSubjectKey, authorization.RoleReader)
		c.Next()
	}, srv.requireAccess(authorization.ObjectRecipe, authorization.ActionWrite), srv.CreateRecipe)

	resp := doJSON(t, router, http.MethodPost, "/v1/recipes", `{"title":"Cake","servings":4}`)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}
