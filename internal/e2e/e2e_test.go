package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bluecrumb/recipecost/internal/authorization"
	"github.com/bluecrumb/recipecost/internal/autosave"
	"github.com/bluecrumb/recipecost/internal/catalog"
	"github.com/bluecrumb/recipecost/internal/clock"
	"github.com/bluecrumb/recipecost/internal/config"
	"github.com/bluecrumb/recipecost/internal/migration"
	"github.com/bluecrumb/recipecost/internal/observability"
	"github.com/bluecrumb/recipecost/internal/providers/commerce"
	"github.com/bluecrumb/recipecost/internal/ratelimit"
	"github.com/bluecrumb/recipecost/internal/recipe"
	"github.com/bluecrumb/recipecost/internal/server"
	"github.com/bluecrumb/recipecost/internal/shoppinglist"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type testEnv struct {
	app     *fx.App
	server  *server.Server
	db      *gorm.DB
	baseURL string
	httpSrv *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	setDefaultEnv()

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func setDefaultEnv() {
	os.Setenv("OTEL_ENABLED", "false")
	os.Setenv("SEED_CATALOG", "true")
	os.Setenv("RATE_LIMIT_ENABLED", "false")
	os.Setenv("API_TOKEN_HASH", "")
	os.Setenv("READ_TOKEN_HASH", "")
}

func startEnv() (*testEnv, error) {
	var (
		srv    *server.Server
		dbConn *gorm.DB
		cfg    config.Config
	)

	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(func() (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		}),
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		authorization.Module,
		catalog.Module,
		recipe.Module,
		shoppinglist.Module,
		autosave.Module,
		commerce.Module,
		ratelimit.Module,
		migration.Module,
		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Populate(&srv, &dbConn, &cfg),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	httpSrv := httptest.NewServer(srv.Engine())

	return &testEnv{
		app:     app,
		server:  srv,
		db:      dbConn,
		baseURL: httpSrv.URL,
		httpSrv: httpSrv,
	}, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.app.Stop(ctx)
	}
}

func doRequest(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, env.baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, raw
}

func decodeData(t *testing.T, raw []byte, out any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, raw)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, _ := doRequest(t, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_StarterCatalogSeeded(t *testing.T) {
	resp, raw := doRequest(t, http.MethodGet, "/v1/catalog?kind=ingredient", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, raw)
	}

	var entries []struct {
		Kind string `json:"kind"`
		Slug string `json:"slug"`
	}
	decodeData(t, raw, &entries)

	if len(entries) == 0 {
		t.Fatal("expected seeded ingredients")
	}
	for _, entry := range entries {
		if entry.Kind != "ingredient" {
			t.Fatalf("expected only ingredients, got %q", entry.Kind)
		}
	}
}

type catalogEntryView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

type recipeView struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Servings       int     `json:"servings"`
	TotalCost      float64 `json:"total_cost"`
	CostPerServing float64 `json:"cost_per_serving"`
	Ingredients    []struct {
		ID     string  `json:"id"`
		TermID *string `json:"termId"`
		Cost   float64 `json:"cost"`
	} `json:"ingredients"`
	PriceChanges []struct {
		TermID   string  `json:"termId"`
		OldPrice float64 `json:"old_price"`
		NewPrice float64 `json:"new_price"`
	} `json:"price_changes"`
}

func createCatalogEntry(t *testing.T, body string) catalogEntryView {
	t.Helper()

	resp, raw := doRequest(t, http.MethodPost, "/v1/catalog", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create catalog entry: status %d: %s", resp.StatusCode, raw)
	}
	var entry catalogEntryView
	decodeData(t, raw, &entry)
	return entry
}

func TestE2E_RecipeCostingFlow(t *testing.T) {
	cream := createCatalogEntry(t, `{"kind":"ingredient","name":"Cream e2e","price":4.00,"quantity":1000,"unit":"ml"}`)
	box := createCatalogEntry(t, `{"kind":"packaging","name":"Box e2e","price":5.00,"quantity":10,"unit":"pieces"}`)

	recipeBody := fmt.Sprintf(`{
		"title": "Panna cotta e2e",
		"servings": 2,
		"ingredients": [{"id":"", "termId":%q, "name":"Cream e2e", "recipeAmount":"500"}],
		"packaging": [{"id":"", "termId":%q, "name":"Box e2e", "recipeAmount":"1"}]
	}`, cream.ID, box.ID)

	resp, raw := doRequest(t, http.MethodPost, "/v1/recipes", recipeBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create recipe: status %d: %s", resp.StatusCode, raw)
	}

	var created recipeView
	decodeData(t, raw, &created)

	if created.TotalCost != 2.5 {
		t.Fatalf("expected total cost 2.5, got %v", created.TotalCost)
	}
	if created.CostPerServing != 1.25 {
		t.Fatalf("expected cost per serving 1.25, got %v", created.CostPerServing)
	}
	if len(created.Ingredients) != 1 || created.Ingredients[0].Cost != 2.0 {
		t.Fatalf("expected ingredient line cost 2.0, got %+v", created.Ingredients)
	}

	// A later price change shows up as advisory drift on read.
	resp, raw = doRequest(t, http.MethodPatch, "/v1/catalog/"+cream.ID, `{"price":5.00}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update catalog price: status %d: %s", resp.StatusCode, raw)
	}

	resp, raw = doRequest(t, http.MethodGet, "/v1/recipes/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get recipe: status %d: %s", resp.StatusCode, raw)
	}

	var fetched recipeView
	decodeData(t, raw, &fetched)

	if fetched.TotalCost != 2.5 {
		t.Fatalf("saved total must not change on read, got %v", fetched.TotalCost)
	}
	if len(fetched.PriceChanges) != 1 {
		t.Fatalf("expected one price change, got %+v", fetched.PriceChanges)
	}
	if fetched.PriceChanges[0].OldPrice != 4.0 || fetched.PriceChanges[0].NewPrice != 5.0 {
		t.Fatalf("expected price change 4 -> 5, got %+v", fetched.PriceChanges[0])
	}

	// Shopping list aggregates the live catalog.
	listBody := fmt.Sprintf(`{"selections":[{"recipe_id":%q,"batches":2}]}`, created.ID)
	resp, raw = doRequest(t, http.MethodPost, "/v1/shopping-list", listBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("build shopping list: status %d: %s", resp.StatusCode, raw)
	}

	var list struct {
		Items []struct {
			TermID           string  `json:"termId"`
			RequiredQuantity float64 `json:"required_quantity"`
			PackagesToBuy    *int    `json:"packages_to_buy"`
		} `json:"items"`
	}
	decodeData(t, raw, &list)

	// Only ingredient lines feed the list; packaging stays out of it.
	if len(list.Items) != 1 {
		t.Fatalf("expected one aggregated item, got %+v", list.Items)
	}
	if list.Items[0].TermID != cream.ID {
		t.Fatalf("expected cream entry, got %+v", list.Items[0])
	}
	if list.Items[0].RequiredQuantity != 1000 {
		t.Fatalf("expected 1000 required for cream, got %v", list.Items[0].RequiredQuantity)
	}
}

func TestE2E_DraftLifecycle(t *testing.T) {
	resp, raw := doRequest(t, http.MethodPost, "/v1/recipes", `{"title":"Draft host e2e","servings":1}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create recipe: status %d: %s", resp.StatusCode, raw)
	}
	var created recipeView
	decodeData(t, raw, &created)

	resp, raw = doRequest(t, http.MethodPut, "/v1/recipes/"+created.ID+"/draft", `{"title":"Draft host e2e","servings":3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put draft: status %d: %s", resp.StatusCode, raw)
	}

	resp, raw = doRequest(t, http.MethodGet, "/v1/recipes/"+created.ID+"/draft", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get draft: status %d: %s", resp.StatusCode, raw)
	}
	var draft struct {
		Servings int `json:"servings"`
	}
	decodeData(t, raw, &draft)
	if draft.Servings != 3 {
		t.Fatalf("expected draft servings 3, got %d", draft.Servings)
	}

	resp, _ = doRequest(t, http.MethodDelete, "/v1/recipes/"+created.ID+"/draft", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete draft: status %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, http.MethodGet, "/v1/recipes/"+created.ID+"/draft", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after draft delete, got %d", resp.StatusCode)
	}
}

func TestE2E_CommerceDisabledReturns503(t *testing.T) {
	resp, _ := doRequest(t, http.MethodGet, "/v1/cogs?product_id=7", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with commerce disabled, got %d", resp.StatusCode)
	}
}
