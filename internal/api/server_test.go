package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"menuops/internal/config"
	"menuops/internal/dashboard"
	"menuops/internal/events"
	"menuops/internal/linker"
	"menuops/internal/models"
	"menuops/internal/prep"
	"menuops/internal/pricing"
	"menuops/internal/store"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestServer(t *testing.T, secret string) (*Server, *store.Stores) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	nop := zerolog.Nop()
	bus := events.NewBus(nop)
	stores := store.New(store.NewMemoryKV(), bus)
	agg := prep.New(config.Default().Prep, nil, nop)
	rec := dashboard.New(stores, agg, time.Hour, nil, nop)
	t.Cleanup(rec.Stop)

	s := NewServer(Deps{
		Stores:    stores,
		Linker:    linker.New(stores, linker.Options{LaborRatePerHour: 15, FoodCostTarget: 0.30}, nop),
		Pricing:   pricing.NewComparator(stores, 1000, nop),
		Prep:      agg,
		Dashboard: rec,
		JWTSecret: secret,
		Log:       nop,
	})
	return s, stores
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

var autumnMenu = models.MenuData{
	Menu: models.Menu{Name: "Autumn"},
	Items: []models.MenuItem{
		{ID: "i1", Name: "Carrot Soup", Price: 12, ProjectedCovers: 20, Allergens: []string{"dairy"}, Description: "Roasted carrots"},
		{ID: "i2", Name: "Mystery Tart", Price: 9},
	},
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "")
	w := doJSON(t, s, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestMenuRoundTrip(t *testing.T) {
	s, _ := newTestServer(t, "")

	w := doJSON(t, s, "PUT", "/api/v1/menu", autumnMenu)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, "GET", "/api/v1/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.MenuData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Items, 2)

	w = doJSON(t, s, "PUT", "/api/v1/menu", models.MenuData{Items: []models.MenuItem{{ID: "x"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, "PUT", "/api/v1/project", map[string]string{"projectId": "winter"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, s, "GET", "/api/v1/menu", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Empty(t, got.Items)
}

func TestStubLifecycle(t *testing.T) {
	s, _ := newTestServer(t, "")
	require.Equal(t, http.StatusOK, doJSON(t, s, "PUT", "/api/v1/menu", autumnMenu).Code)

	w := doJSON(t, s, "POST", "/api/v1/menu/items/i1/stub", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var stub models.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stub))
	assert.True(t, stub.IsStub)
	assert.Equal(t, "i1", stub.MenuItemID)

	assert.Equal(t, http.StatusConflict, doJSON(t, s, "POST", "/api/v1/menu/items/i1/stub", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, s, "POST", "/api/v1/menu/items/nope/stub", nil).Code)

	w = doJSON(t, s, "GET", "/api/v1/menu/items/i1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.RecipeStatusInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.RecipeStatusStub, status.Status)

	assert.Equal(t, http.StatusOK, doJSON(t, s, "GET", "/api/v1/menu/items/i1/recipe", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, s, "GET", "/api/v1/menu/items/i1/cost", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, s, "GET", "/api/v1/menu/items/i2/cost", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, s, "GET", "/api/v1/menu/items/i2/recipe", nil).Code)

	assert.Equal(t, http.StatusNoContent, doJSON(t, s, "POST", "/api/v1/menu/items/i1/unlink", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, s, "GET", "/api/v1/recipes/"+stub.ID, nil).Code)
}

func TestLinkAndSync(t *testing.T) {
	s, _ := newTestServer(t, "")
	require.Equal(t, http.StatusOK, doJSON(t, s, "PUT", "/api/v1/menu", autumnMenu).Code)

	assert.Equal(t, http.StatusNotFound, doJSON(t, s, "POST", "/api/v1/menu/items/i1/link", map[string]string{"recipeId": "missing"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, s, "POST", "/api/v1/menu/items/i1/link", map[string]string{}).Code)

	recipe := models.Recipe{ID: "r1", Title: "Carrot Soup", Servings: 4,
		Ingredients:  []models.Ingredient{{Name: "Carrot", Amount: "2", Unit: "lb"}},
		Instructions: []string{"Roast"}}
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/api/v1/recipes", recipe).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/api/v1/menu/items/i1/link", map[string]string{"recipeId": "r1"}).Code)

	w := doJSON(t, s, "POST", "/api/v1/menu/links/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"created":1}`, w.Body.String())

	w = doJSON(t, s, "GET", "/api/v1/menu/statuses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statuses map[string]models.RecipeStatusInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	assert.Equal(t, models.RecipeStatusComplete, statuses["i1"].Status)
	assert.Equal(t, models.RecipeStatusStub, statuses["i2"].Status)

	assert.Equal(t, http.StatusNoContent, doJSON(t, s, "DELETE", "/api/v1/menu/items/i2", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, s, "DELETE", "/api/v1/menu/items/i2", nil).Code)
}

func TestVendorEndpoints(t *testing.T) {
	s, _ := newTestServer(t, "")
	require.Equal(t, http.StatusOK, doJSON(t, s, "PUT", "/api/v1/vendors", []models.Vendor{{ID: "v1", Name: "Sysco"}, {ID: "v2", Name: "Farm"}}).Code)

	for _, conn := range []models.VendorIngredientConnection{
		{IngredientID: "carrot", VendorID: "v1", Price: 2, Unit: "lb"},
		{IngredientID: "carrot", VendorID: "v2", Price: 1, Unit: "lb"},
	} {
		require.Equal(t, http.StatusOK, doJSON(t, s, "PUT", "/api/v1/connections", conn).Code)
	}
	assert.Equal(t, http.StatusBadRequest, doJSON(t, s, "PUT", "/api/v1/connections", models.VendorIngredientConnection{VendorID: "v1"}).Code)

	w := doJSON(t, s, "GET", "/api/v1/ingredients/carrot/vendors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cmp pricing.Comparison
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cmp))
	assert.Equal(t, "50.0", cmp.SavingsPercent)
	assert.Equal(t, "Farm", cmp.BestVendor.VendorName)

	w = doJSON(t, s, "POST", "/api/v1/vendors/mix", map[string]interface{}{
		"ingredients": []map[string]interface{}{{"ingredientId": "carrot", "quantity": 4}, {"ingredientId": "leek"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var mix pricing.VendorMix
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mix))
	assert.Equal(t, 4.0, mix.TotalCost)
	assert.Equal(t, []string{"leek"}, mix.Unsourced)

	require.Equal(t, http.StatusOK, doJSON(t, s, "PUT", "/api/v1/connections", models.VendorIngredientConnection{IngredientID: "carrot", VendorID: "v2", Price: 1.5, Unit: "lb"}).Code)
	w = doJSON(t, s, "GET", "/api/v1/ingredients/carrot/trends?vendor=v2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trend pricing.Trend
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trend))
	assert.Equal(t, pricing.TrendIncreasing, trend.Direction)

	assert.Equal(t, http.StatusCreated, doJSON(t, s, "POST", "/api/v1/price-changes", models.PriceChange{IngredientID: "carrot", VendorID: "v1", OldPrice: 2, NewPrice: 1}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, s, "POST", "/api/v1/price-changes", models.PriceChange{IngredientID: "carrot"}).Code)
}

func TestImportPriceSheet(t *testing.T) {
	s, stores := newTestServer(t, "")
	sheet := `<table><tr><th>Item</th><th>Unit</th><th>Price</th></tr><tr><td>Leek</td><td>lb</td><td>$2.40</td></tr></table>`

	req, _ := http.NewRequest("POST", "/api/v1/vendors/v1/price-sheet", strings.NewReader(sheet))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	conns, err := stores.Connections.ForIngredient(context.Background(), "leek")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, 2.4, conns[0].Price)

	req, _ = http.NewRequest("POST", "/api/v1/vendors/v1/price-sheet", strings.NewReader("<p>none</p>"))
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func seedLinkedMenu(t *testing.T, s *Server) {
	t.Helper()
	require.Equal(t, http.StatusOK, doJSON(t, s, "PUT", "/api/v1/menu", models.MenuData{
		Items: []models.MenuItem{{ID: "i1", Name: "Soup", ProjectedCovers: 20, Allergens: []string{"dairy"}, Description: "Hot"}},
	}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/api/v1/recipes", models.Recipe{
		ID: "r1", Title: "Carrot Soup", Servings: 4,
		Ingredients:  []models.Ingredient{{Name: "Carrot", Amount: "2", Unit: "lb"}},
		Instructions: []string{"Roast"},
	}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/api/v1/menu/items/i1/link", map[string]string{"recipeId": "r1"}).Code)
}

func TestReports(t *testing.T) {
	s, _ := newTestServer(t, "")
	seedLinkedMenu(t, s)
	require.Equal(t, http.StatusOK, doJSON(t, s, "PUT", "/api/v1/connections", models.VendorIngredientConnection{IngredientID: "carrot", VendorID: "v1", Price: 1, Unit: "lb"}).Code)

	w := doJSON(t, s, "GET", "/api/v1/prep-plan?date=2026-10-24", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plan models.PrepPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	require.Len(t, plan.Shopping, 1)
	assert.Equal(t, 10.0, plan.Shopping[0].Quantity)
	assert.NotNil(t, plan.Warnings)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, s, "GET", "/api/v1/prep-plan?date=tomorrow", nil).Code)

	w = doJSON(t, s, "GET", "/api/v1/prep-plan/xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows("Vendors")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	f.Close()

	w = doJSON(t, s, "GET", "/api/v1/foh-briefing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sheet models.FOHBriefing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sheet))
	assert.Equal(t, []string{"Hot"}, sheet.Dishes[0].TalkingPoints)

	w = doJSON(t, s, "GET", "/api/v1/dashboard?force=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 100.0, snap.Completeness)

	w = doJSON(t, s, "GET", "/api/v1/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var metrics struct {
		Projects map[string]struct {
			Completeness float64 `json:"completeness"`
			Linked       int     `json:"linked"`
		} `json:"projects"`
		Timings map[string]int64 `json:"last_generation_ms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, 100.0, metrics.Projects[store.DefaultProjectID].Completeness)
	assert.Equal(t, 1, metrics.Projects[store.DefaultProjectID].Linked)
	assert.Contains(t, metrics.Timings, "prep_plan")
	assert.Contains(t, metrics.Timings, "foh_briefing")
}

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "chef"})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	s, _ := newTestServer(t, "s3cret")

	assert.Equal(t, http.StatusOK, doJSON(t, s, "GET", "/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, s, "GET", "/api/v1/menu", nil).Code)

	for token, want := range map[string]int{
		signedToken(t, "s3cret"): http.StatusOK,
		signedToken(t, "other"):  http.StatusUnauthorized,
		"garbage":                http.StatusUnauthorized,
	} {
		req, _ := http.NewRequest("GET", "/api/v1/menu", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}

	w := doJSON(t, s, "GET", "/api/v1/project?token="+signedToken(t, "s3cret"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboardFeed(t *testing.T) {
	s, _ := newTestServer(t, "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/dashboard"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first dashboard.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Zero(t, first.Revision)

	s.dashboard.Refresh(context.Background(), true)
	var next dashboard.Snapshot
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, uint64(1), next.Revision)
	assert.Equal(t, store.DefaultProjectID, next.ProjectID)
}
