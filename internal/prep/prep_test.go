package prep

import (
	"context"
	"errors"
	"testing"
	"time"

	"menuops/internal/config"
	"menuops/internal/linker"
	"menuops/internal/models"
	"menuops/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

var testNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func newTestAggregator(t *testing.T, mutate func(*config.PrepConfig), writer TalkingPointWriter) *Aggregator {
	t.Helper()
	opts := config.Default().Prep
	if mutate != nil {
		mutate(&opts)
	}
	a := New(opts, writer, zerolog.Nop())
	a.now = func() time.Time { return testNow }
	return a
}

func soupInput() PlanInput {
	return PlanInput{
		Menu: models.Menu{ID: "m1", Name: "Autumn"},
		Items: []models.MenuItem{
			{ID: "i1", Name: "Soup", ProjectedCovers: 20, PrepStation: "Soup"},
		},
		Recipes: []models.Recipe{{
			ID:       "r1",
			Title:    "Carrot Soup",
			Servings: 4,
			Ingredients: []models.Ingredient{
				{Name: "Carrot", Amount: "2", Unit: "lb"},
			},
			Instructions: []string{"Simmer"},
		}},
		Links: models.LinkTable{"i1": {RecipeID: "r1"}},
	}
}

func TestGeneratePrepPlanScalesToCovers(t *testing.T) {
	a := newTestAggregator(t, nil, nil)
	plan := a.GeneratePrepPlan(soupInput())

	assert.Empty(t, plan.Warnings)
	require.Contains(t, plan.Stations, "Soup")
	task := plan.Stations["Soup"].Tasks[0]
	assert.Equal(t, 5.0, task.ScaleFactor)
	require.NotNil(t, task.Ingredients[0].Quantity)
	assert.Equal(t, 10.0, *task.Ingredients[0].Quantity)

	require.Len(t, plan.Shopping, 1)
	assert.Equal(t, models.ShoppingItem{Name: "Carrot", Quantity: 10, Unit: "lb", UsedBy: []string{"Soup"}}, plan.Shopping[0])
	assert.Equal(t, 1, plan.Summary.LinkedItems)
	assert.Equal(t, 20, plan.Summary.TotalCovers)
}

func TestGeneratePrepPlanMissingRecipe(t *testing.T) {
	a := newTestAggregator(t, nil, nil)
	in := soupInput()
	in.Items = append(in.Items, models.MenuItem{ID: "i2", Name: "Mystery Tart", ProjectedCovers: 10})

	plan := a.GeneratePrepPlan(in)
	require.Len(t, plan.Warnings, 1)
	assert.Equal(t, models.Warning{
		Source:  "prep",
		Type:    models.WarningMissingRecipe,
		Message: "Mystery Tart has no linked recipe",
		ItemID:  "i2",
		Name:    "Mystery Tart",
	}, plan.Warnings[0])
	assert.Equal(t, 1, plan.TaskCount())
	require.Len(t, plan.Items, 2)
	assert.Equal(t, models.RecipeStatusNoRecipe, plan.Items[1].RecipeStatus)
	assert.Equal(t, "General", plan.Items[1].Station)
}

func TestGeneratePrepPlanEmptyMenu(t *testing.T) {
	a := newTestAggregator(t, nil, nil)
	plan := a.GeneratePrepPlan(PlanInput{})
	assert.NotNil(t, plan.Stations)
	assert.Empty(t, plan.Stations)
	assert.Empty(t, plan.Shopping)
	assert.Empty(t, plan.Warnings)
}

func TestShoppingListKeepsUnitsApart(t *testing.T) {
	in := soupInput()
	in.Items = append(in.Items, models.MenuItem{ID: "i2", Name: "Glazed Carrots", ProjectedCovers: 2})
	in.Recipes = append(in.Recipes, models.Recipe{
		ID:       "r2",
		Title:    "Glazed Carrots",
		Servings: 1,
		Ingredients: []models.Ingredient{
			{Name: "carrot", Amount: "8", Unit: "oz"},
			{Name: "Butter", Amount: "1 1/2", Unit: "tbsp"},
			{Name: "Salt", Amount: "to taste"},
		},
	})
	in.Links["i2"] = models.MenuRecipeLink{RecipeID: "r2"}

	plan := newTestAggregator(t, nil, nil).GeneratePrepPlan(in)
	require.Len(t, plan.Shopping, 3)
	assert.Equal(t, "Butter", plan.Shopping[0].Name)
	assert.Equal(t, 3.0, plan.Shopping[0].Quantity)
	assert.Equal(t, "lb", plan.Shopping[1].Unit)
	assert.Equal(t, "oz", plan.Shopping[2].Unit)
	assert.Equal(t, 16.0, plan.Shopping[2].Quantity)
	assert.True(t, models.HasWarningType(plan.Warnings, models.WarningUnitMismatch))
	assert.True(t, models.HasWarningType(plan.Warnings, models.WarningUnparseableQuantity))

	// the unparseable line stays on its task without a quantity
	task := plan.Stations["General"].Tasks[0]
	assert.Nil(t, task.Ingredients[2].Quantity)
	assert.Equal(t, "to taste", task.Ingredients[2].Raw)

	merged := newTestAggregator(t, func(o *config.PrepConfig) { o.MergeUnits = true }, nil).GeneratePrepPlan(in)
	require.Len(t, merged.Shopping, 2)
	assert.Equal(t, "Carrot", merged.Shopping[1].Name)
	assert.Equal(t, 11.0, merged.Shopping[1].Quantity)
	assert.Equal(t, "lb", merged.Shopping[1].Unit)
	assert.ElementsMatch(t, []string{"Soup", "Glazed Carrots"}, merged.Shopping[1].UsedBy)
	assert.False(t, models.HasWarningType(merged.Warnings, models.WarningUnitMismatch))
}

func TestPriority(t *testing.T) {
	buckets := config.Default().Prep.LeadTimeBuckets
	testCases := []struct {
		hours float64
		want  int
	}{
		{-2, 5}, {4, 5}, {6, 4}, {8, 4}, {12, 3}, {24, 3}, {30, 2}, {48, 2}, {72, 1},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, Priority(tc.hours, buckets, 1), "hours %v", tc.hours)
	}
}

func TestTaskPriorityUsesServiceDateAndLeadTime(t *testing.T) {
	in := soupInput()
	in.ServiceDate = testNow.Add(30 * time.Hour)
	in.Recipes[0].LeadTimeHours = 24

	plan := newTestAggregator(t, nil, nil).GeneratePrepPlan(in)
	assert.Equal(t, 4, plan.Stations["Soup"].Tasks[0].Priority)

	in.ServiceDate = time.Time{}
	in.Recipes[0].LeadTimeHours = 0
	in.Recipes[0].PrepTime = 60
	plan = newTestAggregator(t, nil, nil).GeneratePrepPlan(in)
	assert.Equal(t, 3, plan.Stations["Soup"].Tasks[0].Priority)
}

func TestScaleFactor(t *testing.T) {
	assert.Equal(t, 1.0, ScaleFactor(0, 4))
	assert.Equal(t, 20.0, ScaleFactor(20, 0))
	assert.Equal(t, 2.5, ScaleFactor(10, 4))
}

func TestGeneratePrepPlanRecoversFromPanic(t *testing.T) {
	a := newTestAggregator(t, nil, nil)
	calls := 0
	a.now = func() time.Time {
		calls++
		if calls == 2 {
			panic("clock failure")
		}
		return testNow
	}
	in := soupInput()
	in.ServiceDate = testNow.Add(time.Hour)

	plan := a.GeneratePrepPlan(in)
	require.Len(t, plan.Warnings, 1)
	assert.Equal(t, models.WarningInternalError, plan.Warnings[0].Type)
	assert.Empty(t, plan.Stations)
}

type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, p := range m.Parts {
			if text, ok := p.(llms.TextContent); ok {
				f.prompt += text.Text
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func fohInput() PlanInput {
	return PlanInput{
		Menu: models.Menu{ID: "m1", Name: "Autumn"},
		Items: []models.MenuItem{
			{ID: "i1", Name: "Carrot Soup", Description: "Roasted carrots, ginger", Allergens: []string{"dairy"}, DietaryInfo: []string{"vegetarian"}, IsSignature: true},
			{ID: "i2", Name: "Steak Frites", Allergens: []string{"Dairy", "gluten"}, IsNew: true},
			{ID: "i3", Name: "Sorbet"},
		},
		Recipes: []models.Recipe{
			{ID: "r1", Title: "Carrot Soup", Ingredients: []models.Ingredient{{Name: "Carrot"}}},
			{ID: "r3", Title: "Sorbet", Description: "Seasonal fruit sorbet"},
		},
		Links: models.LinkTable{"i1": {RecipeID: "r1"}, "i3": {RecipeID: "r3"}},
	}
}

func TestGenerateSheet(t *testing.T) {
	a := newTestAggregator(t, nil, nil)
	sheet := a.GenerateSheet(context.Background(), fohInput())

	require.Len(t, sheet.Dishes, 3)
	assert.Equal(t, []string{"Roasted carrots, ginger", "Signature dish"}, sheet.Dishes[0].TalkingPoints)
	assert.Equal(t, []string{"New on the menu"}, sheet.Dishes[1].TalkingPoints)
	assert.Equal(t, []string{"Seasonal fruit sorbet"}, sheet.Dishes[2].TalkingPoints)
	assert.Equal(t, []string{"Carrot Soup"}, sheet.SignatureDishes)
	assert.Equal(t, []string{"Steak Frites"}, sheet.NewDishes)
	assert.Equal(t, []models.TagCount{{Tag: "Dairy", Count: 2}, {Tag: "Gluten", Count: 1}}, sheet.AllergenSummary)
	assert.Equal(t, []models.TagCount{{Tag: "Vegetarian", Count: 1}}, sheet.DietarySummary)

	kinds := map[string][]string{}
	for _, w := range sheet.Warnings {
		kinds[w.Type] = append(kinds[w.Type], w.ItemID)
	}
	assert.Equal(t, []string{"i3"}, kinds[models.WarningMissingAllergens])
	assert.Equal(t, []string{"i2"}, kinds[models.WarningMissingRecipe])
	assert.Empty(t, kinds[models.WarningMissingTalkingPoints])
}

func TestGenerateSheetSuggestionsKeepWarning(t *testing.T) {
	model := &fakeModel{reply: "- Bright and tart\n- Made in house\n\n- Pairs with espresso\n- extra"}
	a := newTestAggregator(t, nil, NewLLMWriter(model))
	in := PlanInput{Items: []models.MenuItem{{ID: "i1", Name: "Lemon Granita", Allergens: []string{"none"}}}}

	sheet := a.GenerateSheet(context.Background(), in)
	require.Len(t, sheet.Dishes, 1)
	assert.Empty(t, sheet.Dishes[0].TalkingPoints)
	assert.Equal(t, []string{"Bright and tart", "Made in house", "Pairs with espresso"}, sheet.Dishes[0].SuggestedPoints)
	assert.True(t, models.HasWarningType(sheet.Warnings, models.WarningMissingTalkingPoints))
	assert.Contains(t, model.prompt, "Lemon Granita")
}

func TestGenerateSheetWriterFailureIsLogged(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	a := newTestAggregator(t, nil, NewLLMWriter(model))
	sheet := a.GenerateSheet(context.Background(), PlanInput{Items: []models.MenuItem{{ID: "i1", Name: "Granita"}}})
	assert.Nil(t, sheet.Dishes[0].SuggestedPoints)
	assert.True(t, models.HasWarningType(sheet.Warnings, models.WarningMissingTalkingPoints))
}

func TestLoadInput(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	stores := store.New(kv, nil)
	require.NoError(t, stores.Menus.Save(ctx, "p1", &models.MenuData{
		Menu:  models.Menu{Name: "Autumn", ServiceDate: "2026-10-24"},
		Items: []models.MenuItem{{ID: "i1", Name: "Soup", ProjectedCovers: 20}},
	}))
	require.NoError(t, stores.Recipes.Save(ctx, &models.Recipe{ID: "r1", Title: "Soup"}))
	_, err := stores.Links.Set(ctx, "i1", "r1", testNow)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, store.KeyRecipeStubs, []byte("{broken")))

	in, warnings, err := LoadInput(ctx, stores, "p1", time.Time{})
	require.NoError(t, err)
	assert.Len(t, in.Items, 1)
	assert.Len(t, in.Recipes, 1)
	assert.Equal(t, "r1", in.Links["i1"].RecipeID)
	assert.Equal(t, time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC), in.ServiceDate)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarningMalformedData, warnings[0].Type)
}

func TestLoadInputReadsStringNumbers(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	stores := store.New(kv, nil)
	raw := `{"menu":{"name":"Autumn"},"items":[
		{"id":"i1","name":"Soup","price":9,"projectedCovers":20},
		{"id":"i2","name":"Tart","price":"12.99","projectedCovers":"6"}
	]}`
	require.NoError(t, kv.Set(ctx, store.MenuKey(store.DefaultProjectID), []byte(raw)))

	in, warnings, err := LoadInput(ctx, stores, store.DefaultProjectID, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, in.Items, 2)
	assert.Equal(t, "Soup", in.Items[0].Name)
	assert.Equal(t, 12.99, in.Items[1].Price)
	assert.Equal(t, 6, in.Items[1].ProjectedCovers)
}

func TestBuildSheetSkipsWriter(t *testing.T) {
	model := &fakeModel{reply: "- Bright and tart"}
	a := newTestAggregator(t, nil, NewLLMWriter(model))
	sheet := a.BuildSheet(PlanInput{Items: []models.MenuItem{{ID: "i1", Name: "Granita"}}})

	require.Len(t, sheet.Dishes, 1)
	assert.Nil(t, sheet.Dishes[0].SuggestedPoints)
	assert.True(t, models.HasWarningType(sheet.Warnings, models.WarningMissingTalkingPoints))
	assert.Empty(t, model.prompt)
}

func TestSoupPlanAfterLinkingStub(t *testing.T) {
	ctx := context.Background()
	stores := store.New(store.NewMemoryKV(), nil)
	item := models.MenuItem{ID: "i1", Name: "Soup", ProjectedCovers: 20, PrepStation: "Hot Line"}
	require.NoError(t, stores.Menus.Save(ctx, store.DefaultProjectID, &models.MenuData{Items: []models.MenuItem{item}}))
	a := newTestAggregator(t, nil, nil)

	in, warnings, err := LoadInput(ctx, stores, store.DefaultProjectID, time.Time{})
	require.NoError(t, err)
	require.Empty(t, warnings)
	plan := a.GeneratePrepPlan(in)
	assert.Empty(t, plan.Stations)
	require.Len(t, plan.Warnings, 1)
	assert.Equal(t, "i1", plan.Warnings[0].ItemID)
	assert.Equal(t, "Soup", plan.Warnings[0].Name)
	assert.Equal(t, models.WarningMissingRecipe, plan.Warnings[0].Type)

	l := linker.New(stores, linker.Options{LaborRatePerHour: 15, FoodCostTarget: 0.30}, zerolog.Nop())
	stub, err := l.CreateRecipeStubForMenuItem(ctx, item)
	require.NoError(t, err)
	stub.Servings = 4
	stub.Ingredients = []models.Ingredient{{Name: "Carrot", Amount: "2", Unit: "lb"}}
	require.NoError(t, stores.Recipes.Save(ctx, stub))

	in, _, err = LoadInput(ctx, stores, store.DefaultProjectID, time.Time{})
	require.NoError(t, err)
	plan = a.GeneratePrepPlan(in)
	assert.Empty(t, plan.Warnings)
	require.Contains(t, plan.Stations, "Hot Line")
	require.Len(t, plan.Shopping, 1)
	assert.Equal(t, "Carrot", plan.Shopping[0].Name)
	assert.Equal(t, 10.0, plan.Shopping[0].Quantity)
	assert.Equal(t, "lb", plan.Shopping[0].Unit)
}
