package prep

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"menuops/internal/linker"
	"menuops/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GenerateSheet builds the front-of-house briefing. Talking points come from
// the item's description, story and highlights, falling back to the recipe
// description, plus the signature and new flags. Suggestions from the
// TalkingPointWriter are kept apart and never clear a warning.
func (a *Aggregator) GenerateSheet(ctx context.Context, in PlanInput) *models.FOHBriefing {
	return a.briefing(ctx, in, true)
}

// BuildSheet builds the briefing from the loaded records alone. The writer
// is never consulted, so dishes carry no suggested points.
func (a *Aggregator) BuildSheet(in PlanInput) *models.FOHBriefing {
	return a.briefing(context.Background(), in, false)
}

func (a *Aggregator) briefing(ctx context.Context, in PlanInput, withSuggestions bool) (sheet *models.FOHBriefing) {
	sheet = a.emptySheet(in)
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("foh briefing generation failed")
			sheet = a.emptySheet(in)
			sheet.Warnings = append(sheet.Warnings, models.Warning{
				Source:  "foh",
				Type:    models.WarningInternalError,
				Message: fmt.Sprint(r),
			})
		}
	}()

	recipes := linker.Index(in.Recipes)
	allergens := newTagCounter()
	dietary := newTagCounter()

	for _, item := range in.Items {
		recipe := linker.Resolve(item, in.Links, recipes)
		dish := models.DishBriefing{
			ItemID:        item.ID,
			Name:          item.DisplayName(),
			Category:      item.Category,
			Price:         item.Price,
			TalkingPoints: TalkingPoints(item, recipe),
			Allergens:     nonNil(item.Allergens),
			DietaryInfo:   nonNil(item.DietaryInfo),
			IsSignature:   item.IsSignature,
			IsNew:         item.IsNew,
			RecipeStatus:  linker.StatusOf(recipe).Status,
		}

		allergens.add(item.Allergens)
		dietary.add(item.DietaryInfo)
		if item.IsSignature {
			sheet.SignatureDishes = append(sheet.SignatureDishes, dish.Name)
		}
		if item.IsNew {
			sheet.NewDishes = append(sheet.NewDishes, dish.Name)
		}

		if len(item.Allergens) == 0 {
			sheet.Warnings = append(sheet.Warnings, a.dishWarning(item, models.WarningMissingAllergens, "%s has no allergen information"))
		}
		if len(dish.TalkingPoints) == 0 {
			sheet.Warnings = append(sheet.Warnings, a.dishWarning(item, models.WarningMissingTalkingPoints, "%s has no talking points"))
			if withSuggestions {
				dish.SuggestedPoints = a.suggest(ctx, item, recipe)
			}
		}
		if recipe == nil {
			sheet.Warnings = append(sheet.Warnings, a.dishWarning(item, models.WarningMissingRecipe, "%s has no linked recipe"))
		}
		sheet.Dishes = append(sheet.Dishes, dish)
	}

	sheet.AllergenSummary = allergens.counts()
	sheet.DietarySummary = dietary.counts()
	return sheet
}

func (a *Aggregator) emptySheet(in PlanInput) *models.FOHBriefing {
	return &models.FOHBriefing{
		MenuID:          in.Menu.ID,
		MenuName:        in.Menu.Name,
		ServiceDate:     in.ServiceDate,
		GeneratedAt:     a.now(),
		Dishes:          []models.DishBriefing{},
		AllergenSummary: []models.TagCount{},
		DietarySummary:  []models.TagCount{},
		SignatureDishes: []string{},
		NewDishes:       []string{},
		Warnings:        []models.Warning{},
	}
}

func (a *Aggregator) dishWarning(item models.MenuItem, kind, format string) models.Warning {
	return models.Warning{
		Source:  "foh",
		Type:    kind,
		Message: fmt.Sprintf(format, item.DisplayName()),
		ItemID:  item.ID,
		Name:    item.DisplayName(),
	}
}

func (a *Aggregator) suggest(ctx context.Context, item models.MenuItem, recipe *models.Recipe) []string {
	if a.writer == nil {
		return nil
	}
	points, err := a.writer.SuggestTalkingPoints(ctx, item, recipe)
	if err != nil {
		a.log.Warn().Err(err).Str("item", item.ID).Msg("talking point suggestion failed")
		return nil
	}
	return points
}

// TalkingPoints derives what servers should say about a dish
func TalkingPoints(item models.MenuItem, recipe *models.Recipe) []string {
	var points []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			points = append(points, s)
		}
	}
	add(item.Description)
	if item.Description == "" && recipe != nil {
		add(recipe.Description)
	}
	add(item.Story)
	for _, h := range item.Highlights {
		add(h)
	}
	if item.IsSignature {
		add("Signature dish")
	}
	if item.IsNew {
		add("New on the menu")
	}
	if points == nil {
		return []string{}
	}
	return points
}

// tagCounter counts tags case-insensitively and reports them title-cased
type tagCounter struct {
	folder cases.Caser
	title  cases.Caser
	tally  map[string]int
	label  map[string]string
}

func newTagCounter() *tagCounter {
	return &tagCounter{
		folder: cases.Fold(),
		title:  cases.Title(language.English),
		tally:  make(map[string]int),
		label:  make(map[string]string),
	}
}

func (t *tagCounter) add(tags []string) {
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := t.folder.String(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := t.label[key]; !ok {
			t.label[key] = t.title.String(tag)
		}
		t.tally[key]++
	}
}

func (t *tagCounter) counts() []models.TagCount {
	out := make([]models.TagCount, 0, len(t.tally))
	for key, n := range t.tally {
		out = append(out, models.TagCount{Tag: t.label[key], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
