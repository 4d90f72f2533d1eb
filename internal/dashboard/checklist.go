package dashboard

import (
	"menuops/internal/linker"
	"menuops/internal/models"
	"menuops/internal/prep"
)

// Check ids
const (
	CheckMenuHasItems     = "menu-has-items"
	CheckAllItemsLinked   = "all-items-linked"
	CheckPrepPlanClean    = "prep-plan-clean"
	CheckFOHBriefingReady = "foh-briefing-clean"
)

// Check is one line of the workflow checklist
type Check struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Checklist evaluates the four workflow checks. A plan or briefing over an
// empty menu does not count as existing.
func Checklist(in prep.PlanInput, plan *models.PrepPlan, sheet *models.FOHBriefing) []Check {
	hasItems := len(in.Items) > 0

	recipes := linker.Index(in.Recipes)
	unlinked := 0
	for _, item := range in.Items {
		if linker.Resolve(item, in.Links, recipes) == nil {
			unlinked++
		}
	}

	planOK := hasItems && plan != nil && len(plan.Warnings) == 0
	sheetOK := hasItems && sheet != nil && len(sheet.Warnings) == 0

	checks := []Check{
		{ID: CheckMenuHasItems, Label: "Menu has items", Passed: hasItems},
		{ID: CheckAllItemsLinked, Label: "Every item links to a recipe", Passed: hasItems && unlinked == 0},
		{ID: CheckPrepPlanClean, Label: "Prep plan without warnings", Passed: planOK},
		{ID: CheckFOHBriefingReady, Label: "FOH briefing without warnings", Passed: sheetOK},
	}
	if unlinked > 0 {
		checks[1].Detail = pluralize(unlinked, "item needs", "items need") + " a recipe"
	}
	if plan != nil && len(plan.Warnings) > 0 {
		checks[2].Detail = pluralize(len(plan.Warnings), "warning", "warnings")
	}
	if sheet != nil && len(sheet.Warnings) > 0 {
		checks[3].Detail = pluralize(len(sheet.Warnings), "warning", "warnings")
	}
	return checks
}

// Completeness is the share of passing checks as a percentage
func Completeness(checks []Check) float64 {
	if len(checks) == 0 {
		return 0
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(checks)) * 100
}
