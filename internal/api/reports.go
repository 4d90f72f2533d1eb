package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"menuops/internal/export"
	"menuops/internal/models"
	"menuops/internal/prep"
	"menuops/internal/pricing"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// loadInput reads the current project with an optional ?date=YYYY-MM-DD
func (s *Server) loadInput(c *gin.Context) (prep.PlanInput, []models.Warning, bool) {
	var date time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return prep.PlanInput{}, nil, false
		}
		date = d
	}
	projectID, ok := s.currentProject(c)
	if !ok {
		return prep.PlanInput{}, nil, false
	}
	in, warnings, err := prep.LoadInput(c.Request.Context(), s.stores, projectID, date)
	if err != nil {
		s.fail(c, err)
		return in, nil, false
	}
	return in, warnings, true
}

func (s *Server) buildPlan(c *gin.Context) (*models.PrepPlan, bool) {
	in, warnings, ok := s.loadInput(c)
	if !ok {
		return nil, false
	}
	started := time.Now()
	plan := s.prep.GeneratePrepPlan(in)
	if len(warnings) > 0 {
		plan.Warnings = append(warnings, plan.Warnings...)
	}
	s.monitor.RecordTiming("prep_plan", time.Since(started))
	return plan, true
}

// GetPrepPlan generates the prep plan for the active project
func (s *Server) GetPrepPlan(c *gin.Context) {
	if plan, ok := s.buildPlan(c); ok {
		c.JSON(http.StatusOK, plan)
	}
}

// ExportPrepPlan streams the plan as a workbook with a vendor comparison for
// every shopping line that has quotes
func (s *Server) ExportPrepPlan(c *gin.Context) {
	plan, ok := s.buildPlan(c)
	if !ok {
		return
	}
	var comparisons []pricing.Comparison
	for _, line := range plan.Shopping {
		cmp, err := s.pricing.CompareVendorsForIngredient(c.Request.Context(), pricing.IngredientKey(line.Name))
		if err != nil {
			s.log.Warn().Err(err).Str("ingredient", line.Name).Msg("vendor comparison skipped")
			continue
		}
		if len(cmp.Vendors) > 0 {
			comparisons = append(comparisons, cmp)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "prep-plan.xlsx"))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := export.WriteWorkbook(c.Writer, plan, comparisons); err != nil {
		s.log.Error().Err(err).Msg("workbook export failed")
	}
}

// GetBriefing generates the front-of-house briefing
func (s *Server) GetBriefing(c *gin.Context) {
	in, warnings, ok := s.loadInput(c)
	if !ok {
		return
	}
	started := time.Now()
	sheet := s.prep.GenerateSheet(c.Request.Context(), in)
	s.monitor.RecordTiming("foh_briefing", time.Since(started))
	if len(warnings) > 0 {
		sheet.Warnings = append(warnings, sheet.Warnings...)
	}
	c.JSON(http.StatusOK, sheet)
}

// GetDashboard returns the latest snapshot; ?force=true refreshes now
func (s *Server) GetDashboard(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	snap, _ := s.dashboard.Refresh(c.Request.Context(), force)
	c.JSON(http.StatusOK, snap)
}

// GetMetrics returns the monitor figures
func (s *Server) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.GetMetrics())
}
