package api

import (
	"net/http"
	"strconv"

	"menuops/internal/models"

	"github.com/gin-gonic/gin"
)

type projectRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
}

type linkRequest struct {
	RecipeID string `json:"recipeId" binding:"required"`
}

func (s *Server) currentProject(c *gin.Context) (string, bool) {
	id, err := s.stores.Projects.Current(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return "", false
	}
	return id, true
}

// currentItem looks the item up on the current project's menu
func (s *Server) currentItem(c *gin.Context) (*models.MenuItem, bool) {
	projectID, ok := s.currentProject(c)
	if !ok {
		return nil, false
	}
	menu, err := s.stores.Menus.Get(c.Request.Context(), projectID)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	item, found := menu.FindItem(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return nil, false
	}
	return item, true
}

func keepRecipe(c *gin.Context) bool {
	keep, _ := strconv.ParseBool(c.DefaultQuery("keepRecipe", "false"))
	return keep
}

// GetProject returns the active project id
func (s *Server) GetProject(c *gin.Context) {
	if id, ok := s.currentProject(c); ok {
		c.JSON(http.StatusOK, gin.H{"projectId": id})
	}
}

// SetProject switches the active project
func (s *Server) SetProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.stores.Projects.SetCurrent(c.Request.Context(), req.ProjectID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projectId": req.ProjectID})
}

// GetMenu returns the active project's menu
func (s *Server) GetMenu(c *gin.Context) {
	projectID, ok := s.currentProject(c)
	if !ok {
		return
	}
	menu, err := s.stores.Menus.Get(c.Request.Context(), projectID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// SaveMenu validates and replaces the menu of the active project
func (s *Server) SaveMenu(c *gin.Context) {
	var menu models.MenuData
	if err := c.ShouldBindJSON(&menu); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.ValidateMenuData(&menu); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	projectID, ok := s.currentProject(c)
	if !ok {
		return
	}
	if err := s.stores.Menus.Save(c.Request.Context(), projectID, &menu); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// DeleteMenuItem removes an item from the menu and unlinks it. Pass
// ?keepRecipe=true to keep the linked recipe
func (s *Server) DeleteMenuItem(c *gin.Context) {
	projectID, ok := s.currentProject(c)
	if !ok {
		return
	}
	if err := s.linker.DeleteMenuItem(c.Request.Context(), projectID, c.Param("id"), keepRecipe(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStatuses returns the recipe status of every menu item
func (s *Server) GetStatuses(c *gin.Context) {
	projectID, ok := s.currentProject(c)
	if !ok {
		return
	}
	statuses, err := s.linker.Statuses(c.Request.Context(), projectID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// SyncLinks links or stubs every unlinked menu item
func (s *Server) SyncLinks(c *gin.Context) {
	projectID, ok := s.currentProject(c)
	if !ok {
		return
	}
	created, err := s.linker.SyncMenuLinks(c.Request.Context(), projectID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

// GetItemRecipe returns the recipe linked to a menu item
func (s *Server) GetItemRecipe(c *gin.Context) {
	recipe, err := s.linker.GetRecipeForMenuItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if recipe == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No recipe linked"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// CreateStub creates and links a recipe stub for a menu item
func (s *Server) CreateStub(c *gin.Context) {
	item, ok := s.currentItem(c)
	if !ok {
		return
	}
	stub, err := s.linker.CreateRecipeStubForMenuItem(c.Request.Context(), *item)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, stub)
}

// LinkRecipe links a menu item to an existing recipe
func (s *Server) LinkRecipe(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	link, err := s.linker.LinkRecipe(c.Request.Context(), c.Param("id"), req.RecipeID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// UnlinkRecipe removes a menu item's link
func (s *Server) UnlinkRecipe(c *gin.Context) {
	if err := s.linker.UnlinkMenuItem(c.Request.Context(), c.Param("id"), keepRecipe(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetItemStatus returns the development status of an item's recipe
func (s *Server) GetItemStatus(c *gin.Context) {
	status, err := s.linker.GetRecipeStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetItemCost returns ingredient, labor and total cost of a menu item
func (s *Server) GetItemCost(c *gin.Context) {
	cost, err := s.linker.CalculateMenuItemCost(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cost)
}

// ListRecipes returns authored recipes and stubs
func (s *Server) ListRecipes(c *gin.Context) {
	recipes, err := s.stores.Recipes.All(c.Request.Context())
	if err != nil {
		s.log.Warn().Err(err).Msg("some recipe records could not be read")
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipe returns a recipe by id
func (s *Server) GetRecipe(c *gin.Context) {
	recipe, err := s.stores.Recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// SaveRecipe validates and stores a recipe
func (s *Server) SaveRecipe(c *gin.Context) {
	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.ValidateRecipe(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.stores.Recipes.Save(c.Request.Context(), &recipe); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe removes a recipe
func (s *Server) DeleteRecipe(c *gin.Context) {
	if err := s.stores.Recipes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
