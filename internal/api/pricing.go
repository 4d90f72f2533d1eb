package api

import (
	"io"
	"net/http"

	"menuops/internal/models"
	"menuops/internal/pricing"

	"github.com/gin-gonic/gin"
)

const maxPriceSheetBytes = 5 << 20

type mixRequest struct {
	Ingredients []pricing.MixRequest `json:"ingredients" binding:"required"`
}

// ListVendors returns the vendor directory
func (s *Server) ListVendors(c *gin.Context) {
	vendors, err := s.stores.Vendors.All(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if vendors == nil {
		vendors = []models.Vendor{}
	}
	c.JSON(http.StatusOK, vendors)
}

// SaveVendors replaces the vendor directory
func (s *Server) SaveVendors(c *gin.Context) {
	var vendors []models.Vendor
	if err := c.ShouldBindJSON(&vendors); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.stores.Vendors.Save(c.Request.Context(), vendors); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, vendors)
}

// ListConnections returns every vendor ingredient connection
func (s *Server) ListConnections(c *gin.Context) {
	conns, err := s.stores.Connections.All(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if conns == nil {
		conns = []models.VendorIngredientConnection{}
	}
	c.JSON(http.StatusOK, conns)
}

// UpdateConnection stores a vendor quote and logs a price change
func (s *Server) UpdateConnection(c *gin.Context) {
	var conn models.VendorIngredientConnection
	if err := c.ShouldBindJSON(&conn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.ValidateConnection(&conn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.pricing.UpdateConnectionPrice(c.Request.Context(), conn); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// CompareVendors ranks the vendors of an ingredient by price per lb
func (s *Server) CompareVendors(c *gin.Context) {
	cmp, err := s.pricing.CompareVendorsForIngredient(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

// PriceTrends summarises price changes, optionally for one ?vendor=
func (s *Server) PriceTrends(c *gin.Context) {
	trend, err := s.pricing.GetPriceTrends(c.Request.Context(), c.Param("id"), c.Query("vendor"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

// VendorMix assigns each requested ingredient to its cheapest vendor
func (s *Server) VendorMix(c *gin.Context) {
	var req mixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mix, err := s.pricing.GetOptimalVendorMix(c.Request.Context(), req.Ingredients)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mix)
}

// RecordPriceChange appends an entry to the price change log
func (s *Server) RecordPriceChange(c *gin.Context) {
	var change models.PriceChange
	if err := c.ShouldBindJSON(&change); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if change.IngredientID == "" || change.VendorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ingredientId and vendorId are required"})
		return
	}
	recorded, err := s.pricing.RecordPriceChange(c.Request.Context(), change)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, recorded)
}

// ImportPriceSheet takes the vendor's HTML price list as the request body
func (s *Server) ImportPriceSheet(c *gin.Context) {
	body := io.LimitReader(c.Request.Body, maxPriceSheetBytes)
	res, err := s.pricing.ImportPriceSheet(c.Request.Context(), body, c.Param("id"))
	if err != nil {
		// nothing imported means the sheet itself was rejected
		if len(res.Imported) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
