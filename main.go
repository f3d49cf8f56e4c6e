package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/sweets-catalog/catalog"
	"github.com/judyrop/sweets-catalog/config"
	"github.com/judyrop/sweets-catalog/database"
	"github.com/judyrop/sweets-catalog/logging"
	"github.com/judyrop/sweets-catalog/models"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}
	if err := database.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}

	r := SetupRouter(catalog.NewStore(db))
	logging.Info().Str("port", cfg.ServerPort).Msg("listening")
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}

func SetupRouter(store *catalog.Store) *gin.Engine {
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// List sweets
	r.GET("/sweets", func(c *gin.Context) {
		sweets, err := store.ListSweets(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]map[string]interface{}, 0, len(sweets))
		for _, s := range sweets {
			out = append(out, s.ToDict())
		}
		c.JSON(http.StatusOK, out)
	})

	// Sweet with the vendors selling it
	r.GET("/sweets/:id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		sweet, err := store.GetSweet(c.Request.Context(), id)
		if err != nil {
			writeError(c, err, "Sweet not found")
			return
		}
		vendors := make([]map[string]interface{}, 0)
		for _, v := range sweet.Vendors() {
			vendors = append(vendors, v.ToDict())
		}
		body := sweet.ToDict()
		body["vendors"] = vendors
		c.JSON(http.StatusOK, body)
	})

	// Create sweet
	r.POST("/sweets", func(c *gin.Context) {
		var req struct {
			Name *string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sweet, err := store.CreateSweet(c.Request.Context(), req.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, sweet.ToDict())
	})

	r.DELETE("/sweets/:id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := store.DeleteSweet(c.Request.Context(), id); err != nil {
			writeError(c, err, "Sweet not found")
			return
		}
		c.Status(http.StatusNoContent)
	})

	// List vendors
	r.GET("/vendors", func(c *gin.Context) {
		vendors, err := store.ListVendors(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]map[string]interface{}, 0, len(vendors))
		for _, v := range vendors {
			out = append(out, v.ToDict())
		}
		c.JSON(http.StatusOK, out)
	})

	// Vendor with its price listings
	r.GET("/vendors/:id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		vendor, err := store.GetVendor(c.Request.Context(), id)
		if err != nil {
			writeError(c, err, "Vendor not found")
			return
		}
		listings := make([]map[string]interface{}, 0, len(vendor.VendorSweets))
		for _, vs := range vendor.VendorSweets {
			listings = append(listings, vs.ToDict())
		}
		body := vendor.ToDict()
		body["vendor_sweets"] = listings
		c.JSON(http.StatusOK, body)
	})

	// Create vendor
	r.POST("/vendors", func(c *gin.Context) {
		var req struct {
			Name *string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		vendor, err := store.CreateVendor(c.Request.Context(), req.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, vendor.ToDict())
	})

	r.DELETE("/vendors/:id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := store.DeleteVendor(c.Request.Context(), id); err != nil {
			writeError(c, err, "Vendor not found")
			return
		}
		c.Status(http.StatusNoContent)
	})

	// Create a price listing
	r.POST("/vendor_sweets", func(c *gin.Context) {
		var req struct {
			Price    *int `json:"price"`
			VendorID uint `json:"vendor_id"`
			SweetID  uint `json:"sweet_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := models.ValidatePrice(req.Price); err != nil {
			writeError(c, err, "")
			return
		}
		ctx := c.Request.Context()
		if _, err := store.GetVendor(ctx, req.VendorID); err != nil {
			writeError(c, err, "Vendor not found")
			return
		}
		if _, err := store.GetSweet(ctx, req.SweetID); err != nil {
			writeError(c, err, "Sweet not found")
			return
		}
		vs, err := store.CreateVendorSweet(ctx, req.VendorID, req.SweetID, req.Price)
		if err != nil {
			writeError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, vs.ToDict())
	})

	// Change the price of a listing
	r.PATCH("/vendor_sweets/:id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req struct {
			Price *int `json:"price"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		vs, err := store.UpdateVendorSweetPrice(c.Request.Context(), id, req.Price)
		if err != nil {
			writeError(c, err, "VendorSweet not found")
			return
		}
		c.JSON(http.StatusOK, vs.ToDict())
	})

	r.DELETE("/vendor_sweets/:id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := store.DeleteVendorSweet(c.Request.Context(), id); err != nil {
			writeError(c, err, "VendorSweet not found")
			return
		}
		c.Status(http.StatusNoContent)
	})

	return r
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func writeError(c *gin.Context, err error, notFound string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	default:
		logging.Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
