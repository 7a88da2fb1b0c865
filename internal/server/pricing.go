package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	pricingdomain "github.com/vyoniqlabs/backoffice/internal/pricing/domain"
)

// ListPricing serves the public service catalog. Only active entries
// are exposed.
func (s *Server) ListPricing(c *gin.Context) {
	pricing, err := s.pricingRepo.ListActive(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pricing": pricing})
}

func (s *Server) GetPricingByID(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, pricingdomain.ErrNotFound)
		return
	}

	pricing, err := s.pricingRepo.FindByID(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if pricing == nil {
		AbortWithError(c, pricingdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, pricing)
}
