package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	"go.uber.org/zap"
)

type createInquiryRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	ServiceType string `json:"serviceType"`
	Message     string `json:"message"`
}

// CreateInquiry is the public intake endpoint behind the contact form.
// It is rate limited per client address; everything else about the
// caller is untrusted.
func (s *Server) CreateInquiry(c *gin.Context) {
	allowed, err := s.publicLimiter.AllowInquiry(c.Request.Context(), c.ClientIP())
	if err != nil {
		s.log.Warn("inquiry rate limit check failed", zap.Error(err))
	} else if !allowed {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	var req createInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.ServiceType = strings.TrimSpace(req.ServiceType)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" {
		AbortWithError(c, newValidationError("name", "required", "name is required"))
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		AbortWithError(c, newValidationError("email", "invalid_email", "a valid email is required"))
		return
	}
	if req.Message == "" {
		AbortWithError(c, newValidationError("message", "required", "message is required"))
		return
	}

	inquiry := &inquirydomain.Inquiry{
		ID:          s.genID.Generate(),
		Name:        req.Name,
		Email:       req.Email,
		ServiceType: req.ServiceType,
		Message:     req.Message,
		Status:      inquirydomain.InquiryStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.inquiryRepo.Insert(c.Request.Context(), s.db, inquiry); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inquiry)
}

func (s *Server) ListInquiries(c *gin.Context) {
	inquiries, err := s.inquiryRepo.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filtered := inquiries[:0]
		for _, inquiry := range inquiries {
			if string(inquiry.Status) == status {
				filtered = append(filtered, inquiry)
			}
		}
		inquiries = filtered
	}

	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

type updateInquiryStatusRequest struct {
	Status inquirydomain.InquiryStatus `json:"status"`
}

func (s *Server) UpdateInquiryStatus(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, inquirydomain.ErrNotFound)
		return
	}

	var req updateInquiryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	switch req.Status {
	case inquirydomain.InquiryStatusPending,
		inquirydomain.InquiryStatusInProgress,
		inquirydomain.InquiryStatusResolved,
		inquirydomain.InquiryStatusClosed:
	default:
		AbortWithError(c, newValidationError("status", "invalid_status", "unknown inquiry status"))
		return
	}

	inquiry, err := s.inquiryRepo.FindByID(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if inquiry == nil {
		AbortWithError(c, inquirydomain.ErrNotFound)
		return
	}

	if err := s.inquiryRepo.UpdateStatus(c.Request.Context(), s.db, id, req.Status); err != nil {
		AbortWithError(c, err)
		return
	}
	inquiry.Status = req.Status

	c.JSON(http.StatusOK, inquiry)
}
