package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	blogdomain "github.com/vyoniqlabs/backoffice/internal/blog/domain"
)

// ListBlogPosts serves the public blog index; only published posts are
// visible without a session.
func (s *Server) ListBlogPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	posts, err := s.blogSvc.ListPosts(c.Request.Context(), blogdomain.ListPostsFilter{
		PublishedOnly: true,
		Limit:         limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) GetBlogPost(c *gin.Context) {
	post, err := s.blogSvc.GetPost(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !post.Published {
		AbortWithError(c, blogdomain.ErrPostNotFound)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) ListBlogCategories(c *gin.Context) {
	categories, err := s.blogSvc.ListCategories(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
