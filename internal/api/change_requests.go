package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/model"
)

const changeRequestNotFound = "Change request not found"

func (s *Server) handleListChangeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		crs, err := s.store.ListChangeRequests(c.Request.Context())
		if err != nil {
			respondError(c, err, changeRequestNotFound)
			return
		}
		c.JSON(http.StatusOK, crs)
	}
}

func (s *Server) handleGetChangeRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		cr, err := s.store.GetChangeRequest(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, changeRequestNotFound)
			return
		}
		c.JSON(http.StatusOK, cr)
	}
}

func (s *Server) handleCreateChangeRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.NewChangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title and description are required"})
			return
		}

		cr, err := s.store.CreateChangeRequest(c.Request.Context(), model.ChangeRequest{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
		})
		if err != nil {
			respondError(c, err, changeRequestNotFound)
			return
		}
		c.JSON(http.StatusCreated, cr)
	}
}

func (s *Server) handleUpdateChangeRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd model.ChangeRequestUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if upd.IsEmpty() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}

		cr, err := s.store.UpdateChangeRequest(c.Request.Context(), c.Param("id"), upd)
		if err != nil {
			respondError(c, err, changeRequestNotFound)
			return
		}
		c.JSON(http.StatusOK, cr)
	}
}

func (s *Server) handleDeleteChangeRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.DeleteChangeRequest(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err, changeRequestNotFound)
			return
		}
		c.JSON(http.StatusOK, model.MessageResponse{Message: "Change request deleted successfully"})
	}
}

func (s *Server) handleListComments() gin.HandlerFunc {
	return func(c *gin.Context) {
		comments, err := s.store.ListComments(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, changeRequestNotFound)
			return
		}
		c.JSON(http.StatusOK, comments)
	}
}

func (s *Server) handleCreateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.NewComment
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
			return
		}

		comment, err := s.store.CreateComment(c.Request.Context(), model.Comment{
			ChangeRequestID: c.Param("id"),
			Author:          req.Author,
			Content:         req.Content,
		})
		if err != nil {
			respondError(c, err, changeRequestNotFound)
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}
