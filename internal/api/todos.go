package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

const todoNotFound = "Todo not found"

func (s *Server) handleListTodos() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter store.TodoFilter
		if status := c.Query("status"); status != "" {
			if !model.IsValidTodoStatus(status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
				return
			}
			filter.Status = &status
		}

		todos, err := s.store.ListTodos(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err, todoNotFound)
			return
		}
		c.JSON(http.StatusOK, todos)
	}
}

func (s *Server) handleGetTodo() gin.HandlerFunc {
	return func(c *gin.Context) {
		todo, err := s.store.GetTodo(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, todoNotFound)
			return
		}
		c.JSON(http.StatusOK, todo)
	}
}

func (s *Server) handleCreateTodo() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.NewTodo
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
			return
		}
		if req.TargetDate != nil && *req.TargetDate == "" {
			req.TargetDate = nil
		}

		todo, err := s.store.CreateTodo(c.Request.Context(), model.Todo{
			Title:      req.Title,
			TargetDate: req.TargetDate,
		})
		if err != nil {
			respondError(c, err, todoNotFound)
			return
		}
		c.JSON(http.StatusCreated, todo)
	}
}

func (s *Server) handleUpdateTodo() gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd model.TodoUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if upd.IsEmpty() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}

		todo, err := s.store.UpdateTodo(c.Request.Context(), c.Param("id"), upd)
		if err != nil {
			respondError(c, err, todoNotFound)
			return
		}
		c.JSON(http.StatusOK, todo)
	}
}

func (s *Server) handleDeleteTodo() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.DeleteTodo(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err, todoNotFound)
			return
		}
		c.JSON(http.StatusOK, model.MessageResponse{Message: "Todo deleted successfully"})
	}
}
