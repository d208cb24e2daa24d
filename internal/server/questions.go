package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-formbuilder/pkg/builder"
	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

func (s *Server) builderPage(c *gin.Context) {
	out, err := s.app.HTML.RenderBuilder(c.Request.Context(), html.BuilderPage{
		Questions:     s.app.Collection.Questions(),
		Notifications: s.app.Collection.Notifications(),
	})
	if err != nil {
		s.logger.Error("render builder page", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}
	c.Data(http.StatusOK, s.app.HTML.ContentType(), out)
}

func (s *Server) listQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Collection.Questions())
}

func (s *Server) getQuestion(c *gin.Context) {
	q, ok := s.app.Collection.Get(c.Param("id"))
	if !ok {
		abortError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) addQuestion(c *gin.Context) {
	q, err := s.app.Collection.Add(c.Request.Context())
	if errors.Is(err, builder.ErrClosed) {
		abortError(c, http.StatusServiceUnavailable, "shutting_down", err)
		return
	}
	if err != nil {
		// The question exists in memory; only the snapshot write failed.
		s.logger.Error("commit snapshot after add", zap.String("question_id", q.ID), zap.Error(err))
		abortError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// patchRequest accepts options either as a list or as the comma-separated
// text typed into the builder.
type patchRequest struct {
	question.Patch
	OptionsText *string `json:"optionsText,omitempty"`
}

var errUnknownType = errors.New("unknown question type")

func (p patchRequest) toPatch() (question.Patch, error) {
	patch := p.Patch
	if patch.Type != nil {
		t, err := question.ParseType(string(*patch.Type))
		if err != nil {
			return question.Patch{}, errUnknownType
		}
		patch.Type = &t
	}
	if p.OptionsText != nil {
		options := question.ParseOptions(*p.OptionsText)
		patch.Options = &options
	}
	return patch, nil
}

func (s *Server) updateQuestion(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "malformed_patch", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		abortError(c, http.StatusBadRequest, "malformed_patch", err)
		return
	}
	q, ok := s.app.Collection.Update(c.Request.Context(), c.Param("id"), patch)
	if !ok {
		abortError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) deleteQuestion(c *gin.Context) {
	ok, err := s.app.Collection.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("commit snapshot after delete", zap.String("question_id", c.Param("id")), zap.Error(err))
		abortError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}
	if !ok {
		abortError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	c.Status(http.StatusNoContent)
}
