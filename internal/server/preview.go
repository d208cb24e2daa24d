package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/openapi"
	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/validation"
)

// commitForPreview persists the current list so the preview, which reads the
// store, sees every edit made so far.
func (s *Server) commitForPreview(c *gin.Context) {
	if err := s.app.Collection.CommitSnapshot(c.Request.Context()); err != nil {
		abortError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": s.app.Config.Form.Endpoint})
}

// showForm reads the stored snapshot once and keeps the form it rendered for
// the submissions that follow.
func (s *Server) showForm(c *gin.Context) {
	result, err := s.app.Orchestrator.Generate(c.Request.Context(), orchestrator.Request{Renderer: s.app.HTML.Name()})
	if err != nil {
		s.logger.Error("render form", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}
	s.pinPreview(result.Form)
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

func (s *Server) pinPreview(form model.FormModel) {
	s.previewMu.Lock()
	defer s.previewMu.Unlock()
	s.preview = &form
}

// previewForm returns the form last shown by the preview page. A submission
// that arrives before any page was shown reads the snapshot itself.
func (s *Server) previewForm(ctx context.Context) (model.FormModel, error) {
	s.previewMu.Lock()
	pinned := s.preview
	s.previewMu.Unlock()
	if pinned != nil {
		return *pinned, nil
	}
	form, err := s.app.Orchestrator.Build(ctx, orchestrator.Request{})
	if err != nil {
		return model.FormModel{}, err
	}
	s.pinPreview(form)
	return form, nil
}

type submissionResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
	Values map[string]string `json:"values,omitempty"`
}

func (s *Server) submitForm(c *gin.Context) {
	ctx := c.Request.Context()
	form, err := s.previewForm(ctx)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}

	wantsJSON := strings.HasPrefix(c.ContentType(), "application/json")
	values, err := submittedValues(c, form, wantsJSON)
	if err != nil {
		abortError(c, http.StatusBadRequest, "malformed_submission", err)
		return
	}

	result := validation.ValidateForm(form, values)
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	s.logger.Debug("form submitted", zap.Bool("valid", result.Valid), zap.Int("errors", len(result.Errors)))

	if wantsJSON {
		c.JSON(status, submissionResponse{Valid: result.Valid, Errors: result.Errors, Values: result.Values})
		return
	}

	opts := render.RenderOptions{Values: values, Errors: render.FieldErrors(result.Errors)}
	if result.Valid {
		opts = render.RenderOptions{Values: result.Values, ReadOnly: true}
	}
	out, err := s.app.HTML.Render(ctx, form, opts)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}
	c.Data(status, s.app.HTML.ContentType(), out)
}

func submittedValues(c *gin.Context, form model.FormModel, wantsJSON bool) (map[string]string, error) {
	values := make(map[string]string, len(form.Fields))
	if wantsJSON {
		var raw map[string]any
		if err := c.ShouldBindJSON(&raw); err != nil {
			return nil, err
		}
		for _, field := range form.Fields {
			if v, ok := raw[field.Name]; ok && v != nil {
				values[field.Name] = stringify(v)
			}
		}
		return values, nil
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for _, field := range form.Fields {
		values[field.Name] = c.Request.PostForm.Get(field.Name)
	}
	return values, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return model.FormatFloat(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func (s *Server) openAPI(c *gin.Context) {
	ctx := c.Request.Context()
	form, err := s.app.Orchestrator.Build(ctx, orchestrator.Request{})
	if err != nil {
		abortError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}
	doc, err := openapi.Export(ctx, form, openapi.Info{Title: form.Summary})
	if err != nil {
		abortError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		abortError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}
