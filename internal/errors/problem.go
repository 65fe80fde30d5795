package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extensions are marshaled as top-level members
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON includes the extensions next to the standard members
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		data[k] = v
	}

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// appErrorProblem describes how one AppError type is reported over HTTP.
type appErrorProblem struct {
	status      int
	problemType string
	title       string
}

var appErrorProblems = map[ErrorType]appErrorProblem{
	ErrTypeSchema:           {http.StatusUnprocessableEntity, TypeSchema, "Schema Error"},
	ErrTypeMissingColumn:    {http.StatusUnprocessableEntity, TypeMissingColumn, "Missing Column"},
	ErrTypeParsing:          {http.StatusUnprocessableEntity, TypeParse, "Parse Error"},
	ErrTypeInsufficientData: {http.StatusUnprocessableEntity, TypeInsufficientData, "Insufficient Data"},
	ErrTypeAlignment:        {http.StatusInternalServerError, TypeAlignment, "Forecast Alignment Failed"},
	ErrTypeValidation:       {http.StatusBadRequest, TypeValidation, "Validation Failed"},
	ErrTypeNotFound:         {http.StatusNotFound, TypeNotFound, "Resource Not Found"},
	ErrTypeConfig:           {http.StatusInternalServerError, TypeInternal, "Configuration Error"},
	ErrTypeStorage:          {http.StatusInternalServerError, TypeStorage, "Storage Error"},
}

// AppErrorToProblem maps a pipeline error onto problem details. The error
// context (stage, table, column, date, ...) becomes extension members.
func AppErrorToProblem(appErr *AppError, instance string) *ProblemDetails {
	p, ok := appErrorProblems[appErr.Type]
	if !ok {
		p = appErrorProblem{http.StatusInternalServerError, TypeInternal, "Internal Server Error"}
	}

	problem := NewProblemDetails(p.status, p.problemType, p.title, appErr.Error(), instance).
		WithExtension("error_code", string(appErr.Type))
	for k, v := range appErr.Context {
		problem.WithExtension(k, v)
	}
	return problem
}
