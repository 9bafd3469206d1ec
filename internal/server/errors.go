package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`   // HTTP status text
	Code    string `json:"code"`    // machine-readable code
	Message string `json:"message"` // human-readable detail

	status int
}

// Render implements the chi render.Renderer interface.
func (e *ErrorResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	_ = render.Render(w, r, &ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
		status:  status,
	})
}
