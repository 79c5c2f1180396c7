package httpadapter

import (
	"net/http"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

// mapErrorToHTTPStatus translates domain error kinds to response codes.
// ErrTemporary becomes 503 so clients of the synchronous text endpoints
// know the collaborators, not their request, are at fault.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
