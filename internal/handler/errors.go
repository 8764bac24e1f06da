package handler

import (
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"folio-api/internal/types"
	"folio-api/pkg/market"
	"folio-api/pkg/pricing"
)

func writeError(r *http.Request, w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		logx.WithContext(r.Context()).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	httpx.WriteJsonCtx(r.Context(), w, code, types.ErrorResponse{Code: code, Message: err.Error()})
}

// statusFor maps logic errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pricing.ErrNoPrice):
		return http.StatusNotFound
	case errors.Is(err, market.ErrUnknownAssetClass):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
