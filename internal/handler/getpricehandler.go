package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"folio-api/internal/logic"
	"folio-api/internal/svc"
	"folio-api/internal/types"
)

func GetPriceHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PriceRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(r, w, http.StatusBadRequest, err)
			return
		}

		l := logic.NewGetPriceLogic(r.Context(), svcCtx)
		resp, err := l.GetPrice(&req)
		if err != nil {
			writeError(r, w, statusFor(err), err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
