package handler

import (
	"net/http"

	"folio-api/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/prices/:ticker",
				Handler: GetPriceHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/search/ticker",
				Handler: SearchTickerHandler(serverCtx),
			},
		},
	)
}
