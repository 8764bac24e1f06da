package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/market"
	"folio-api/pkg/pricing"
)

type GetPriceLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetPriceLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetPriceLogic {
	return &GetPriceLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetPrice resolves one quote. The asset type defaults to stock and the
// currency to the configured settlement currency.
func (l *GetPriceLogic) GetPrice(req *types.PriceRequest) (*types.PriceResponse, error) {
	rawType := strings.TrimSpace(req.Type)
	if rawType == "" {
		rawType = string(market.Equity)
	}
	class, err := market.ParseAssetClass(rawType)
	if err != nil {
		return nil, err
	}
	currency := req.Currency
	if strings.TrimSpace(currency) == "" {
		currency = l.svcCtx.Config.Currency
	}

	res, err := l.svcCtx.Resolver.ResolveDetailed(l.ctx, market.NewKey(req.Ticker, class, currency))
	if err != nil {
		return nil, err
	}
	return &types.PriceResponse{
		Quote:  res.Quote,
		Status: string(res.Status),
		Stale:  res.Status == pricing.StatusStale,
	}, nil
}
