package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/market"
)

type SearchTickerLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSearchTickerLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SearchTickerLogic {
	return &SearchTickerLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SearchTickerLogic) SearchTicker(req *types.SearchTickerRequest) (*types.SearchTickerResponse, error) {
	resp := &types.SearchTickerResponse{Results: []market.TickerMatch{}}
	if l.svcCtx.Searcher == nil {
		l.Info("ticker search requested but no provider supports it")
		return resp, nil
	}
	matches, err := l.svcCtx.Searcher.SearchTickers(l.ctx, req.Query)
	if err != nil {
		return nil, err
	}
	if matches != nil {
		resp.Results = matches
	}
	return resp, nil
}
