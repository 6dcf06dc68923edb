// Package engine 实现推荐引擎：组合有效查询、过采样召回、
// 已判定过滤、Top-N 截断。
package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/catalog"
	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/filter"
	"github.com/cinematch/cinematch/pipeline"
	"github.com/cinematch/cinematch/recall"
	"github.com/cinematch/cinematch/rerank"
)

// 默认输出 5 条，召回时按 2 倍过采样以扛住过滤损耗。
const (
	DefaultTopK       = 5
	DefaultOversample = 2
)

// Options 配置推荐引擎。
type Options struct {
	// TopK 最终输出条数；<=0 时取 DefaultTopK。
	TopK int

	// Oversample 召回过采样倍数；<=0 时取 DefaultOversample。
	Oversample int

	// FilterExpr 是可选的 CEL 排除表达式（如 "item.rating < 6.0"），
	// 为空时不启用表达式过滤。
	FilterExpr string

	// Logger 默认 Nop。
	Logger zerolog.Logger
}

// Engine 是推荐引擎。构建完成后只读，可并发调用。
type Engine struct {
	searcher   recall.Searcher
	catalog    *catalog.Store
	topK       int
	oversample int
	exprFilter *filter.ExprFilter
	logger     zerolog.Logger
}

// New 创建推荐引擎。FilterExpr 编译失败时返回错误。
func New(searcher recall.Searcher, cat *catalog.Store, opts Options) (*Engine, error) {
	e := &Engine{
		searcher:   searcher,
		catalog:    cat,
		topK:       opts.TopK,
		oversample: opts.Oversample,
		logger:     opts.Logger,
	}
	if e.topK <= 0 {
		e.topK = DefaultTopK
	}
	if e.oversample <= 0 {
		e.oversample = DefaultOversample
	}

	if opts.FilterExpr != "" {
		f, err := filter.NewExprFilter(opts.FilterExpr)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
				"engine: invalid filter expression: "+err.Error())
		}
		e.exprFilter = f
	}
	return e, nil
}

// Recommend 按主题查询 + 已判定列表产出至多 TopK 条推荐，距离升序。
//
// 流程：
//  1. 有效查询 = baseQuery 拼接全部 liked（空格连接），把口味信号
//     注入最近邻搜索
//  2. 召回 Oversample×TopK 个最近候选
//  3. 过滤掉标题出现在 liked/disliked 中的候选（大小写敏感精确匹配）
//  4. 截断到 TopK，保持最近邻顺序
//
// 空查询且无 liked 时行为确定：零向量照常检索，不报错；
// 空目录直接返回空结果。
func (e *Engine) Recommend(ctx context.Context, baseQuery string, liked, disliked []string) ([]*core.Item, error) {
	rctx := &core.RecommendContext{
		Query:    composeQuery(baseQuery, liked),
		Liked:    liked,
		Disliked: disliked,
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Semantic{Searcher: e.searcher, TopK: e.topK * e.oversample},
			e.filterNode(),
			&rerank.TopNNode{N: e.topK},
		},
	}

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	e.logger.Debug().
		Str("query", rctx.Query).
		Int("results", len(items)).
		Msg("recommendation produced")
	return items, nil
}

// RecommendForProfile 是画像驱动的推荐：除语义召回外，并发补充
// 类型偏好召回（画像的 PreferredGenres），按源优先级合并去重，
// 再走同样的过滤与截断。liked/disliked 取自画像。
func (e *Engine) RecommendForProfile(ctx context.Context, baseQuery string, profile *core.UserProfile) ([]*core.Item, error) {
	var liked []string
	if profile != nil {
		liked = profile.LikedMovies
	}

	rctx := &core.RecommendContext{
		Query:   composeQuery(baseQuery, liked),
		Profile: profile,
	}

	sources := []recall.Source{
		&recall.Semantic{Searcher: e.searcher, TopK: e.topK * e.oversample},
	}
	if profile != nil && len(profile.PreferredGenres) > 0 {
		sources = append(sources, &recall.Genre{Catalog: e.catalog, TopK: e.topK})
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{Sources: sources, Dedup: true},
			e.filterNode(),
			&rerank.TopNNode{N: e.topK},
		},
	}
	return p.Run(ctx, rctx, nil)
}

func (e *Engine) filterNode() *filter.Node {
	filters := []filter.Filter{&filter.SeenTitleFilter{}}
	if e.exprFilter != nil {
		filters = append(filters, e.exprFilter)
	}
	return &filter.Node{Filters: filters, Logger: e.logger}
}

// composeQuery 拼接有效查询文本：主题 + 喜欢影片标题（空格连接）。
func composeQuery(baseQuery string, liked []string) string {
	if len(liked) == 0 {
		return baseQuery
	}
	parts := make([]string, 0, len(liked)+1)
	if baseQuery != "" {
		parts = append(parts, baseQuery)
	}
	parts = append(parts, liked...)
	return strings.Join(parts, " ")
}
