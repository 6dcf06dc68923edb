package recall

import (
	"context"

	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/pipeline"
)

// Semantic 是语义召回源：把 rctx.Query 交给最近邻索引，
// 返回距离升序的候选影片。
// Semantic 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Semantic struct {
	Searcher Searcher

	// TopK 候选数量；引擎层通常传入过采样后的值（最终输出的 2 倍），
	// 以便后续过滤仍有足够候选。<=0 时取 10。
	TopK int
}

func (r *Semantic) Name() string        { return "recall.semantic" }
func (r *Semantic) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Semantic) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Semantic) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Searcher == nil || rctx == nil {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 10
	}
	return r.Searcher.Search(ctx, rctx.Query, topK)
}
