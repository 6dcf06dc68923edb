package recall

import (
	"context"

	"github.com/cinematch/cinematch/core"
)

// Source 表示一个可复用的召回源（语义/类型偏好/...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// Searcher 是语义检索的最小接口（由 vector.Retriever 实现）。
// 接口定义在消费方，避免 recall 依赖具体索引实现。
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]*core.Item, error)
}
