package rerank

import (
	"context"

	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在过滤后截取前 N 个候选。
// 候选已按距离升序排列，截断保留最近的 N 个。
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// 如果 N <= 0，则返回所有候选（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 {
		return items, nil
	}
	if len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
