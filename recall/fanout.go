package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/pipeline"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按源顺序合并结果。
// 合并是确定性的：Sources 下标越小优先级越高，同标题去重时保留
// 高优先级源的候选；源内部顺序原样保留。
type Fanout struct {
	Sources []Source
	Dedup   bool
	Timeout time.Duration // 每个召回源的超时时间，0 表示不设超时
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 每个源写入独立槽位，合并时按源顺序遍历，结果与串行执行一致
	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range n.Sources {
		slot := i
		s := src

		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 单个召回源失败/超时不阻断其他源
				return nil
			}
			results[slot] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if !n.Dedup {
		var all []*core.Item
		for _, items := range results {
			all = append(all, items...)
		}
		return all, nil
	}

	seen := make(map[string]*core.Item)
	var out []*core.Item
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if old, ok := seen[it.Title]; ok {
				// 低优先级源重复命中：合并标签，保留既有候选
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			seen[it.Title] = it
			out = append(out, it)
		}
	}
	return out, nil
}
