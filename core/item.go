package core

import "github.com/cinematch/cinematch/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选影片、距离、元信息、标签。
// Distance 是候选与查询向量的欧氏距离（越小越相近），决定最终排序；
// Labels 用于解释与策略驱动。
type Item struct {
	Row      int     // 目录行号（与 embedding 矩阵行号一一对应）
	Title    string  // 影片标题
	Distance float64 // 与查询向量的距离（升序排列）
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(row int, title string) *Item {
	return &Item{
		Row:    row,
		Title:  title,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
