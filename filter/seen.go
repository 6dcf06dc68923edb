package filter

import (
	"context"

	"github.com/cinematch/cinematch/core"
)

// SeenTitleFilter 过滤掉用户已判定过的影片，避免重复推荐。
// 匹配规则是标题的大小写敏感精确匹配。
// 标题来源：显式传入的 Titles 列表，加上 rctx 中的喜欢/不喜欢列表。
type SeenTitleFilter struct {
	// Titles 是额外的已判定标题（可选）。
	Titles []string
}

func (f *SeenTitleFilter) Name() string {
	return "filter.seen_title"
}

func (f *SeenTitleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, title := range f.Titles {
		if item.Title == title {
			return true, nil
		}
	}
	if rctx != nil {
		for _, title := range rctx.SeenTitles() {
			if item.Title == title {
				return true, nil
			}
		}
	}
	return false, nil
}
