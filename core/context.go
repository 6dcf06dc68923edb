package core

import "github.com/cinematch/cinematch/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/场景信息，贯穿整个 Pipeline 透传。
// 画像通过显式字段传入，不走 ambient 上下文。
type RecommendContext struct {
	UserID string
	Scene  string

	// Query 是本次请求的有效查询文本（主题 + 喜欢影片拼接后的结果）。
	Query string

	// Profile 是用户画像；可以为 nil（匿名请求）。
	Profile *UserProfile

	// Liked / Disliked 是显式传入的已判定标题，优先于 Profile 使用。
	Liked    []string
	Disliked []string

	// Labels 是请求级标签，可驱动 Pipeline 行为。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（top_k、oversample 等）。
	Params map[string]any
}

// SeenTitles 返回本次请求应视为“已判定”的标题集合：
// 显式传入的 Liked/Disliked 加上画像中的两个列表。
func (rctx *RecommendContext) SeenTitles() []string {
	var out []string
	out = append(out, rctx.Liked...)
	out = append(out, rctx.Disliked...)
	if rctx.Profile != nil {
		out = append(out, rctx.Profile.LikedMovies...)
		out = append(out, rctx.Profile.DislikedMovies...)
	}
	return out
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
