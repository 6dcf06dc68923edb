package core

// Movie 是影片目录中的一条不可变记录。
// 目录在进程启动时一次性加载，加载后只读；Title 不保证唯一，
// 按标题查找时返回第一条匹配。
type Movie struct {
	Title    string
	Genre    string
	StarCast string
	Director string

	// Rating 是 IMDb 评分；目录中可能缺失，缺失时为 nil。
	Rating *float64

	// GeneratedPlot 是生成的剧情概要，可能为空。
	GeneratedPlot string
}

// DescriptiveText 返回用于 embedding 的描述文本。
// usePlot 为 true 时使用 剧情|类型 拼接（语义信息更强）；
// 否则回退到 标题|类型|演员|导演 拼接。
func (m *Movie) DescriptiveText(usePlot bool) string {
	if usePlot {
		return m.GeneratedPlot + " | " + m.Genre
	}
	return m.Title + " | " + m.Genre + " | " + m.StarCast + " | " + m.Director
}

// RatingInfo 是评分查询的结果。未命中时不返回 RatingInfo，
// 而是由调用方得到 not-found（值语义，不抛错误）。
type RatingInfo struct {
	Title  string `json:"title"`
	Rating string `json:"rating"`
	Votes  string `json:"votes"`
}

// SearchResult 是关键词检索的单条结果，面向编排层的展示需求：
// 标题、剧情（缺失时为占位文案）、通用描述。
type SearchResult struct {
	Title       string `json:"title"`
	Plot        string `json:"plot"`
	Description string `json:"description"`
}
