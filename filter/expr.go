package filter

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/cinematch/cinematch/core"
)

// ExprFilter 是表达式过滤器，使用 CEL (Common Expression Language)
// 表达候选排除规则。表达式返回 true 表示该候选被过滤掉。
//
// 可用变量：
//   - item: 候选属性 map（title / genre / rating / distance）
//   - label: 候选标签 map（key -> value 字符串）
//
// 示例：
//   - `item.rating < 6.0` → 过滤低分影片
//   - `item.genre.contains("Horror")` → 过滤恐怖片
//   - `label.recall_source == "genre" && item.rating < 7.0`
type ExprFilter struct {
	expr string
	prg  cel.Program
}

// NewExprFilter 创建并编译表达式过滤器。表达式在构建时编译一次，
// 每个候选只做求值。
func NewExprFilter(expr string) (*ExprFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
	)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}

	return &ExprFilter{expr: expr, prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	out, _, err := f.prg.Eval(f.buildInput(item))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
// 所有键始终存在（缺失属性给零值），避免表达式因键缺失报错。
func (f *ExprFilter) buildInput(item *core.Item) map[string]any {
	rating := 0.0
	if v, ok := item.Meta["rating"].(float64); ok {
		rating = v
	}
	genre := ""
	if v, ok := item.Meta["genre"].(string); ok {
		genre = v
	}

	labels := make(map[string]string, len(item.Labels))
	for k, lbl := range item.Labels {
		labels[k] = lbl.Value
	}

	return map[string]any{
		"item": map[string]any{
			"title":    item.Title,
			"genre":    genre,
			"rating":   rating,
			"distance": item.Distance,
		},
		"label": labels,
	}
}
