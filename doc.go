// Package cinematch 是对话式电影推荐助手的核心：
// 目录上的语义检索（embedding + flat 最近邻索引）、个性化推荐
// （口味偏置 + 已判定过滤），以及跨轮次演进的会话画像存储。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测
// - 显式状态传递: 会话与画像通过参数传递，不走 ambient 上下文
package cinematch

import "github.com/cinematch/cinematch/pipeline"

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
