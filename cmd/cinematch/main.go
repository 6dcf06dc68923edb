package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/catalog"
	"github.com/cinematch/cinematch/config"
	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/embedding"
	"github.com/cinematch/cinematch/engine"
	"github.com/cinematch/cinematch/server"
	"github.com/cinematch/cinematch/session"
	"github.com/cinematch/cinematch/tools"
	"github.com/cinematch/cinematch/vector"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := run(*configPath, logger); err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
}

func run(configPath string, logger zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 目录加载失败会降级为空目录，进程照常启动
	cat := catalog.New(cfg.Data.CatalogPath, logger)

	enc := embedding.NewEncoder(cfg.Embedding.Dimension)
	retriever, err := vector.NewRetriever(cat, enc, vector.Options{
		EmbeddingPath: cfg.Data.EmbeddingPath,
		IndexPath:     cfg.Data.IndexPath,
		Logger:        logger,
	})
	if err != nil {
		// 缓存与当前 scheme 不兼容属于不可恢复的启动错误，宁可
		// fail fast 也不要带着损坏的索引继续服务
		return fmt.Errorf("init retriever: %w", err)
	}

	eng, err := engine.New(retriever, cat, engine.Options{
		TopK:       cfg.Recommend.TopK,
		Oversample: cfg.Recommend.Oversample,
		FilterExpr: cfg.Recommend.FilterExpr,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	sessions, err := newSessionService(cfg, logger)
	if err != nil {
		return fmt.Errorf("init session store: %w", err)
	}
	defer sessions.Close()

	toolset := tools.New(cat, eng, sessions, logger)

	// 占位分发器：把每条消息当作推荐查询处理。
	// 接入语言驱动的编排层时替换成真正的意图分发实现。
	dispatcher := server.DispatcherFunc(func(ctx context.Context, sess *core.Session, message string) (string, error) {
		var liked, disliked []string
		if sess.Profile != nil {
			liked = sess.Profile.LikedMovies
			disliked = sess.Profile.DislikedMovies
		}
		result, err := toolset.RecommendMovies(ctx, message, liked, disliked)
		if err != nil {
			return "", err
		}
		if len(result.Recommendations) == 0 {
			return "Sorry, no recommendations found for that request.", nil
		}
		titles := make([]string, 0, len(result.Recommendations))
		for _, rec := range result.Recommendations {
			titles = append(titles, rec.Title)
		}
		return "You might enjoy: " + strings.Join(titles, ", "), nil
	})

	srv := server.New(cfg.Server.AppName, sessions, dispatcher, logger)

	logger.Info().Str("addr", cfg.Server.Addr).Msg("movie chatbot serving")
	return http.ListenAndServe(cfg.Server.Addr, srv.Router())
}

func newSessionService(cfg *config.Config, logger zerolog.Logger) (core.SessionService, error) {
	switch cfg.Session.Backend {
	case "", "memory":
		return session.NewMemoryService(logger), nil
	case "redis":
		return session.NewRedisService(cfg.Session.RedisAddr, cfg.Session.RedisDB, logger)
	default:
		return nil, fmt.Errorf("unknown session backend: %q", cfg.Session.Backend)
	}
}
