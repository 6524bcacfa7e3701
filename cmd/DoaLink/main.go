package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	https_server "DoaLink/api/http"
	"DoaLink/internal/config"
	"DoaLink/internal/initial"
	"DoaLink/internal/modules/doa/infrastructure/mq"
	"DoaLink/internal/modules/doa/infrastructure/mq/kafka"
	"DoaLink/internal/modules/doa/infrastructure/persistence"
	"DoaLink/internal/modules/doa/infrastructure/queue"
	"DoaLink/pkg/redis"
	"DoaLink/pkg/zlog"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()
	zlog.InitLogger(conf.LogConfig.LogPath)
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port

	// 2. 启动 HTTP 服务
	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		zlog.Info(fmt.Sprintf("服务器正在启动，监听地址: %s", addr))
		// 目前使用 HTTP 启动。如果需要 HTTPS，请配置证书并使用 GE.RunTLS
		if err := https_server.GE.Run(addr); err != nil {
			zlog.Fatal("服务器启动失败: " + err.Error())
			return
		}
	}()

	// 3. 启动 outbox relay（Kafka 配置了才开）
	relayCtx, cancelRelay := context.WithCancel(context.Background())
	var publisher mq.Publisher
	if len(conf.KafkaConfig.Brokers) > 0 && conf.KafkaConfig.ChatEventTopic != "" {
		if err := kafka.EnsureTopic(kafka.TopicAdminConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		}, conf.KafkaConfig.ChatEventTopic, conf.KafkaConfig.Partitions, conf.KafkaConfig.Replication); err != nil {
			zlog.Warn("kafka ensure topic failed: " + err.Error())
		}

		pub, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Warn("kafka publisher init failed: " + err.Error())
		} else {
			publisher = pub
			eventRepo := persistence.NewChatEventRepository(initial.GormDB)
			relay := queue.NewOutboxRelay(eventRepo, publisher, conf.KafkaConfig.ChatEventTopic, 200, 500*time.Millisecond)
			go func() {
				if err := relay.Run(relayCtx); err != nil && relayCtx.Err() == nil {
					zlog.Error("outbox relay stopped: " + err.Error())
				}
			}()
		}
	}

	// 4. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 等待退出信号
	<-quit

	zlog.Info("正在关闭服务器...")
	cancelRelay()
	if publisher != nil {
		_ = publisher.Close()
	}
	_ = redis.Close()

	zlog.Info("服务器已关闭")
}
