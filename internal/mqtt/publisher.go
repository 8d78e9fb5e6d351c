package mqtt

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/config"
)

// Publisher 状态广播的 MQTT 推送端（可选，MQTT_ENABLED 控制）
// 订阅方（机房大屏、外部看板）收到的消息与 websocket 广播同构
type Publisher struct {
	client mqtt.Client
	config *config.MQTTConfig
	logger *zap.Logger
}

// NewPublisher 创建并连接 MQTT 推送端
func NewPublisher(cfg *config.MQTTConfig, logger *zap.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.Info("Connected to MQTT broker",
		zap.String("broker", cfg.Broker),
		zap.String("topic", cfg.Topic),
	)

	return &Publisher{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// PublishStatus 把聚合快照发布到配置的主题
func (p *Publisher) PublishStatus(payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal status payload: %w", err)
	}

	token := p.client.Publish(p.config.Topic, p.config.QoS, false, raw)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.config.Topic, token.Error())
	}
	return nil
}

// IsConnected 检查连接状态
func (p *Publisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Disconnect 断开连接
func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
}
