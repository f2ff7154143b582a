package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Publisher 基于Watermill gochannel的进程内事件发布器（对外导出）
type Publisher struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewPublisher 创建事件发布器
func NewPublisher(debug bool) *Publisher {
	logger := watermill.NewStdLogger(debug, false)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)
	return &Publisher{pubsub: pubsub, logger: logger}
}

// Publish 发布审批迁移事件
func (p *Publisher) Publish(ev *AuditEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化审批事件失败: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubsub.Publish(TopicAuditTransitions, msg); err != nil {
		return fmt.Errorf("发布审批事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅审批迁移事件
func (p *Publisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := p.pubsub.Subscribe(ctx, TopicAuditTransitions)
	if err != nil {
		return nil, fmt.Errorf("订阅审批事件失败: %w", err)
	}
	return ch, nil
}

// Close 关闭事件总线
func (p *Publisher) Close() error {
	return p.pubsub.Close()
}

// DecodeEvent 反序列化审批迁移事件
func DecodeEvent(msg *message.Message) (*AuditEvent, error) {
	var ev AuditEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("解析审批事件失败: %w", err)
	}
	return &ev, nil
}
