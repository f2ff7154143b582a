package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/events"
)

func TestPublisher_PublishSubscribe(t *testing.T) {
	pub := events.NewPublisher(false)
	t.Cleanup(func() { pub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	msgs, err := pub.Subscribe(ctx)
	require.NoError(t, err)

	rec := &audit.WorkflowAudit{
		AuditID:      "audit-1",
		WorkflowID:   100,
		WorkflowType: audit.TypeSQLReview,
		Title:        "测试工单",
		Status:       audit.StatusWaiting,
	}
	require.NoError(t, pub.Publish(events.NewAuditEvent(rec, audit.ActionSubmit, "some_user")))

	select {
	case msg := <-msgs:
		ev, err := events.DecodeEvent(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, "audit-1", ev.AuditID)
		assert.Equal(t, int64(100), ev.WorkflowID)
		assert.Equal(t, audit.ActionSubmit, ev.Action)
		assert.Equal(t, audit.StatusWaiting, ev.Status)
		assert.Equal(t, "some_user", ev.Operator)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(3 * time.Second):
		t.Fatal("等待审批事件超时")
	}
}

func TestDecodeEvent_Invalid(t *testing.T) {
	pub := events.NewPublisher(false)
	t.Cleanup(func() { pub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	msgs, err := pub.Subscribe(ctx)
	require.NoError(t, err)

	rec := &audit.WorkflowAudit{AuditID: "audit-1"}
	require.NoError(t, pub.Publish(events.NewAuditEvent(rec, audit.ActionPass, "u")))

	select {
	case msg := <-msgs:
		msg.Payload = []byte("{not json")
		_, err := events.DecodeEvent(msg)
		require.Error(t, err)
		msg.Ack()
	case <-time.After(3 * time.Second):
		t.Fatal("等待审批事件超时")
	}
}
