package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNoApplication(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithApplication(ctx, nil))

	// Reporting without an application or transaction does nothing.
	RecordEvent(ctx, "Event", map[string]interface{}{"key": "value"})
	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)

	tracer := TraceMethodCall(ctx, "metrics", "Test")
	assert.Nil(t, tracer)
	tracer.AddAttributes(map[string]interface{}{"key": "value"})
	tracer.OnError(errors.New("ignored"))
	tracer.End()
}

func TestForwardedMessage(t *testing.T) {
	entry := logrus.NewEntry(logrus.StandardLogger())
	entry.Message = "submission did not confirm"
	assert.Equal(t, "submission did not confirm", forwardedMessage(entry))

	entry = entry.WithError(errors.New("expired")).WithField("attempt", 2)
	entry.Message = "submission did not confirm"
	assert.Equal(
		t,
		`message="submission did not confirm", error="expired", data={"attempt":2}`,
		forwardedMessage(entry),
	)

	entry = logrus.NewEntry(logrus.StandardLogger()).WithField("state", "sent")
	entry.Message = "state changed"
	assert.Equal(t, `message="state changed", error=<nil>, data={"state":"sent"}`, forwardedMessage(entry))
}
