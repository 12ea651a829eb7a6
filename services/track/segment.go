// Package tracksvc records analytics events.
package tracksvc

import (
	"github.com/pkg/errors"
	analytics "gopkg.in/segmentio/analytics-go.v3"

	"github.com/darasa-app/darasa/core"
)

type SegmentTracker struct {
	client analytics.Client
}

var _ core.Tracker = (*SegmentTracker)(nil)

func NewSegmentTracker(conf *core.Config) *SegmentTracker {
	return &SegmentTracker{client: analytics.New(conf.SegmentWriteKey)}
}

func (t *SegmentTracker) Track(userID, event string, properties map[string]interface{}) error {
	err := t.client.Enqueue(analytics.Track{
		UserId:     userID,
		Event:      event,
		Properties: properties,
	})
	return errors.Wrapf(err, "enqueueing event %s", event)
}

// Close flushes pending events; call it on shutdown.
func (t *SegmentTracker) Close() error {
	return errors.Wrap(t.client.Close(), "closing segment client")
}
