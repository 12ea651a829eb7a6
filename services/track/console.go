package tracksvc

import (
	"github.com/darasa-app/darasa/core"
)

// ConsoleTracker logs events instead of shipping them; used in debug/test
// mode where no Segment key is configured.
type ConsoleTracker struct {
	logger core.Logger
}

var _ core.Tracker = (*ConsoleTracker)(nil)

func NewConsoleTracker(logger core.Logger) *ConsoleTracker {
	return &ConsoleTracker{logger: logger}
}

func (t *ConsoleTracker) Track(userID, event string, properties map[string]interface{}) error {
	t.logger.Debug("analytics event: "+event, map[string]interface{}{
		"user_id":    userID,
		"properties": properties,
	})
	return nil
}
