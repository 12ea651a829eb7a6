package core

// Tracker is any service that can record analytics events.
type Tracker interface {
	Track(userID, event string, properties map[string]interface{}) error
}
