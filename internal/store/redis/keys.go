package redis

const (
	// KeyPrefix namespaces every key this service writes
	KeyPrefix = "registry:"
	// ChannelEvents is the pub/sub channel registry events are published on
	ChannelEvents = KeyPrefix + "events"
	// KeyRecentEvents is the capped list of the most recent events (newest first)
	KeyRecentEvents = KeyPrefix + "events:recent"
)

// EventsChannel returns the channel events are published on
func EventsChannel() string {
	return ChannelEvents
}

// RecentEventsKey returns the key of the capped recent events list
func RecentEventsKey() string {
	return KeyRecentEvents
}
