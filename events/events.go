// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"strings"
)

// Event topic constants
const (
	TopicVoteCastPrefix  = "votes.cast."
	TopicVoteCastAll     = "votes.cast.>"
	TopicSettingsChanged = "settings.changed"
)

// VoteCastTopic is the subject for commits in one category.
func VoteCastTopic(categoryID string) string {
	return TopicVoteCastPrefix + categoryID
}

// SettingsChanged is published after an administrator writes a setting.
type SettingsChanged struct {
	Key     string `json:"key"`
	Version int64  `json:"version"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// Bus is both ends of an event bus.
type Bus interface {
	Publisher
	Subscriber
}

// matchTopic implements the subset of NATS subject matching used here:
// "*" matches one token and a trailing ">" matches one or more.
func matchTopic(pattern, topic string) bool {
	pt := strings.Split(pattern, ".")
	tt := strings.Split(topic, ".")
	for i, p := range pt {
		if p == ">" {
			return i == len(pt)-1 && len(tt) > i
		}
		if i >= len(tt) {
			return false
		}
		if p != "*" && p != tt[i] {
			return false
		}
	}
	return len(pt) == len(tt)
}
