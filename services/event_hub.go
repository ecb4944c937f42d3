package services

import (
	"log"
	"sync"
	"time"
)

type TeamEventType string

const (
	EventTeamCreated     TeamEventType = "team_created"
	EventTeamUpdated     TeamEventType = "team_updated"
	EventTeamDeleted     TeamEventType = "team_deleted"
	EventMemberAdded     TeamEventType = "member_added"
	EventMemberRemoved   TeamEventType = "member_removed"
	EventJoinRequested   TeamEventType = "join_requested"
	EventJoinCancelled   TeamEventType = "join_cancelled"
	EventJoinAccepted    TeamEventType = "join_accepted"
	EventJoinRejected    TeamEventType = "join_rejected"
	EventNotificationNew TeamEventType = "notification"
)

// TeamEvent tells subscribers that something changed; clients refetch the
// team rather than applying the event as a delta.
type TeamEvent struct {
	Type   TeamEventType `json:"type"`
	TeamID string        `json:"teamId,omitempty"`
	UserID string        `json:"userId,omitempty"`
	At     time.Time     `json:"at"`
}

// Subscription receives events for one topic until Close is called.
type Subscription struct {
	C     <-chan TeamEvent
	ch    chan TeamEvent
	topic string
	hub   *EventHub
	once  sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

// EventHub fans events out to in-process subscribers keyed by topic
// ("team:<id>" or "user:<id>"). Slow subscribers lose events instead of
// blocking publishers.
type EventHub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
}

func NewEventHub() *EventHub {
	return &EventHub{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: 16,
	}
}

func TeamTopic(teamID string) string { return "team:" + teamID }
func UserTopic(userID string) string { return "user:" + userID }

func (h *EventHub) Subscribe(topic string) *Subscription {
	ch := make(chan TeamEvent, h.buffer)
	sub := &Subscription{C: ch, ch: ch, topic: topic, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Subscription]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	return sub
}

func (h *EventHub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[sub.topic]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
	close(sub.ch)
}

// Publish delivers ev to every subscriber of topic without blocking.
func (h *EventHub) Publish(topic string, ev TeamEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
			log.Printf("event hub: dropping %s for slow subscriber on %s", ev.Type, topic)
		}
	}
}

// PublishTeam is shorthand for publishing on the team topic.
func (h *EventHub) PublishTeam(teamID string, typ TeamEventType, userID string) {
	h.Publish(TeamTopic(teamID), TeamEvent{Type: typ, TeamID: teamID, UserID: userID})
}

// Subscribers returns how many subscribers topic has.
func (h *EventHub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
