package websocket

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Topics clients can subscribe to.
const (
	// TopicActivity streams the admin activity feed.
	TopicActivity = "activity"
	memberPrefix  = "member:"
)

// MemberTopic is the topic carrying dashboard updates for one user.
func MemberTopic(userID string) string {
	return memberPrefix + userID
}

// IsMemberTopic reports whether topic belongs to a single user.
func IsMemberTopic(topic string) bool {
	return strings.HasPrefix(topic, memberPrefix)
}

type publication struct {
	topic string
	data  []byte
}

// Hub maintains the set of active clients and fans messages out per topic.
// All state is owned by the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// A map of topics to the set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	publish    chan publication
	count      chan chan int
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan publication),
		count:         make(chan chan int),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			log.Info().Msg("Websocket hub stopped")
			return
		case client := <-h.register:
			h.clients[client] = true
			for _, topic := range client.Topics {
				h.addSubscription(client, topic)
			}
			log.Debug().Int("total_clients", len(h.clients)).Strs("topics", client.Topics).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Debug().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case p := <-h.publish:
			for client := range h.subscriptions[p.topic] {
				select {
				case client.Send <- p.data:
				default:
					log.Warn().Str("topic", p.topic).Msg("Dropping slow websocket client")
					h.drop(client)
				}
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

// Register adds a client and its topics.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish sends msg to every client subscribed to topic.
func (h *Hub) Publish(topic string, msg []byte) {
	select {
	case h.publish <- publication{topic: topic, data: msg}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.close()
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client, topic string) {
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[*Client]bool)
	}
	h.subscriptions[topic][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for topic, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, topic)
			}
		}
	}
}
