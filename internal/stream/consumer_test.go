package stream

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"

	"betdesk/internal/config"
)

func TestParseMessage(t *testing.T) {
	xmsg := redis.XMessage{
		ID: "1700000000000-0",
		Values: map[string]interface{}{
			"opportunity": `{"id": 42, "sport_key": "basketball_nba", "edge_pct": 3.2, "legs": [{"book_key": "pinnacle", "price": 105}]}`,
		},
	}

	msg, err := parseMessage("opportunities.detected", xmsg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.ID != xmsg.ID || msg.StreamKey != "opportunities.detected" {
		t.Fatalf("unexpected envelope: %#v", msg)
	}
	if msg.Opportunity.ID != "42" || msg.Opportunity.BookKey() != "pinnacle" {
		t.Fatalf("unexpected opportunity: %#v", msg.Opportunity)
	}
}

func TestParseMessageFallsBackToStreamID(t *testing.T) {
	xmsg := redis.XMessage{ID: "5-1", Values: map[string]interface{}{"opportunity": `{"sport_key": "nfl"}`}}
	msg, err := parseMessage("s", xmsg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.Opportunity.ID != "5-1" {
		t.Fatalf("expected stream id as entity id, got %q", msg.Opportunity.ID)
	}
}

func TestParseMessageErrors(t *testing.T) {
	if _, err := parseMessage("s", redis.XMessage{ID: "1-0", Values: map[string]interface{}{}}); err == nil {
		t.Fatal("missing payload should fail")
	}
	if _, err := parseMessage("s", redis.XMessage{ID: "1-0", Values: map[string]interface{}{"opportunity": "{"}}); err == nil {
		t.Fatal("malformed payload should fail")
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(config.RedisConfig{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if _, err := NewClient(config.RedisConfig{URL: "http://nope"}); err == nil {
		t.Fatal("non redis scheme should fail")
	}
	client, err := NewClient(config.RedisConfig{URL: "redis://localhost:6379/0"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	_ = client.Close()
}
