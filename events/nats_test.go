// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/danielhkuo/quickly-vote/models"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNATSBus_AcrossConnections(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSBus(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	sub, err := NewNATSBus(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(TopicVoteCastAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	evt := models.MutationEvent{CategoryID: "c1", NomineeID: "n2", VoteID: "v9"}
	if err := pub.Publish(context.Background(), VoteCastTopic("c1"), evt); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	pub.conn.Flush()

	select {
	case msg := <-ch:
		var got models.MutationEvent
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if got.CategoryID != evt.CategoryID || got.NomineeID != evt.NomineeID || got.VoteID != evt.VoteID {
			t.Errorf("got %+v, want %+v", got, evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestNATSBus_Cancel(t *testing.T) {
	url := startTestNATS(t)

	bus, err := NewNATSBus(url)
	if err != nil {
		t.Fatalf("creating bus: %v", err)
	}
	defer bus.Close()

	ch, cancel, err := bus.Subscribe(TopicSettingsChanged)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestNewNATSBus_BadURL(t *testing.T) {
	if _, err := NewNATSBus("nats://127.0.0.1:1", nats.Timeout(500*time.Millisecond)); err == nil {
		t.Error("expected connection error")
	}
}
