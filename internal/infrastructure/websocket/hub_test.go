package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, conn *Connection) []byte {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "send channel closed")
		return data
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHub_BroadcastToTopic(t *testing.T) {
	hub := startHub(t)

	docs := NewConnection(TopicDocuments)
	other := NewConnection("other")
	hub.Register(docs)
	hub.Register(other)

	require.NoError(t, hub.Broadcast(TopicDocuments, map[string]string{"type": "document_ingested"}))

	var msg map[string]string
	require.NoError(t, json.Unmarshal(receive(t, docs), &msg))
	assert.Equal(t, "document_ingested", msg["type"])

	select {
	case <-other.Send:
		t.Fatal("other topic should not receive the message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)

	conn := NewConnection(TopicDocuments)
	hub.Register(conn)
	assert.Eventually(t, func() bool { return hub.Subscribers(TopicDocuments) == 1 }, time.Second, 10*time.Millisecond)

	hub.Unregister(conn)
	assert.Eventually(t, func() bool { return hub.Subscribers(TopicDocuments) == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-conn.Send
	assert.False(t, ok, "send channel should be closed")
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := startHub(t)

	conn := NewConnection(TopicDocuments)
	hub.Register(conn)

	for i := 0; i <= sendBufferSize; i++ {
		require.NoError(t, hub.Broadcast(TopicDocuments, i))
	}

	assert.Eventually(t, func() bool { return hub.Subscribers(TopicDocuments) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesConnections(t *testing.T) {
	hub := NewHub()
	hub.Start()

	conn := NewConnection(TopicDocuments)
	hub.Register(conn)
	hub.Stop()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-conn.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// 停止后广播不阻塞
	assert.NoError(t, hub.Broadcast(TopicDocuments, "late"))
}
