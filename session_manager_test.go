package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerReusesSession(t *testing.T) {
	svc, _ := newTestService(t, fastTestSettings())
	sm := NewSessionManager(&AppServer{imageService: svc})

	a := sm.GetOrCreateSession("client-a")
	b := sm.GetOrCreateSession("client-b")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotSame(t, a, b)

	// 同一个会话 ID 拿到同一个实例
	assert.Same(t, a, sm.GetOrCreateSession("client-a"))
	assert.Equal(t, 2, sm.Count())

	sm.RemoveSession("client-a")
	assert.Equal(t, 1, sm.Count())
}

func TestSessionManagerEvictsIdleSessions(t *testing.T) {
	svc, _ := newTestService(t, fastTestSettings())
	sm := NewSessionManager(&AppServer{imageService: svc})

	current := time.Now()
	sm.now = func() time.Time { return current }

	sm.GetOrCreateSession("stale")
	sm.GetOrCreateSession("kept")

	// stale 超时，kept 在超时前被访问过
	current = current.Add(sessionIdleTimeout - time.Minute)
	sm.GetOrCreateSession("kept")
	current = current.Add(2 * time.Minute)

	// 新建会话触发回收
	sm.GetOrCreateSession("fresh")

	assert.Equal(t, 2, sm.Count())
	assert.Same(t, sm.GetOrCreateSession("kept"), sm.GetOrCreateSession("kept"))
	_, staleAlive := sm.sessions["stale"]
	assert.False(t, staleAlive)
}
