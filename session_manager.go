package main

import (
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// 会话空闲超过这个时长就在下次新建会话时顺手回收。
// MCP 的 HTTP 客户端断开时不会通知服务端，不回收的话 map 只增不减。
const sessionIdleTimeout = 2 * time.Hour

type sessionEntry struct {
	server   *mcp.Server
	lastSeen time.Time
}

// SessionManager 按 X-Session-Id 维护每个客户端各自的 MCP Server 实例。
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionEntry
	appServer *AppServer
	now       func() time.Time
}

// NewSessionManager 创建会话管理器。
func NewSessionManager(appServer *AppServer) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*sessionEntry),
		appServer: appServer,
		now:       time.Now,
	}
}

// GetOrCreateSession 获取或创建会话，并刷新其活跃时间。
// 新建会话时顺带回收空闲过久的旧会话。
func (sm *SessionManager) GetOrCreateSession(sessionID string) *mcp.Server {
	sm.mu.RLock()
	entry, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if exists {
		sm.mu.Lock()
		entry.lastSeen = sm.now()
		sm.mu.Unlock()
		return entry.server
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// 再次检查，避免竞态条件
	if entry, exists = sm.sessions[sessionID]; exists {
		entry.lastSeen = sm.now()
		return entry.server
	}

	sm.evictIdleLocked()

	entry = &sessionEntry{
		server:   InitMCPServer(sm.appServer),
		lastSeen: sm.now(),
	}
	sm.sessions[sessionID] = entry

	return entry.server
}

// RemoveSession 删除会话。
func (sm *SessionManager) RemoveSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sessionID)
}

// Count 当前会话数。
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// evictIdleLocked 回收空闲超时的会话，调用方持有写锁。
func (sm *SessionManager) evictIdleLocked() {
	cutoff := sm.now().Add(-sessionIdleTimeout)
	for id, entry := range sm.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(sm.sessions, id)
			logrus.Debugf("回收空闲 MCP 会话: %s", id)
		}
	}
}
