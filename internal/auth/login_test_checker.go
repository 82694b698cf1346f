package auth

import (
	"context"
	"sync"
)

// LoginTestChecker is an in-memory Checker for tests and local development
type LoginTestChecker struct {
	mutex          sync.RWMutex
	loggedSessions map[string]bool
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		loggedSessions: map[string]bool{},
	}
}

func (c *LoginTestChecker) SetLogged(token string, logged bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.loggedSessions[token] = logged
}

func (c *LoginTestChecker) IsLogged(_ context.Context, token string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.loggedSessions[token], nil
}
