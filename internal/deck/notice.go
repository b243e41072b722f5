// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package deck

// Notice levels. They match the flash types the studio renders.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// maxNotices bounds the queue when nobody drains it.
const maxNotices = 20

// Notice is a transient user-visible message.
type Notice struct {
	Level   string
	Message string
}

// Drain returns and clears the queued notices.
func (c *Controller) Drain() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

// notify queues a notice. The caller holds c.mu.
func (c *Controller) notify(level, msg string) {
	c.notices = append(c.notices, Notice{Level: level, Message: msg})
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
}

// post queues a notice, taking the lock.
func (c *Controller) post(level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify(level, msg)
}
