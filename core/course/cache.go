package course

import "sync"

type outlineCacheKey struct {
	userID string
	course CourseKey
}

// OutlineCache memoizes decorated outline trees, keyed by (user, course).
// It is owned by its caller and lives exactly as long as the caller wants it
// to (typically one request); there is no invalidation beyond that lifetime.
// A nil cache disables memoization.
type OutlineCache struct {
	mutex sync.RWMutex
	trees map[outlineCacheKey]*Block
}

func NewOutlineCache() *OutlineCache {
	return &OutlineCache{trees: make(map[outlineCacheKey]*Block)}
}

func (c *OutlineCache) get(userID string, course CourseKey) (*Block, bool) {
	if c == nil {
		return nil, false
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	block, ok := c.trees[outlineCacheKey{userID, course}]
	return block, ok
}

func (c *OutlineCache) put(userID string, course CourseKey, block *Block) {
	if c == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.trees[outlineCacheKey{userID, course}] = block
}
