package attrs

import (
	"time"

	"github.com/mwantia/dfs/data"
)

// BeginWrite records that the file was opened for writing: it exists, its
// date is now and, unless appending, its size is zero. Synchronisation is
// suppressed until EndWrite.
func (c *Cache) BeginWrite(truncate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Exists = true
	c.snap.IsDir = false
	c.snap.ModTime = c.now()
	if truncate {
		c.snap.Size = 0
	}
	c.writing = true
}

// AddWritten accounts for n bytes written.
func (c *Cache) AddWritten(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Size += n
	c.snap.ModTime = c.now()
}

// EndWrite lifts the synchronisation suppression.
func (c *Cache) EndWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writing = false
}

// MarkDeleted records that the file no longer exists.
func (c *Cache) MarkDeleted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Exists = false
	c.snap.IsDir = false
	c.snap.Size = 0
}

// MarkDirectory records that the file was created as a directory.
func (c *Cache) MarkDirectory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Exists = true
	c.snap.IsDir = true
	c.snap.ModTime = c.now()
	c.snap.Size = 0
}

// SetModTime records a new modification time.
func (c *Cache) SetModTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.ModTime = t
}

// SetPermissions records new permission bits.
func (c *Cache) SetPermissions(perm data.Permissions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Permissions = perm.Mask()
}

// Set replaces every attribute with snap and marks the cache fresh.
func (c *Cache) Set(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setLocked(snap)
}
