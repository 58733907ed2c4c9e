package whatsapp

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedMsg(chatJID string, messageID string, text string) *CachedMessage {
	return &CachedMessage{
		MessageID: messageID,
		ChatJID:   chatJID,
		SenderJID: "6281234567890@s.whatsapp.net",
		Timestamp: time.Now(),
		Text:      text,
	}
}

func TestMessageCacheCapacityClamp(t *testing.T) {
	c := NewMessageCache(3, 0)
	assert.Equal(t, minMessageCacheCapacity, c.capacity)

	c = NewMessageCache(0, 0)
	assert.Equal(t, defaultMessageCacheCapacity, c.capacity)
}

func TestMessageCacheEvictsOldestFirst(t *testing.T) {
	c := NewMessageCache(minMessageCacheCapacity, 0)

	for i := 0; i < minMessageCacheCapacity+3; i++ {
		c.Add(cachedMsg("120363021033254949@g.us", fmt.Sprintf("MSG%03d", i), "hello"))
	}

	assert.Equal(t, minMessageCacheCapacity, c.Len())

	// The three oldest entries are gone, the fourth survives
	for i := 0; i < 3; i++ {
		_, ok := c.Get("120363021033254949@g.us", fmt.Sprintf("MSG%03d", i))
		assert.False(t, ok, "entry %d should have been evicted", i)
	}
	_, ok := c.Get("120363021033254949@g.us", "MSG003")
	assert.True(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(minMessageCacheCapacity+3), stats.Inserts)
	assert.Equal(t, uint64(3), stats.Evicted)
}

func TestMessageCacheUpdateInPlace(t *testing.T) {
	c := NewMessageCache(minMessageCacheCapacity, 0)

	first := cachedMsg("6281234567890@s.whatsapp.net", "MSGA", "original")
	first.StoredAt = time.Now().Add(-time.Minute)
	c.Add(first)
	c.Add(cachedMsg("6281234567890@s.whatsapp.net", "MSGB", "second"))

	// Re-adding the same chat+id replaces the value without a new slot
	updated := cachedMsg("6281234567890@s.whatsapp.net", "MSGA", "edited")
	c.Add(updated)

	assert.Equal(t, 2, c.Len())

	got, ok := c.Get("6281234567890@s.whatsapp.net", "MSGA")
	require.True(t, ok)
	assert.Equal(t, "edited", got.Text)
	assert.Equal(t, first.StoredAt, got.StoredAt, "update keeps the original age")

	// MSGA kept its place at the head of the insertion order
	recent := c.Recent("6281234567890@s.whatsapp.net", 10)
	require.Len(t, recent, 2)
	assert.Equal(t, "MSGB", recent[0].MessageID)
	assert.Equal(t, "MSGA", recent[1].MessageID)
}

func TestMessageCacheSameIDAcrossChats(t *testing.T) {
	c := NewMessageCache(minMessageCacheCapacity, 0)

	c.Add(cachedMsg("6281234567890@s.whatsapp.net", "MSGX", "personal"))
	c.Add(cachedMsg("120363021033254949@g.us", "MSGX", "group"))

	assert.Equal(t, 2, c.Len(), "same id in different chats are distinct entries")

	// Find resolves duplicate ids to the most recently stored one
	found, ok := c.Find("MSGX")
	require.True(t, ok)
	assert.Equal(t, "120363021033254949@g.us", found.ChatJID)
}

func TestMessageCacheRecent(t *testing.T) {
	c := NewMessageCache(minMessageCacheCapacity, 0)

	for i := 0; i < 5; i++ {
		c.Add(cachedMsg("6281234567890@s.whatsapp.net", fmt.Sprintf("PERSONAL%d", i), "p"))
		c.Add(cachedMsg("120363021033254949@g.us", fmt.Sprintf("GROUP%d", i), "g"))
	}

	recent := c.Recent("120363021033254949@g.us", 3)
	require.Len(t, recent, 3)
	assert.Equal(t, "GROUP4", recent[0].MessageID)
	assert.Equal(t, "GROUP3", recent[1].MessageID)
	assert.Equal(t, "GROUP2", recent[2].MessageID)

	// Empty chat filter returns across all chats, newest first
	all := c.Recent("", 100)
	require.Len(t, all, 10)
	assert.Equal(t, "GROUP4", all[0].MessageID)
	assert.Equal(t, "PERSONAL4", all[1].MessageID)

	// Non-positive limit falls back to the default window
	assert.Len(t, c.Recent("", 0), 10)
}

func TestMessageCacheSweep(t *testing.T) {
	c := NewMessageCache(minMessageCacheCapacity, time.Minute)

	stale := cachedMsg("6281234567890@s.whatsapp.net", "OLD1", "stale")
	stale.StoredAt = time.Now().Add(-time.Hour)
	c.Add(stale)

	stale2 := cachedMsg("6281234567890@s.whatsapp.net", "OLD2", "stale")
	stale2.StoredAt = time.Now().Add(-2 * time.Minute)
	c.Add(stale2)

	c.Add(cachedMsg("6281234567890@s.whatsapp.net", "FRESH", "fresh"))

	removed := c.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("6281234567890@s.whatsapp.net", "FRESH")
	assert.True(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Evicted)
}

func TestMessageCacheSweepWithoutTTL(t *testing.T) {
	c := NewMessageCache(minMessageCacheCapacity, 0)

	stale := cachedMsg("6281234567890@s.whatsapp.net", "OLD1", "stale")
	stale.StoredAt = time.Now().Add(-24 * time.Hour)
	c.Add(stale)

	assert.Equal(t, 0, c.Sweep(), "no TTL means nothing expires")
	assert.Equal(t, 1, c.Len())
}

func TestMessageCacheIgnoresIncompleteEntries(t *testing.T) {
	c := NewMessageCache(minMessageCacheCapacity, 0)

	c.Add(nil)
	c.Add(&CachedMessage{MessageID: "MSGA"})
	c.Add(&CachedMessage{ChatJID: "6281234567890@s.whatsapp.net"})

	assert.Equal(t, 0, c.Len())
}
