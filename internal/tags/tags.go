// Package tags implements tag-based configuration: tags are attached
// to discord objects to change how the bot treats them, like roles
// but for more than just users.
package tags

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ChannelTag configures a discord channel.
type ChannelTag string

const (
	// ChannelNoTrack excludes a channel from message and voice stat
	// tracking. Applies to a channel's category as well.
	ChannelNoTrack ChannelTag = "NoTrack"
	// ChannelGuildMemberLog marks a channel for roster join/leave logs.
	ChannelGuildMemberLog ChannelTag = "GuildMemberLog"
	// ChannelGuildLevelLog marks a channel for guild level up logs.
	ChannelGuildLevelLog ChannelTag = "GuildLevelLog"
	// ChannelXPLog marks a channel for xp contribution logs.
	ChannelXPLog ChannelTag = "XpLog"
	// ChannelSummary marks a channel for weekly summary posts.
	ChannelSummary ChannelTag = "Summary"
)

// ChannelTags lists all channel tags.
var ChannelTags = []ChannelTag{
	ChannelNoTrack, ChannelGuildMemberLog, ChannelGuildLevelLog, ChannelXPLog, ChannelSummary,
}

// ParseChannelTag parses a tag name.
func ParseChannelTag(s string) (ChannelTag, error) {
	for _, tag := range ChannelTags {
		if string(tag) == s {
			return tag, nil
		}
	}
	return "", fmt.Errorf("unknown channel tag: %q", s)
}

// TagMap maps objects to their attached tags.
type TagMap[T comparable] struct {
	Objects map[int64][]T
}

func newTagMap[T comparable]() TagMap[T] {
	return TagMap[T]{Objects: make(map[int64][]T)}
}

// Tagged reports whether an object has the given tag.
func (m *TagMap[T]) Tagged(obj int64, tag T) bool {
	for _, t := range m.Objects[obj] {
		if t == tag {
			return true
		}
	}
	return false
}

// Add attaches a tag to an object. Adding a tag twice is a no-op.
func (m *TagMap[T]) Add(obj int64, tag T) {
	if m.Tagged(obj, tag) {
		return
	}
	m.Objects[obj] = append(m.Objects[obj], tag)
}

// Remove detaches a tag from an object, reporting whether it was
// attached.
func (m *TagMap[T]) Remove(obj int64, tag T) bool {
	tagList := m.Objects[obj]
	for i, t := range tagList {
		if t == tag {
			m.Objects[obj] = append(tagList[:i], tagList[i+1:]...)
			if len(m.Objects[obj]) == 0 {
				delete(m.Objects, obj)
			}
			return true
		}
	}
	return false
}

// RemoveAll detaches every tag from an object. Used when the object
// is deleted on discord.
func (m *TagMap[T]) RemoveAll(obj int64) {
	delete(m.Objects, obj)
}

// TaggedObjects returns the objects carrying the given tag.
func (m *TagMap[T]) TaggedObjects(tag T) []int64 {
	var out []int64
	for obj := range m.Objects {
		if m.Tagged(obj, tag) {
			out = append(out, obj)
		}
	}
	return out
}

// Store holds the bot's tag configuration and persists it as JSON.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	path     string
	channels TagMap[ChannelTag]
}

// Load reads the tag configuration at path, starting empty when the
// file does not exist yet.
func Load(path string) (*Store, error) {
	s := &Store{path: path, channels: newTagMap[ChannelTag]()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tag config: %w", err)
	}
	if err := json.Unmarshal(data, &s.channels); err != nil {
		return nil, fmt.Errorf("failed to parse tag config: %w", err)
	}
	if s.channels.Objects == nil {
		s.channels.Objects = make(map[int64][]ChannelTag)
	}
	return s, nil
}

// Save writes the tag configuration back to its file.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(&s.channels, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode tag config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create tag config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write tag config: %w", err)
	}
	return nil
}

// AddChannelTag attaches a tag to a channel.
func (s *Store) AddChannelTag(channelID int64, tag ChannelTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels.Add(channelID, tag)
}

// RemoveChannelTag detaches a tag from a channel.
func (s *Store) RemoveChannelTag(channelID int64, tag ChannelTag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels.Remove(channelID, tag)
}

// ForgetChannel drops all tags of a deleted channel.
func (s *Store) ForgetChannel(channelID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels.RemoveAll(channelID)
}

// ChannelsTagged returns the channels carrying the given tag.
func (s *Store) ChannelsTagged(tag ChannelTag) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels.TaggedObjects(tag)
}

// TrackedChannel reports whether stats may be tracked in a channel.
// A channel is tracked unless it, or one of the given parents (its
// category), carries the NoTrack tag.
func (s *Store) TrackedChannel(channelID int64, parents ...int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.channels.Tagged(channelID, ChannelNoTrack) {
		return false
	}
	for _, parent := range parents {
		if s.channels.Tagged(parent, ChannelNoTrack) {
			return false
		}
	}
	return true
}
