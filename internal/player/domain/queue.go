package domain

// QueueEntry is a track's placement in the current queue. Position is
// insertion order after rotation, not a sort key.
type QueueEntry struct {
	Track    *Track
	Position int
}

// Queue manages tracks using an index-based model. Instead of removing
// tracks when they finish, a cursor advances through the entry list,
// which enables repeat and shuffle without losing the original order.
type Queue struct {
	entries []QueueEntry
	cursor  int
}

// BuildQueue constructs a queue from the given tracks so that the track
// at startIndex becomes position 0 and the remainder wraps around in the
// original order. Tracks without a playable locator are filtered out, and
// adjacent duplicates (by track identity) are suppressed post-rotation.
// Returns nil if no playable entries remain.
func BuildQueue(tracks []*Track, startIndex int) *Queue {
	if len(tracks) == 0 {
		return nil
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		startIndex = 0
	}

	entries := make([]QueueEntry, 0, len(tracks))
	for i := range tracks {
		track := tracks[(startIndex+i)%len(tracks)]
		if track == nil || !track.IsPlayable() {
			continue
		}
		if n := len(entries); n > 0 && entries[n-1].Track.ID == track.ID {
			continue
		}
		entries = append(entries, QueueEntry{Track: track, Position: len(entries)})
	}

	if len(entries) == 0 {
		return nil
	}
	return &Queue{entries: entries}
}

// Len returns the total number of entries in the queue.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.entries)
}

// IsEmpty returns true if the queue has no entries.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// IsAtLast returns true if the cursor is on the last entry.
func (q *Queue) IsAtLast() bool {
	if q.IsEmpty() {
		return true
	}
	return q.Len() <= q.cursor+1
}

// Cursor returns the current cursor index, or -1 for an empty queue.
func (q *Queue) Cursor() int {
	if q.IsEmpty() {
		return -1
	}
	return q.cursor
}

func (q *Queue) isValidIndex(index int) bool {
	return 0 <= index && index < q.Len()
}

// Current returns the track at the cursor, or nil if the queue is empty.
func (q *Queue) Current() *Track {
	if q.IsEmpty() {
		return nil
	}
	return q.entries[q.cursor].Track
}

// TrackAt returns the track at the given index without moving the cursor.
// Returns nil if the index is out of bounds.
func (q *Queue) TrackAt(index int) *Track {
	if !q.isValidIndex(index) {
		return nil
	}
	return q.entries[index].Track
}

// Entries returns a copy of all entries in queue order.
func (q *Queue) Entries() []QueueEntry {
	if q == nil {
		return nil
	}
	result := make([]QueueEntry, len(q.entries))
	copy(result, q.entries)
	return result
}

// Seek moves the cursor to the given index and returns the track there.
// The cursor is unchanged if the index is out of bounds.
func (q *Queue) Seek(index int) *Track {
	if !q.isValidIndex(index) {
		return nil
	}
	q.cursor = index
	return q.entries[index].Track
}

// NextIndex returns the index a forward skip would land on, or -1 when no
// valid target exists. Repeat-one intentionally does not influence skips.
func (q *Queue) NextIndex(mode RepeatMode) int {
	if q.IsEmpty() {
		return -1
	}
	if q.IsAtLast() {
		if mode == RepeatAll {
			return 0
		}
		return -1
	}
	return q.cursor + 1
}

// PreviousIndex returns the index a backward skip would land on, or -1
// when no valid target exists.
func (q *Queue) PreviousIndex(mode RepeatMode) int {
	if q.IsEmpty() {
		return -1
	}
	if q.cursor == 0 {
		if mode == RepeatAll {
			return q.Len() - 1
		}
		return -1
	}
	return q.cursor - 1
}

// AdvanceOnEnd moves the cursor after a natural track end and returns the
// new current track, or nil if playback should stop.
//   - RepeatOne: cursor stays, same track replays
//   - RepeatAll: cursor advances, wrapping to 0 past the end
//   - RepeatOff: cursor advances, nil past the end
func (q *Queue) AdvanceOnEnd(mode RepeatMode) *Track {
	if q.IsEmpty() {
		return nil
	}

	switch mode {
	case RepeatOne:
		// Cursor unchanged, replay the same entry.

	case RepeatAll:
		if q.IsAtLast() {
			q.cursor = 0
		} else {
			q.cursor++
		}

	default:
		if q.IsAtLast() {
			return nil
		}
		q.cursor++
	}

	return q.entries[q.cursor].Track
}

// RemoveByID removes the first entry referencing the given track identity
// and renumbers the remaining entries. The cursor is adjusted so it keeps
// pointing at the same logical entry where possible. Returns true if an
// entry was removed.
func (q *Queue) RemoveByID(id TrackID) bool {
	if q == nil {
		return false
	}
	for i := range q.entries {
		if q.entries[i].Track.ID == id {
			q.removeAt(i)
			return true
		}
	}
	return false
}

func (q *Queue) removeAt(index int) {
	q.entries = append(q.entries[:index], q.entries[index+1:]...)
	for i := range q.entries {
		q.entries[i].Position = i
	}

	if q.IsEmpty() {
		q.cursor = 0
	} else if index < q.cursor {
		q.cursor--
	} else if index == q.cursor && q.cursor >= q.Len() {
		q.cursor = q.Len() - 1
	}
}
