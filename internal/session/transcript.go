package session

import "strings"

// Transcript events arriving while disconnected belong to a cancelled
// connection and are dropped.

func reducePartial(s State, e TranscriptPartial) (State, []Effect) {
	if !s.Connected {
		return s, stale(e, "transcript while disconnected")
	}
	if e.SegmentID == "" {
		return s, reject(e, "partial without segment id")
	}
	if s.StoredSegmentIDs[e.SegmentID] {
		return s, stale(e, "segment already final")
	}
	s.Messages = upsertSegment(s.Messages, Message{
		ID:        e.SegmentID,
		Role:      e.Role,
		Kind:      KindChat,
		Text:      e.Text,
		SegmentID: e.SegmentID,
		Partial:   true,
	})
	return s, nil
}

func reduceFinal(s State, e TranscriptFinal) (State, []Effect) {
	if !s.Connected {
		return s, stale(e, "transcript while disconnected")
	}
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return s, stale(e, "empty transcript")
	}
	id := e.MessageID
	if id == "" {
		id = e.SegmentID
	}
	if id == "" {
		return s, reject(e, "final without segment or message id")
	}

	msg := Message{ID: id, Role: e.Role, Kind: KindChat, Text: text, SegmentID: e.SegmentID}
	if e.SegmentID != "" {
		if s.StoredSegmentIDs[e.SegmentID] {
			return s, stale(e, "segment already stored")
		}
		s.StoredSegmentIDs = withKey(s.StoredSegmentIDs, e.SegmentID, true)
		s.Messages = upsertSegment(s.Messages, msg)
	} else {
		key := string(e.Role) + ":" + text
		if s.StoredVoiceMessages[key] {
			return s, stale(e, "voice message already stored")
		}
		s.StoredVoiceMessages = withKey(s.StoredVoiceMessages, key, true)
		s.Messages = appendMessage(s.Messages, msg)
	}

	if e.Role == RoleUser {
		s.UserHasInteracted = true
		s.LastUserMessageType = "voice"
	}
	return s, []Effect{s.persist(msg)}
}

// upsertSegment replaces the message carrying m's segment id, or appends m.
func upsertSegment(msgs []Message, m Message) []Message {
	for i := range msgs {
		if msgs[i].SegmentID == m.SegmentID {
			out := make([]Message, len(msgs))
			copy(out, msgs)
			out[i] = m
			return out
		}
	}
	return appendMessage(msgs, m)
}
