// Package snapshot defines the portable, integrity-checked export format for a
// chat or group-chat session.
package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Version is the format version written by this build.
const Version = "1.0.0"

type Kind string

const (
	KindChat  Kind = "chat"
	KindGroup Kind = "group"
)

func (k Kind) Valid() bool {
	return k == KindChat || k == KindGroup
}

// SessionHeader carries every session field except identity-independent
// bookkeeping. Times are epoch milliseconds.
type SessionHeader struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	CharacterName string         `json:"character_name"`
	Avatar        string         `json:"avatar"`
	Description   string         `json:"description"`
	MessageCount  int            `json:"message_count"`
	LastMessageAt *int64         `json:"last_message_at"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     int64          `json:"created_at"`
}

type MessageRecord struct {
	ID        uint           `json:"id"`
	SendDate  int64          `json:"send_date"`
	Name      string         `json:"name"`
	IsUser    bool           `json:"is_user"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt int64          `json:"created_at"`
}

type SwipeRecord struct {
	ID         uint           `json:"id"`
	MessageID  uint           `json:"message_id"`
	SwipeIndex int            `json:"swipe_index"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  int64          `json:"created_at"`
}

// Data is the payload covered by the digest. Exactly one of Chat or Group is set.
type Data struct {
	Chat     *SessionHeader  `json:"chat,omitempty"`
	Group    *SessionHeader  `json:"group,omitempty"`
	Messages []MessageRecord `json:"messages"`
	Swipes   []SwipeRecord   `json:"swipes"`
}

// Header returns the session header matching kind, or nil.
func (d *Data) Header(kind Kind) *SessionHeader {
	switch kind {
	case KindChat:
		return d.Chat
	case KindGroup:
		return d.Group
	}
	return nil
}

type Snapshot struct {
	Version   string `json:"version"`
	Type      Kind   `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Integrity string `json:"integrity"`
	Data      Data   `json:"data"`
}

// canonical fixes the key order of the digested document.
type canonical struct {
	Version   string `json:"version"`
	Type      Kind   `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      *Data  `json:"data"`
}

// Digest returns hex(sha256(canonical json of version, type, timestamp, data)).
// Struct fields marshal in declaration order, map keys are sorted and HTML
// characters are left unescaped, so any JSON encoder that sorts keys the same
// way produces the same bytes.
func Digest(version string, kind Kind, timestamp int64, data *Data) (string, error) {
	raw, err := Canonical(version, kind, timestamp, data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Canonical returns the exact bytes covered by the digest.
func Canonical(version string, kind Kind, timestamp int64, data *Data) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(canonical{
		Version:   version,
		Type:      kind,
		Timestamp: timestamp,
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize snapshot: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Seal computes and stores the integrity digest. The snapshot must not be
// mutated afterwards.
func (s *Snapshot) Seal() error {
	digest, err := Digest(s.Version, s.Type, s.Timestamp, &s.Data)
	if err != nil {
		return err
	}
	s.Integrity = digest
	return nil
}

// Verify reports whether the stored digest matches the snapshot content.
func (s *Snapshot) Verify() bool {
	if s == nil {
		return false
	}
	digest, err := Digest(s.Version, s.Type, s.Timestamp, &s.Data)
	if err != nil {
		return false
	}
	return digest == s.Integrity
}

// CompatibleVersion reports whether the snapshot shares the major version of
// this build.
func (s *Snapshot) CompatibleVersion() bool {
	major, _, _ := strings.Cut(s.Version, ".")
	want, _, _ := strings.Cut(Version, ".")
	return major == want
}

// Encode writes the snapshot as indented JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Decode reads a snapshot written by Encode or received over the wire.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
