package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	last := int64(1700000005000)
	s := &Snapshot{
		Version:   Version,
		Type:      KindChat,
		Timestamp: 1700000010000,
		Data: Data{
			Chat: &SessionHeader{
				ID:            7,
				Name:          "魔法学习",
				CharacterName: "Aria",
				MessageCount:  2,
				LastMessageAt: &last,
				Metadata:      map[string]any{"temperature": 0.7, "tags": []any{"fantasy"}},
				CreatedAt:     1700000000000,
			},
			Messages: []MessageRecord{
				{ID: 10, SendDate: 1, Name: "me", IsUser: true, Content: "hello"},
				{ID: 11, SendDate: 2, Name: "Aria", Content: "greetings", Metadata: map[string]any{"model": "gpt", "tokens": 42}},
			},
			Swipes: []SwipeRecord{
				{ID: 100, MessageID: 11, SwipeIndex: 0, Content: "greetings"},
				{ID: 101, MessageID: 11, SwipeIndex: 1, Content: "well met"},
			},
		},
	}
	require.NoError(t, s.Seal())
	return s
}

func TestSealProducesHexSHA256(t *testing.T) {
	s := sampleSnapshot(t)
	assert.Len(t, s.Integrity, 64)
	assert.True(t, s.Verify())
}

func TestDigestIsReproducible(t *testing.T) {
	s := sampleSnapshot(t)
	first, err := Digest(s.Version, s.Type, s.Timestamp, &s.Data)
	require.NoError(t, err)
	second, err := Digest(s.Version, s.Type, s.Timestamp, &s.Data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, s.Integrity, first)
}

func TestCanonicalMatchesHandWrittenJSON(t *testing.T) {
	data := &Data{
		Chat: &SessionHeader{
			ID:        7,
			Name:      "Tea & <cakes>",
			Metadata:  map[string]any{"b": 1, "a": "x"},
			CreatedAt: 1690000000000,
		},
		Messages: []MessageRecord{
			{ID: 3, SendDate: 5, Name: "Ann", IsUser: true, Content: "<think>a & b</think>", CreatedAt: 1690000000001},
		},
		Swipes: []SwipeRecord{},
	}
	want := `{"version":"1.0.0","type":"chat","timestamp":1700000000000,"data":{` +
		`"chat":{"id":7,"name":"Tea & <cakes>","character_name":"","avatar":"","description":"",` +
		`"message_count":0,"last_message_at":null,"metadata":{"a":"x","b":1},"created_at":1690000000000},` +
		`"messages":[{"id":3,"send_date":5,"name":"Ann","is_user":true,"content":"<think>a & b</think>",` +
		`"metadata":null,"created_at":1690000000001}],"swipes":[]}}`

	raw, err := Canonical("1.0.0", KindChat, 1700000000000, data)
	require.NoError(t, err)
	assert.Equal(t, want, string(raw))

	sum := sha256.Sum256([]byte(want))
	digest, err := Digest("1.0.0", KindChat, 1700000000000, data)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)
}

func TestEncodeKeepsMarkupReadable(t *testing.T) {
	s := sampleSnapshot(t)
	s.Data.Messages[0].Content = "<think>a & b</think>"
	require.NoError(t, s.Seal())

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))
	assert.Contains(t, buf.String(), "<think>a & b</think>")

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.True(t, decoded.Verify())
}

func TestVerifyDetectsTampering(t *testing.T) {
	cases := map[string]func(s *Snapshot){
		"message body":  func(s *Snapshot) { s.Data.Messages[0].Content = "HELLO" },
		"swipe index":   func(s *Snapshot) { s.Data.Swipes[1].SwipeIndex = 5 },
		"header name":   func(s *Snapshot) { s.Data.Chat.Name = "other" },
		"metadata":      func(s *Snapshot) { s.Data.Messages[1].Metadata["tokens"] = 43 },
		"timestamp":     func(s *Snapshot) { s.Timestamp++ },
		"version":       func(s *Snapshot) { s.Version = "1.0.1" },
		"kind":          func(s *Snapshot) { s.Type = KindGroup },
		"dropped swipe": func(s *Snapshot) { s.Data.Swipes = s.Data.Swipes[:1] },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := sampleSnapshot(t)
			mutate(s)
			assert.False(t, s.Verify())
		})
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	s := sampleSnapshot(t)
	before := s.Integrity
	assert.True(t, s.Verify())
	assert.True(t, s.Verify())
	assert.Equal(t, before, s.Integrity)

	var nilSnap *Snapshot
	assert.False(t, nilSnap.Verify())
}

func TestEncodeDecodeKeepsDigestValid(t *testing.T) {
	s := sampleSnapshot(t)
	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.Integrity, decoded.Integrity)
	assert.True(t, decoded.Verify())
	assert.Equal(t, "greetings", decoded.Data.Messages[1].Content)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewBufferString("{not json"))
	assert.Error(t, err)
}

func TestHeaderSelectsByKind(t *testing.T) {
	s := sampleSnapshot(t)
	assert.NotNil(t, s.Data.Header(KindChat))
	assert.Nil(t, s.Data.Header(KindGroup))
	assert.Nil(t, s.Data.Header(Kind("bogus")))
}

func TestCompatibleVersion(t *testing.T) {
	s := &Snapshot{Version: "1.4.2"}
	assert.True(t, s.CompatibleVersion())
	s.Version = "2.0.0"
	assert.False(t, s.CompatibleVersion())
}
