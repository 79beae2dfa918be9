package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type contactRecord struct {
	id    string
	email string
	name  string
}

func (r contactRecord) RecordID() string        { return r.id }
func (r contactRecord) Contact() (string, bool) { return r.email, r.email != "" }
func (r contactRecord) WithContact(c string) contactRecord {
	r.email = c
	return r
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, IsValidIdentifier("550e8400-e29b-41d4-a716-446655440000"))
	assert.True(t, IsValidIdentifier("550E8400-E29B-41D4-A716-446655440000"))
	assert.True(t, IsValidIdentifier(uuid.New().String()))

	assert.False(t, IsValidIdentifier("invalid-uuid"))
	assert.False(t, IsValidIdentifier(""))
	assert.False(t, IsValidIdentifier("550e8400-e29b-61d4-a716-446655440000"), "version nibble out of range")
	assert.False(t, IsValidIdentifier("550e8400-e29b-41d4-c716-446655440000"), "variant nibble out of range")
	assert.False(t, IsValidIdentifier("550e8400e29b41d4a716446655440000"))
	assert.False(t, IsValidIdentifier(" 550e8400-e29b-41d4-a716-446655440000"))
}

func TestOwnerMatches(t *testing.T) {
	assert.True(t, OwnerMatches("a", "a"))
	assert.False(t, OwnerMatches("a", "b"))
	assert.False(t, OwnerMatches("", ""))
	assert.False(t, OwnerMatches("", "a"))
}

func TestParticipantMatches(t *testing.T) {
	assert.True(t, ParticipantMatches("buyer", "buyer", "seller"))
	assert.True(t, ParticipantMatches("seller", "buyer", "seller"))
	assert.False(t, ParticipantMatches("other", "buyer", "seller"))
	assert.False(t, ParticipantMatches("", "buyer", "seller"))
}

func TestMaskContact(t *testing.T) {
	assert.Equal(t, "u***@example.com", MaskContact("user@example.com"))
	assert.Equal(t, "a***@example.com", MaskContact("a@example.com"))
	assert.Equal(t, "***@example.com", MaskContact("@example.com"))
	assert.Equal(t, "***", MaskContact(""))
	assert.Equal(t, "***", MaskContact("invalid"))
}

func TestFilterSensitive(t *testing.T) {
	record := contactRecord{id: "u1", email: "user@example.com", name: "kim"}

	t.Run("own record passes through", func(t *testing.T) {
		assert.Equal(t, record, FilterSensitive(record, "u1"))
	})

	t.Run("other viewer sees masked copy", func(t *testing.T) {
		filtered := FilterSensitive(record, "u2")
		assert.Equal(t, "u***@example.com", filtered.email)
		assert.Equal(t, "kim", filtered.name)
		assert.Equal(t, "user@example.com", record.email, "original must not change")
	})

	t.Run("anonymous viewer sees masked copy", func(t *testing.T) {
		assert.Equal(t, "u***@example.com", FilterSensitive(record, "").email)
	})

	t.Run("record without contact", func(t *testing.T) {
		bare := contactRecord{id: "u1", name: "kim"}
		assert.Equal(t, bare, FilterSensitive(bare, "u2"))
	})
}

func TestEscapeUserText(t *testing.T) {
	escaped := EscapeUserText("<script>alert('xss')</script>")
	assert.Equal(t, "&lt;script&gt;alert(&#x27;xss&#x27;)&lt;&#x2F;script&gt;", escaped)
	assert.NotContains(t, escaped, "<script>")
	assert.NotContains(t, escaped, "</script>")

	assert.Equal(t, "", EscapeUserText(""))
	assert.Equal(t, "&quot;quoted&quot;", EscapeUserText(`"quoted"`))
	assert.Equal(t, "a &amp; b", EscapeUserText("a &amp; b"), "ampersands are not re-escaped")
	assert.Equal(t, "안녕하세요 1,000원", EscapeUserText("안녕하세요 1,000원"))
}
