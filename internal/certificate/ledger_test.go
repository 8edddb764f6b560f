package certificate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_RecordThenLookup(t *testing.T) {
	l := NewLedger()
	key := IdentityKey{Identification: "1", IssueDate: NoIssueDate, ExpirationDate: NoExpirationDate}

	_, ok := l.Lookup(key)
	assert.False(t, ok)

	assert.True(t, l.Record(key, "first.pdf"))
	owner, ok := l.Lookup(key)
	assert.True(t, ok)
	assert.Equal(t, "first.pdf", owner)
}

func TestLedger_FirstOwnerWins(t *testing.T) {
	l := NewLedger()
	key := IdentityKey{Identification: "1", IssueDate: "2020-01-01", ExpirationDate: NoExpirationDate}

	assert.True(t, l.Record(key, "first.pdf"))
	assert.False(t, l.Record(key, "second.pdf"))

	owner, _ := l.Lookup(key)
	assert.Equal(t, "first.pdf", owner)
	assert.Equal(t, 1, l.Len())
}
