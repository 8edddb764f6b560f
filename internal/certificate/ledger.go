package certificate

// Ledger maps identity keys to the first file seen with them during one folder run.
// Entries are never removed. It is not safe for concurrent use.
type Ledger struct {
	owners map[IdentityKey]string
}

func NewLedger() *Ledger {
	return &Ledger{owners: make(map[IdentityKey]string)}
}

// Lookup returns the file that owns key, if any.
func (l *Ledger) Lookup(key IdentityKey) (string, bool) {
	name, ok := l.owners[key]
	return name, ok
}

// Record associates key with filename. It returns false and leaves the ledger unchanged when the
// key already has an owner; callers are expected to Lookup first.
func (l *Ledger) Record(key IdentityKey, filename string) bool {
	if _, exists := l.owners[key]; exists {
		return false
	}
	l.owners[key] = filename
	return true
}

// Len returns the number of distinct keys recorded.
func (l *Ledger) Len() int {
	return len(l.owners)
}
