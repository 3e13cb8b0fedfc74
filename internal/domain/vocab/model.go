// Package vocab holds the corpus entities the question lifecycle engine
// draws from: words, and the near-synonym clusters that group them.
//
// Both types are populated by an external markdown-import collaborator
// and are immutable during the core's operation except via a full
// re-import.
package vocab

// Word is a single vocabulary entry, keyed case-insensitively.
type Word struct {
	// Word is the spelling as imported; the SQLite store keeps it in
	// Normalize form. Lookups are case-insensitive; callers should
	// normalize with Normalize before comparing or keying maps.
	Word       string
	Definition string
	Section    string
	SourceFile string
}

// Normalize returns the case-folded form used for lookups and equality.
func Normalize(word string) string {
	return normalizeWord(word)
}

// ClusterEntry is one member of a Cluster: the word plus the meaning and
// distinction text that differentiates it from its cluster-mates.
type ClusterEntry struct {
	Word        string
	Meaning     string
	Distinction string
}

// Cluster groups near-synonyms with per-word nuance; only clusters with
// 4 or more entries are Eligible for question generation. Cluster
// membership is the authoritative source of near-synonym grouping —
// every ClusterEntry.Word must also exist as a Word.
type Cluster struct {
	ID         int64
	Title      string
	Preamble   string
	Commentary string
	SourceFile string
	Entries    []ClusterEntry
}

// Eligible reports whether the cluster has enough members to generate
// multiple-choice questions from.
func (c Cluster) Eligible() bool {
	return len(c.Entries) >= 4
}

// EntryFor returns the ClusterEntry for word (case-insensitive), or false
// if the cluster has no such member.
func (c Cluster) EntryFor(word string) (ClusterEntry, bool) {
	target := normalizeWord(word)
	for _, e := range c.Entries {
		if normalizeWord(e.Word) == target {
			return e, true
		}
	}
	return ClusterEntry{}, false
}
