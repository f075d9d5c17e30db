package speech

import "testing"

// TestSentenceIDRoundTrip tests id construction and parsing.
func TestSentenceIDRoundTrip(t *testing.T) {
	tests := []struct {
		unitKey string
		index   int
	}{
		{"ch-0001", 0},
		{"ch-0001", 42},
		{"00003", 7},
		{"chapter:with:colons", 1},
	}

	for _, tt := range tests {
		id := SentenceID(tt.unitKey, tt.index)
		unit, index, err := SplitSentenceID(id)
		if err != nil {
			t.Fatalf("SplitSentenceID(%q) error: %v", id, err)
		}
		if unit != tt.unitKey || index != tt.index {
			t.Errorf("SplitSentenceID(%q) = (%q, %d), want (%q, %d)", id, unit, index, tt.unitKey, tt.index)
		}
	}
}

// TestSentenceIDsOrderLexically verifies ids inside a unit sort in
// document order.
func TestSentenceIDsOrderLexically(t *testing.T) {
	if SentenceID("u", 2) >= SentenceID("u", 10) {
		t.Errorf("id %q should sort before %q", SentenceID("u", 2), SentenceID("u", 10))
	}
}

// TestSplitSentenceIDMalformed tests rejection of malformed ids.
func TestSplitSentenceIDMalformed(t *testing.T) {
	for _, id := range []string{"", "no-separator", "unit:notanumber"} {
		if _, _, err := SplitSentenceID(id); err == nil {
			t.Errorf("SplitSentenceID(%q) should fail", id)
		}
	}
}

// TestSentenceLocator tests resolved locator construction per kind.
func TestSentenceLocator(t *testing.T) {
	tests := []struct {
		name     string
		sentence Sentence
		expected Locator
	}{
		{
			name: "flowing sentence",
			sentence: Sentence{
				ID:              "ch-0001:00002",
				ChapterRef:      "ch-0001",
				FineAnchorStart: "line:4",
				CharStart:       120,
			},
			expected: Locator{
				Kind:       KindFlowing,
				ChapterRef: "ch-0001",
				FineAnchor: "line:4",
				CharOffset: 120,
				SentenceID: "ch-0001:00002",
			},
		},
		{
			name: "paged sentence",
			sentence: Sentence{
				ID:        "00003:00000",
				Page:      3,
				CharStart: 10,
			},
			expected: Locator{
				Kind:       KindPaged,
				Page:       3,
				CharOffset: 10,
				SentenceID: "00003:00000",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sentence.Locator(); got != tt.expected {
				t.Errorf("Locator() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

// TestDocumentIndexSetAndLookup tests lazy unit-set creation.
func TestDocumentIndexSetAndLookup(t *testing.T) {
	doc := &DocumentIndex{Version: IndexVersion}

	if doc.lookup(KindPaged) != nil {
		t.Error("lookup before set should return nil")
	}

	us := doc.set(KindPaged)
	if us == nil || us.Units == nil {
		t.Fatal("set(KindPaged) should allocate the unit set")
	}
	if doc.lookup(KindPaged) != us {
		t.Error("lookup should return the allocated set")
	}
	if doc.set(KindPaged) != us {
		t.Error("set should be idempotent")
	}
	if doc.lookup(KindFlowing) != nil {
		t.Error("flowing set should stay nil until used")
	}
}
