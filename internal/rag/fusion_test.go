package rag

import (
	"testing"

	"github.com/martinvidela/cursobot-go/internal/textmatch"
)

func TestFuseRRF(t *testing.T) {
	t.Parallel()

	titleMatches := []textmatch.Match{
		{ID: "sold-1", Title: "Soldadura Básica", Score: 0.8},
		{ID: "herr-1", Title: "Herrería Artística", Score: 0.3},
	}
	keywordResults := []Result{
		{ID: "herr-1", Title: "Herrería Artística", Score: 5.2, Rank: 1},
		{ID: "pan-1", Title: "Panadería", Score: 2.1, Rank: 2},
	}

	t.Run("Both signals boost shared course", func(t *testing.T) {
		t.Parallel()
		fused := FuseRRF(titleMatches, keywordResults, 0.5, 10)
		if len(fused) != 3 {
			t.Fatalf("got %d results, want 3", len(fused))
		}
		// herr-1 appears in both lists, so it must outrank pan-1,
		// which only has a keyword hit at the same rank position.
		var herrScore, panScore float64
		for _, f := range fused {
			switch f.ID {
			case "herr-1":
				herrScore = f.RRFScore
				if f.TitleRank != 2 || f.KeywordRank != 1 {
					t.Errorf("herr-1 ranks = (%d, %d), want (2, 1)", f.TitleRank, f.KeywordRank)
				}
			case "pan-1":
				panScore = f.RRFScore
			}
		}
		if herrScore <= panScore {
			t.Errorf("dual-signal course should outrank single-signal: %v <= %v", herrScore, panScore)
		}
	})

	t.Run("Weight 1 ignores keyword results", func(t *testing.T) {
		t.Parallel()
		fused := FuseRRF(titleMatches, keywordResults, 1.0, 10)
		for _, f := range fused {
			if f.ID == "pan-1" && f.RRFScore != 0 {
				t.Errorf("keyword-only course got score %v with weight 1", f.RRFScore)
			}
		}
		if fused[0].ID != "sold-1" {
			t.Errorf("top = %s, want sold-1", fused[0].ID)
		}
	})

	t.Run("Weight clamped", func(t *testing.T) {
		t.Parallel()
		a := FuseRRF(titleMatches, keywordResults, 1.7, 10)
		b := FuseRRF(titleMatches, keywordResults, 1.0, 10)
		if len(a) != len(b) || a[0].RRFScore != b[0].RRFScore {
			t.Error("weight above 1 should clamp to 1")
		}
	})

	t.Run("Respects topN", func(t *testing.T) {
		t.Parallel()
		fused := FuseRRF(titleMatches, keywordResults, 0.5, 1)
		if len(fused) != 1 {
			t.Errorf("got %d results, want 1", len(fused))
		}
	})

	t.Run("Deterministic with empty inputs", func(t *testing.T) {
		t.Parallel()
		if got := FuseRRF(nil, nil, 0.5, 5); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})
}
