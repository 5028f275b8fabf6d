package checker

import (
	"testing"

	"sitewatch/internal/fetcher"
	"sitewatch/internal/sites"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<body>
  <div id="principales-variables">
    <table class="table-BCRA"><tr><td>1</td></tr></table>
  </div>
</body>
</html>`

func TestGoquerySelectorMatch(t *testing.T) {
	sel := NewGoquerySelector()

	cases := []struct {
		selector string
		want     bool
	}{
		{"#principales-variables", true},
		{"table.table-BCRA", true},
		{"div table", true},
		{"#missing", false},
		{"span.absent", false},
	}

	for _, tc := range cases {
		got, err := sel.Match([]byte(sampleHTML), tc.selector)
		if err != nil {
			t.Fatalf("Match(%q) error: %v", tc.selector, err)
		}
		if got != tc.want {
			t.Errorf("Match(%q) = %v, want %v", tc.selector, got, tc.want)
		}
	}
}

func TestEngineWithGoquerySelectors(t *testing.T) {
	engine := testEngine(Capabilities{Selectors: NewGoquerySelector()})
	site := sites.Site{
		Kind:      sites.KindHTML,
		Selectors: []string{"#principales-variables", "#missing"},
	}

	rep := engine.Run(site, fetcher.Result{StatusCode: 200, Body: []byte(sampleHTML)})
	if rep.Selectors == nil {
		t.Fatal("selector result missing")
	}
	if rep.Selectors.Valid {
		t.Fatal("one unmatched selector should invalidate the result")
	}
	if !rep.Selectors.Found["#principales-variables"] {
		t.Fatal("present selector should match")
	}
}
