package serp

import (
	"fmt"
	"strings"
	"testing"
)

const structuredDoc = `<html><body><div id="search">
<div class="MjjYud"><div class="g">
  <a href="/url?q=https://example.com/second-title&amp;sa=U"><h3>Unrelated heading text</h3></a>
  <div class="VwiC3b">Snippet belonging to the first block.</div>
</div></div>
<div class="g">
  <a href="https://example.com/page" data-ved="2ah"><h3>Example Page Result</h3></a>
  <div class="VwiC3b">A snippet about examples.</div>
</div>
<div class="g">
  <a href="https://www.youtube.com/watch?v=1"><h3>Video result title</h3></a>
</div>
<div class="g">
  <a href="https://example.com/page#frag"><h3>Duplicate of the page</h3></a>
</div>
</div></body></html>`

func TestStructuredExtractor_ReadsPerBlock(t *testing.T) {
	set := NewStructuredExtractor().Extract(structuredDoc, 10)
	if len(set) != 2 {
		t.Fatalf("expected 2 candidates, got %v", set.URLs())
	}

	if set[0].URL != "https://example.com/second-title" || set[0].Title != "Unrelated heading text" {
		t.Errorf("unexpected first candidate %+v", set[0])
	}
	if set[0].Snippet != "Snippet belonging to the first block." {
		t.Errorf("unexpected first snippet %q", set[0].Snippet)
	}
	if set[1].URL != "https://example.com/page" || set[1].Title != "Example Page Result" {
		t.Errorf("unexpected second candidate %+v", set[1])
	}
	if set[1].Snippet != "A snippet about examples." {
		t.Errorf("unexpected second snippet %q", set[1].Snippet)
	}

	ranked := Rank(set, "Example Page Result")
	if ranked[0].URL != "https://example.com/page" || ranked[0].Score != 1.0 {
		t.Errorf("expected the matching block to rank first, got %+v", ranked[0])
	}
}

func TestStructuredExtractor_Scenario(t *testing.T) {
	set := Rank(NewStructuredExtractor().Extract(scenarioDoc, 0), "Example Page Result")
	if len(set) != 1 {
		t.Fatalf("expected 1 candidate, got %v", set.URLs())
	}
	want := Candidate{
		URL:     "https://example.com/page",
		Title:   "Example Page Result",
		Snippet: "A snippet about examples.",
		Score:   1.0,
	}
	if set[0] != want {
		t.Errorf("expected %+v, got %+v", want, set[0])
	}
}

func TestStructuredExtractor_FallsBackToFlat(t *testing.T) {
	doc := `<a href="/url?q=https://example.com/flat&sa=U">x</a><h3>Flat layout title</h3>`
	set := NewStructuredExtractor().Extract(doc, 10)
	if len(set) != 1 || set[0].URL != "https://example.com/flat" {
		t.Errorf("expected fallback extraction, got %v", set.URLs())
	}

	e := NewStructuredExtractor()
	e.Fallback = nil
	if set := e.Extract(doc, 10); set == nil || len(set) != 0 {
		t.Errorf("expected empty set without fallback, got %v", set)
	}
}

func TestStructuredExtractor_Cap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, `<div class="g"><a href="https://r%d.example.org/"><h3>Result number %d</h3></a></div>`, i, i)
	}
	set := NewStructuredExtractor().Extract(sb.String(), 0)
	if len(set) != DefaultCap {
		t.Errorf("expected %d candidates, got %d", DefaultCap, len(set))
	}
}

func TestParseMode(t *testing.T) {
	if e, ok := ParseMode(""); !ok {
		t.Errorf("expected empty mode to be accepted")
	} else if _, flat := e.(*Extractor); !flat {
		t.Errorf("expected flat extractor by default, got %T", e)
	}
	if e, ok := ParseMode("Structured"); !ok {
		t.Errorf("expected structured mode to be accepted")
	} else if _, structured := e.(*StructuredExtractor); !structured {
		t.Errorf("expected structured extractor, got %T", e)
	}
	if _, ok := ParseMode("tree"); ok {
		t.Errorf("expected unknown mode to be rejected")
	}
}

func TestUnwrapRedirect(t *testing.T) {
	if got, ok := unwrapRedirect("/url?sa=t&url=https%3A%2F%2Fx.example%2F&ved=1"); !ok || got != "https%3A%2F%2Fx.example%2F" {
		t.Errorf("unexpected unwrap result %q %v", got, ok)
	}
	if _, ok := unwrapRedirect("https://x.example/"); ok {
		t.Errorf("expected plain links to be left alone")
	}
}

func TestStructuredExtractor_ReturnsDecodedURL(t *testing.T) {
	doc := `<div class="g"><a href="/url?q=https://www.esempio.it/citt%C3%A0-d%27arte%23storia&amp;sa=U"><h3>Citta d'arte italiane</h3></a></div>
		<div class="g"><a href="https://www.esempio.it/città-d'arte#mappa"><h3>Mappa delle citta</h3></a></div>`

	set := NewStructuredExtractor().Extract(doc, 10)
	if len(set) != 1 {
		t.Fatalf("expected fragment variants to collapse into 1 candidate, got %q", set.URLs())
	}
	if set[0].URL != "https://www.esempio.it/città-d'arte#storia" {
		t.Errorf("expected decoded url with fragment, got %q", set[0].URL)
	}
}
