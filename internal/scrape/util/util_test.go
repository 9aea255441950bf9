package util

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestSplitCompanyTitle(t *testing.T) {
	tests := []struct {
		in      string
		company string
		title   string
		ok      bool
	}{
		{"X: Engineer", "X", "Engineer", true},
		{"X:  Engineer ", "X", "Engineer", true},
		{"Acme: Lead: Platform", "Acme", "Lead: Platform", true},
		{"  Senior Go Developer ", "", "Senior Go Developer", false},
	}

	for _, tt := range tests {
		company, title, ok := SplitCompanyTitle(tt.in)
		if company != tt.company || title != tt.title || ok != tt.ok {
			t.Errorf("SplitCompanyTitle(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, company, title, ok, tt.company, tt.title, tt.ok)
		}
	}
}

func TestTagExcluded(t *testing.T) {
	excluded := []string{"Writing", "Sales / Business"}

	if !TagExcluded("writing", excluded) {
		t.Error("writing should be excluded")
	}
	if !TagExcluded(" Sales  / Business ", excluded) {
		t.Error("sales tag with extra spaces should be excluded")
	}
	if TagExcluded("Programming", excluded) {
		t.Error("Programming should not be excluded")
	}
	if TagExcluded("", excluded) {
		t.Error("empty tag should not be excluded")
	}
}

func TestHTMLToText(t *testing.T) {
	in := `<div><p>We use <b>Go</b></p><script>var python = 1;</script><ul><li>Kafka</li><li>Redis</li></ul></div>`
	got := HTMLToText(in)

	if strings.Contains(got, "python") {
		t.Errorf("script content leaked into %q", got)
	}
	for _, want := range []string{"We use", "Go", "Kafka", "Redis"} {
		if !strings.Contains(got, want) {
			t.Errorf("HTMLToText = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "KafkaRedis") {
		t.Errorf("adjacent list items were glued together: %q", got)
	}
}

func TestSkillMatcherExtract(t *testing.T) {
	m := NewSkillMatcher(SkillsVocab)

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "html list",
			in:   `<p>About us: we love Python.</p><h3>Requirements</h3><ul><li>Go and Kubernetes</li><li>Rust or Swift</li></ul>`,
			want: []string{"go", "kubernetes", "rust", "swift"},
		},
		{
			name: "word boundaries",
			in:   "Experience with golang, django and node.js",
			want: []string{"django", "node.js"},
		},
		{
			name: "empty",
			in:   "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Extract(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTechnicalSection(t *testing.T) {
	text := "Intro mentions python.\nQualifications\nGo experience"
	got := TechnicalSection(text)
	if strings.Contains(got, "python") {
		t.Errorf("TechnicalSection kept intro: %q", got)
	}
	if !strings.HasPrefix(got, "qualifications") {
		t.Errorf("TechnicalSection = %q, want prefix qualifications", got)
	}

	plain := "No headers here"
	if got := TechnicalSection(plain); got != plain {
		t.Errorf("TechnicalSection without header = %q, want input", got)
	}
}

func TestKeyedLimiter(t *testing.T) {
	kl := NewKeyedLimiter(rate.Every(time.Hour), 1)

	if !kl.Allow("a") {
		t.Fatal("first event for a should be allowed")
	}
	if kl.Allow("a") {
		t.Error("second event for a should be limited")
	}
	if !kl.Allow("b") {
		t.Error("keys should have independent buckets")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := kl.WaitURL(ctx, "https://feeds.example.com/rss"); err != nil {
		t.Fatalf("first WaitURL failed: %v", err)
	}
	if err := kl.WaitURL(ctx, "https://feeds.example.com/other"); err == nil {
		t.Error("second WaitURL to same host should not get a token within the deadline")
	}
}

func TestKeyedLimiterEvictsIdleKeys(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kl := NewKeyedLimiter(rate.Every(time.Second), 1).WithClock(func() time.Time { return now })

	kl.Allow("10.0.0.1")
	kl.Allow("10.0.0.2")
	now = now.Add(5 * time.Minute)
	kl.Allow("10.0.0.1")
	now = now.Add(6 * time.Minute)
	kl.Allow("10.0.0.3")

	// .2 was idle for 11m and is dropped; .1 was seen 6m ago.
	if got := kl.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}

	// One new client per second for 50 minutes: only the last 10 minutes stay.
	for i := 0; i < 3000; i++ {
		now = now.Add(time.Second)
		kl.Allow(fmt.Sprintf("client-%d", i))
	}
	if got := kl.Len(); got > 600 {
		t.Errorf("Len = %d after a stream of one-shot clients, want old keys swept", got)
	}
}

func TestKeyedLimiterKeepsBucketsUntilRefilled(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kl := NewKeyedLimiter(rate.Every(time.Hour), 2).WithClock(func() time.Time { return now })

	kl.Allow("a")
	now = now.Add(90 * time.Minute)
	kl.Allow("b")
	if got := kl.Len(); got != 2 {
		t.Errorf("Len = %d, want 2 while a is still refilling", got)
	}

	now = now.Add(time.Hour)
	kl.Allow("c")
	if got := kl.Len(); got != 2 {
		t.Errorf("Len = %d, want a dropped after a full refill", got)
	}

	never := NewKeyedLimiter(rate.Every(time.Second), 1).WithIdle(0).WithClock(func() time.Time { return now })
	never.Allow("x")
	now = now.Add(24 * time.Hour)
	never.Allow("y")
	if got := never.Len(); got != 2 {
		t.Errorf("Len = %d with eviction disabled, want 2", got)
	}
}
