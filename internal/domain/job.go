package domain

import (
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"
)

// JobPosting is one normalized job taken from a feed. Values are treated as
// immutable once built; copy before changing.
type JobPosting struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Company     *string    `json:"company"`
	Tag         *string    `json:"tag"`
	URL         string     `json:"url"`
	Location    *string    `json:"location"`
	PublishedAt *time.Time `json:"published_at"`
	Skills      []string   `json:"skills"`
}

var ErrInvalidURL = errors.New("url must be absolute http(s)")

// CompanyName returns the company or "" when absent.
func (j JobPosting) CompanyName() string {
	if j.Company == nil {
		return ""
	}
	return *j.Company
}

func (j JobPosting) TagName() string {
	if j.Tag == nil {
		return ""
	}
	return *j.Tag
}

// Opt turns an empty (after trim) string into nil.
func Opt(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ValidateURL trims raw and checks it is an absolute http or https URL.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}
	return raw, nil
}

// NormalizeSkills dedupes and sorts skills. Never returns nil.
func NormalizeSkills(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
