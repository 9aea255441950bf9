package scrape

import (
	"log/slog"
	"net/url"
	"strings"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/scrape/types"
	"jobfeed-engine/internal/scrape/util"
)

// DefaultExcludeTags are feed categories that are never job-relevant here.
var DefaultExcludeTags = []string{"Writing", "Sales / Business", "Marketing", "All others", "Education"}

// Mapper turns raw feed items into postings.
type Mapper struct {
	excludeTags []string
	skills      *util.SkillMatcher
	logger      *slog.Logger
}

func NewMapper(excludeTags []string, logger *slog.Logger) *Mapper {
	if excludeTags == nil {
		excludeTags = DefaultExcludeTags
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{
		excludeTags: excludeTags,
		skills:      util.NewSkillMatcher(util.SkillsVocab),
		logger:      logger,
	}
}

// Postings maps every kept item of feed. ref names the source when the feed
// has no title.
func (m *Mapper) Postings(ref string, feed types.RawFeed) []domain.JobPosting {
	source := util.CleanText(feed.Title)
	if source == "" {
		source = hostOf(ref)
	}

	out := make([]domain.JobPosting, 0, len(feed.Items))
	for _, it := range feed.Items {
		j, ok := m.posting(source, it)
		if !ok {
			continue
		}
		out = append(out, j)
	}
	return out
}

func (m *Mapper) posting(source string, it types.RawItem) (domain.JobPosting, bool) {
	tag := ""
	if len(it.Tags) > 0 {
		tag = util.NormalizeTag(it.Tags[0])
	}
	if util.TagExcluded(tag, m.excludeTags) {
		return domain.JobPosting{}, false
	}

	link, err := domain.ValidateURL(it.Link)
	if err != nil {
		m.logger.Debug("skipping item without usable link", "source", source, "title", it.Title, "link", it.Link)
		return domain.JobPosting{}, false
	}

	company, title, split := util.SplitCompanyTitle(it.Title)
	if !split {
		company = it.Author
		if strings.TrimSpace(company) == "" {
			company = it.Company
		}
	}
	if title == "" {
		return domain.JobPosting{}, false
	}

	return domain.JobPosting{
		Source:      source,
		Title:       title,
		Company:     domain.Opt(company),
		Tag:         domain.Opt(tag),
		URL:         link,
		Location:    domain.Opt(util.CleanText(it.Location)),
		PublishedAt: it.Published,
		Skills:      m.skills.Extract(it.Summary),
	}, true
}

func hostOf(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ref
	}
	return u.Host
}
