package util

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"jobfeed-engine/internal/domain"
)

var SkillsVocab = []string{
	// languages
	"swift", "python", "java", "kotlin", "objective-c",
	"c", "c++", "javascript", "typescript", "go", "rust",
	"ruby", "php", "sql", "bash", "rails", "dart", "tailwind css", "css",

	// mobile
	"ios", "android", "ipados", "macos", "watchos", "tvos",
	"swiftui", "uikit", "combine",
	"core data", "core animation", "core graphics",
	"avfoundation", "mapkit", "storekit", "healthkit",
	"icloud", "push notifications",
	"jetpack compose", "android studio", "gradle",
	"hilt", "dagger", "retrofit", "coroutines", "flutter",

	// web & backend
	"react", "react native", "vue", "angular",
	"node.js", "express", "next.js",
	"django", "flask", "fastapi", "spring boot",
	"rest api", "graphql", "websockets",
	"oauth", "openid connect", "jwt", "restful",

	// data
	"apache airflow", "airflow", "dbt",
	"apache spark", "spark", "apache kafka", "kafka",
	"apache flink", "apache beam", "hadoop",
	"snowflake", "bigquery", "redshift", "databricks",
	"delta lake", "parquet", "avro", "data warehouse", "data lake",
	"sqlite", "postgresql", "mysql", "mongodb", "redis", "firebase",

	// infra
	"aws", "gcp", "azure", "docker", "kubernetes", "terraform", "serverless",
	"git", "github", "gitlab", "ci/cd", "fastlane", "jenkins", "selenium",
	"xcode", "visual studio code", "intellij idea", "postman",

	// practices
	"unit testing", "integration testing", "dependency injection",
	"multithreading", "concurrency", "solid principles",
	"mvc", "mvvm", "viper", "microservices", "monolith", "distributed systems",
	"https", "tls", "ssl", "authentication", "authorization", "encryption", "keychain",
	"sentry", "datadog", "firebase analytics",

	// ml
	"machine learning", "deep learning", "computer vision",
	"natural language processing", "nlp", "reinforcement learning", "cv",
	"large language models", "llm", "llms", "prompt engineering",
	"retrieval augmented generation", "rag", "langchain",
	"agentic ai", "autonomous agents", "tool calling",
	"tensorflow", "pytorch", "keras", "scikit-learn", "hugging face",
	"onnx", "elasticsearch", "model serving", "vector databases", "embedding models",
	"data analysis", "data visualization",
	"pandas", "numpy", "matplotlib", "seaborn", "looker", "tableau", "power bi",
}

// Headers that usually introduce the technical part of a description.
var techSections = []string{
	"technical requirements",
	"technical skills",
	"requirements",
	"ideal candidate",
	"nice to have",
	"qualifications",
}

const techSectionLen = 2000

// SkillMatcher finds vocabulary terms in free text. Safe for concurrent use.
type SkillMatcher struct {
	terms []string
	res   []*regexp.Regexp
}

func NewSkillMatcher(vocab []string) *SkillMatcher {
	m := &SkillMatcher{}
	for _, v := range vocab {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		// terms like "c++" and "node.js" end in non-word chars, so \b is not usable
		re := regexp.MustCompile(`(?:^|[^a-z0-9_])` + regexp.QuoteMeta(v) + `(?:$|[^a-z0-9_])`)
		m.terms = append(m.terms, v)
		m.res = append(m.res, re)
	}
	return m
}

// Extract returns the sorted skills found in an HTML or plain-text description.
func (m *SkillMatcher) Extract(description string) []string {
	text := strings.ToLower(TechnicalSection(HTMLToText(description)))
	var found []string
	for i, re := range m.res {
		if re.MatchString(text) {
			found = append(found, m.terms[i])
		}
	}
	return domain.NormalizeSkills(found)
}

// HTMLToText strips markup (and script/style/img) and joins text nodes by newline.
func HTMLToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return CleanText(s)
	}
	doc.Find("script, style, img").Remove()

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := CleanText(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// TechnicalSection narrows text to the first known header (in header priority
// order) plus what follows it. Text without a header is returned unchanged.
func TechnicalSection(text string) string {
	low := strings.ToLower(text)
	for _, sec := range techSections {
		i := strings.Index(low, sec)
		if i < 0 {
			continue
		}
		end := i + techSectionLen
		if end > len(low) {
			end = len(low)
		}
		return low[i:end]
	}
	return text
}
