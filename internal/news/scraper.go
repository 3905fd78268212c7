// Package news fetches one article from the ETtoday news list and
// flattens it into readable paragraphs for synthesis.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/net/html"

	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// DefaultListURL is the news-list page the scraper samples from.
const DefaultListURL = "https://www.ettoday.net/news/news-list.htm"

// candidatePool caps how deep into the list page the random pick reaches,
// so we always read something recent.
const candidatePool = 10

const savedFileName = "news.json"

// Paragraph is one reading unit of an article, tagged with the language
// the detector saw so the frontend can annotate mixed-script text.
type Paragraph struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Item is one scraped article.
type Item struct {
	Title      string      `json:"title"`
	Published  string      `json:"published"`
	Paragraphs []Paragraph `json:"paragraphs"`
	SourceURL  string      `json:"source_url"`
}

// Content flattens the article into the paragraph list the synthesis
// pipeline reads: title first, publication time second, then body text.
func (it Item) Content() []string {
	content := []string{it.Title, it.Published}
	for _, p := range it.Paragraphs {
		content = append(content, p.Text)
	}
	return content
}

type Config struct {
	ListURL string
	Timeout int
	// TempDir receives the saved article for the later audio call.
	TempDir string
}

// Scraper picks a random recent article and extracts its readable text.
type Scraper struct {
	config     Config
	httpClient *http.Client
	rng        *rand.Rand
}

func NewScraper(config Config) *Scraper {
	if config.ListURL == "" {
		config.ListURL = DefaultListURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10
	}
	return &Scraper{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch scrapes the list page, picks one of the ten newest article links at
// random, extracts the article, and saves the flattened content for
// /api/audio to pick up.
func (s *Scraper) Fetch(ctx context.Context) (Item, error) {
	listDoc, err := s.get(ctx, s.config.ListURL)
	if err != nil {
		return Item{}, fmt.Errorf("fetch news list: %w", err)
	}

	links := collectArticleLinks(listDoc)
	if len(links) == 0 {
		return Item{}, fmt.Errorf("no news links found on the list page")
	}
	if len(links) > candidatePool {
		links = links[:candidatePool]
	}
	articleURL := links[s.rng.Intn(len(links))]
	log.Info("Fetching news article: %s", articleURL)

	articleDoc, err := s.get(ctx, articleURL)
	if err != nil {
		return Item{}, fmt.Errorf("fetch article: %w", err)
	}

	item, err := parseArticle(articleDoc)
	if err != nil {
		return Item{}, fmt.Errorf("parse article %s: %w", articleURL, err)
	}
	item.SourceURL = articleURL

	if s.config.TempDir != "" {
		if err := s.save(item); err != nil {
			return Item{}, fmt.Errorf("save article: %w", err)
		}
	}
	return item, nil
}

// LoadSaved reads back the paragraph list Fetch stored.
func LoadSaved(tempDir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(tempDir, savedFileName))
	if err != nil {
		return nil, fmt.Errorf("no saved news article: %w", err)
	}
	var content []string
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse saved news article: %w", err)
	}
	return content, nil
}

func (s *Scraper) save(item Item) error {
	if err := os.MkdirAll(s.config.TempDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(item.Content())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.config.TempDir, savedFileName), data, 0o644)
}

func (s *Scraper) get(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}
	return html.Parse(resp.Body)
}

// collectArticleLinks pulls absolute article links out of the list page's
// part_list_2 sections, in page order.
func collectArticleLinks(doc *html.Node) []string {
	var links []string
	for _, section := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "div" && hasClass(n, "part_list_2")
	}) {
		for _, a := range findAll(section, func(n *html.Node) bool {
			return n.Data == "a"
		}) {
			href := attrValue(a, "href")
			if strings.Contains(href, "/news/") && strings.HasPrefix(href, "https://") {
				links = append(links, href)
			}
		}
	}
	return links
}

// parseArticle extracts the title, timestamp, and story paragraphs.
// Strong and anchor subtrees inside a paragraph are editorial furniture
// (leads, related-article links) and are dropped.
func parseArticle(doc *html.Node) (Item, error) {
	titleNode := findFirst(doc, func(n *html.Node) bool {
		return n.Data == "h1" && hasClass(n, "title")
	})
	if titleNode == nil {
		return Item{}, fmt.Errorf("article has no title heading")
	}
	timeNode := findFirst(doc, func(n *html.Node) bool {
		return n.Data == "time"
	})
	story := findFirst(doc, func(n *html.Node) bool {
		return n.Data == "div" && hasClass(n, "story")
	})
	if story == nil {
		return Item{}, fmt.Errorf("article has no story body")
	}

	item := Item{
		Title: strings.TrimSpace(nodeText(titleNode, nil)),
	}
	if timeNode != nil {
		item.Published = strings.TrimSpace(nodeText(timeNode, nil))
	}

	skip := func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.Data == "strong" || n.Data == "a")
	}
	for _, p := range findAll(story, func(n *html.Node) bool { return n.Data == "p" }) {
		text := strings.TrimSpace(nodeText(p, skip))
		if text == "" {
			continue
		}
		item.Paragraphs = append(item.Paragraphs, Paragraph{
			Text: text,
			Lang: detectLang(text),
		})
	}
	return item, nil
}

func detectLang(text string) string {
	return whatlanggo.DetectLang(text).Iso6391()
}

func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	nodes := findAll(root, pred)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText concatenates the trimmed text fragments under n, skipping any
// subtree skip reports.
func nodeText(n *html.Node, skip func(*html.Node) bool) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skip != nil && skip(n) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
