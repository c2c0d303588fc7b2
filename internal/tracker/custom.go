package tracker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/patrickmn/go-cache"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

var customHeaderPattern = regexp.MustCompile(`headers\.custom\s*=\s*["']([^"']+)["']`)

// CodeCache remembers the custom header code scraped for each tracker origin.
// Concurrent lookups for the same origin share one scrape.
type CodeCache struct {
	codes *cache.Cache
	group singleflight.Group
}

func NewCodeCache() *CodeCache {
	return &CodeCache{codes: cache.New(cache.NoExpiration, 0)}
}

// Initialize sets the client's custom code, scraping it on first use per origin.
// Origins without a code are not cached, so the next call tries again.
func (cc *CodeCache) Initialize(ctx context.Context, c *Client) error {
	origin := c.Origin()
	if v, ok := cc.codes.Get(origin); ok {
		c.SetCustomCode(v.(string))
		return nil
	}

	v, err, _ := cc.group.Do(origin, func() (any, error) {
		code, err := scrapeCustomCode(ctx, c)
		if err != nil {
			return "", err
		}
		if code != "" {
			cc.codes.Set(origin, code, cache.NoExpiration)
		}
		return code, nil
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracker %s: %w", origin, err)
	}
	c.SetCustomCode(v.(string))
	return nil
}

// Forget drops the cached code for origin.
func (cc *CodeCache) Forget(origin string) {
	cc.codes.Delete(origin)
}

func scrapeCustomCode(ctx context.Context, c *Client) (string, error) {
	ctx, span := tracer.Start(ctx, "tracker.scrapeCustomCode")
	defer span.End()

	body, err := c.FetchPage(ctx, c.target.String())
	if err != nil {
		return "", err
	}
	src, err := findModuleScript(body)
	if err != nil || src == "" {
		return "", err
	}
	script, err := c.FetchPage(ctx, src)
	if err != nil {
		return "", err
	}
	return ExtractCustomCode(script), nil
}

// findModuleScript returns the src of the first <script type="module"> whose src mentions "index".
func findModuleScript(page string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse tracker page: %w", err)
	}

	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "script" {
			var typ, src string
			for _, a := range n.Attr {
				switch a.Key {
				case "type":
					typ = a.Val
				case "src":
					src = a.Val
				}
			}
			if typ == "module" && strings.Contains(src, "index") {
				return src
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if src := walk(child); src != "" {
				return src
			}
		}
		return ""
	}
	return walk(doc), nil
}

// ExtractCustomCode finds the `headers.custom = "..."` assignment in a script bundle.
func ExtractCustomCode(script string) string {
	m := customHeaderPattern.FindStringSubmatch(script)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
