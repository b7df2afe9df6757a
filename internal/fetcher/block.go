package fetcher

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BlockType names the interstitial served instead of the price page.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// shellMaxBytes bounds what counts as a script-only shell page. The real
// price page is far larger.
const shellMaxBytes = 2000

var (
	challengeTitles  = []string{"just a moment", "attention required", "access denied", "ddos-guard"}
	challengePhrases = []string{"checking your browser", "cf-browser-verification", "enable cookies to continue"}
)

const (
	challengeSelector = "#challenge-form, #cf-wrapper, #challenge-running, .cf-browser-verification"
	captchaSelector   = `.g-recaptcha, .h-captcha, .cf-turnstile, iframe[src*="captcha"]`
)

// DetectBlock reports whether resp is an anti-bot interstitial rather than
// the price page. A body that carries the hydration payload is never treated
// as blocked.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable) &&
		servedByCloudflare(resp.Header) {
		return true, BlockCloudflare
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false, BlockNone
	}
	if doc.Find("script#__NUXT_DATA__").Length() > 0 {
		return false, BlockNone
	}

	lower := strings.ToLower(string(body))
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	if containsAny(title, challengeTitles) ||
		containsAny(lower, challengePhrases) ||
		doc.Find(challengeSelector).Length() > 0 {
		return true, BlockCloudflare
	}

	if doc.Find(captchaSelector).Length() > 0 || strings.Contains(title, "captcha") {
		return true, BlockCaptcha
	}

	if len(body) < shellMaxBytes {
		noscript := strings.ToLower(doc.Find("noscript").Text())
		if strings.Contains(noscript, "javascript") {
			return true, BlockJSShell
		}
		refresh := doc.Find("meta").FilterFunction(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("http-equiv")
			return strings.EqualFold(v, "refresh")
		})
		if refresh.Length() > 0 {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}

func servedByCloudflare(h http.Header) bool {
	return h.Get("Cf-Ray") != "" || h.Get("Cf-Mitigated") != "" ||
		strings.EqualFold(h.Get("Server"), "cloudflare")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
