package crawler

import "strings"

// Page type labels assigned by ClassifyPage. Downstream stages carry the
// label through to the generated pairs but never branch on it.
const (
	PageProduct = "product"
	PageFAQ     = "faq"
	PageRoutine = "routine"
	PageGeneral = "general"
)

// classifyRules are checked in order; the first hit wins.
var classifyRules = []struct {
	pageType string
	keywords []string
}{
	{PageProduct, []string{"ingredient", "how to use", "benefits"}},
	{PageFAQ, []string{"faq", "frequently asked", "shipping", "returns"}},
	{PageRoutine, []string{"routine", "step", "cleanse", "apply"}},
}

// ClassifyPage assigns a coarse page type from the whole-page text.
func ClassifyPage(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.pageType
			}
		}
	}
	return PageGeneral
}
