// Package parser turns a fully hydrated review-page snapshot into structured
// review records. It is the site-specific collaborator of the load pipeline:
// its selectors track one site's current markup and are expected to rot with
// it. Missing optional fields are represented as empty values, never errors.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
)

// Field-level selectors for one review card and the page header.
const (
	selProductNameH1     = `h1[data-testid="richcontent-title"]`
	selProductNameHeader = `span.e1xzmg0z.h11hhycw.font-semibold`
	selCategory          = `nav[class*="be9etqu"] a[data-testid="categoryslug"]`
	selRatingSummary     = `div[class*="flex w-full flex-col justify-between gap-y-6"]`
	selRatingValue       = `span.e1xzmg0z.sr2r3oj`
	selRatingHeader      = `div[class*="sticky top-0"] span[class*="sr2r3oj"]`
	selReviewCountText   = `span.typo-30.font-semibold`
	selReviewerName      = `span.typo-20.text-neutral-99.font-semibold`
	selReviewerInfo      = `div.typo-10.text-neutral-90.w-full`
	selReviewerAvatar    = `img[data-testid="reviewer-profile-pic"]`
	selReviewerInitials  = `div.e1xzmg0z.ajdk2qt.bg-primary-20`
	selReviewTitle       = `h3.typo-20.font-semibold`
	selReviewDate        = `div.typo-0.text-neutral-90`
	selCardRating        = `div[data-testid="rating"] span.e1xzmg0z.sr2r3oj`
	selReviewBody        = `div[class*="!mt-4 space-y-6"]`
	selProsConsBlock     = `div.space-y-2`
)

var (
	ratingWithCountRe = regexp.MustCompile(`([\d.]+)\s*\((\d{1,3}(?:,\d{3})*|\d+)\)`)
	reviewCountOfRe   = regexp.MustCompile(`(?i)(?:of|from)\s+([\d,]+)\s+Reviews`)
	timeUsedRe        = regexp.MustCompile(`(?i)Used the software for:\s*(.+)`)
	dateTextRe        = regexp.MustCompile(`(?i)(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},\s*\d{4}`)
)

// subratingLabels maps on-page labels to ReviewTotals fields.
var subratingLabels = []string{"Ease of use", "Customer Service", "Features", "Value for Money"}

// Parser is the goquery-backed extractor.
type Parser struct {
	sel config.SelectorConfig
}

// New builds a parser sharing the loader's container/card selectors so both
// sides count the same cards.
func New(sel config.SelectorConfig) *Parser {
	return &Parser{sel: sel}
}

// Extract parses the snapshot into a record set, applying the inclusive date
// filter when bounds are set. Reviews whose date cannot be parsed pass the
// filter: absence is represented, not erased.
func (p *Parser) Extract(html string, target models.Target, filter models.DateRange) (*models.ReviewData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to parse document snapshot", err)
	}

	data := &models.ReviewData{
		OriginalURL: target.URL,
		Totals:      p.parseTotals(doc),
		ProductName: p.parseProductName(doc, target),
	}
	if cat := textOf(doc.Find(selCategory).First()); cat != "" {
		data.ProductCategory = cat
	}

	doc.Find(p.sel.ReviewContainer).First().Find(p.sel.ReviewCard).Each(func(_ int, card *goquery.Selection) {
		review, parsedDate, dated := p.parseCard(card)
		if !filter.IsZero() && dated && !filter.Contains(parsedDate) {
			return
		}
		data.Reviews = append(data.Reviews, review)
	})

	data.Reviews = dedupeReviews(data.Reviews)
	data.ReviewsCount = len(data.Reviews)
	return data, nil
}

func (p *Parser) parseProductName(doc *goquery.Document, target models.Target) string {
	if name := textOf(doc.Find(selProductNameH1).First()); name != "" {
		return name
	}
	if name := textOf(doc.Find(selProductNameHeader).First()); name != "" {
		return name
	}
	return target.NameGuess()
}

func (p *Parser) parseTotals(doc *goquery.Document) *models.ReviewTotals {
	totals := &models.ReviewTotals{}

	// Overall rating + declared count from the sticky header aggregate.
	doc.Find(selRatingHeader).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := ratingWithCountRe.FindStringSubmatch(textOf(s)); m != nil {
			totals.OverallRating = m[1]
			if n := parseCount(m[2]); n > 0 {
				totals.ReviewCount = &n
			}
			return false
		}
		return true
	})

	if totals.ReviewCount == nil {
		doc.Find(selReviewCountText).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := reviewCountOfRe.FindStringSubmatch(textOf(s)); m != nil {
				if n := parseCount(m[1]); n > 0 {
					totals.ReviewCount = &n
					return false
				}
			}
			return true
		})
	}

	summary := doc.Find(selRatingSummary).First()
	if summary.Length() > 0 {
		for _, label := range subratingLabels {
			value := subratingValue(summary, label)
			switch label {
			case "Ease of use":
				totals.EaseOfUseRating = value
			case "Customer Service":
				totals.CustomerServiceRating = value
			case "Features":
				totals.FunctionalityRating = value
			case "Value for Money":
				totals.ValueForMoneyRating = value
			}
		}
	}
	return totals
}

// subratingValue finds the innermost summary row mentioning the label and
// reads its rating span. Cascadia has no :has(:contains(..)), so the text
// match is done in Go.
func subratingValue(summary *goquery.Selection, label string) string {
	var value string
	summary.Find("div").Each(func(_ int, row *goquery.Selection) {
		if !strings.Contains(row.Text(), label) {
			return
		}
		if v := textOf(row.Find(selRatingValue).First()); v != "" {
			value = v
		}
	})
	return value
}

// parseCard extracts one review card. The returned time and bool carry the
// parsed publication date for filtering.
func (p *Parser) parseCard(card *goquery.Selection) (models.Review, time.Time, bool) {
	review := models.Review{}

	review.Reviewer = textOf(card.Find(selReviewerName).First())
	if review.Reviewer == "" {
		review.Reviewer = textOf(card.Find(selReviewerInitials).First())
	}
	if src, ok := card.Find(selReviewerAvatar).First().Attr("src"); ok {
		review.ReviewerAvatar = src
	}

	if info := card.Find(selReviewerInfo).First(); info.Length() > 0 {
		if m := timeUsedRe.FindStringSubmatch(info.Text()); m != nil {
			review.TimeUsedProduct = strings.TrimSuffix(strings.TrimSpace(m[1]), ".")
		}
	}

	review.Title = textOf(card.Find(selReviewTitle).First())
	if review.Title == "" {
		review.Title = "No Title"
	}

	var parsedDate time.Time
	var dated bool
	card.Find(selReviewDate).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := textOf(s)
		if !dateTextRe.MatchString(text) {
			return true
		}
		review.Datetime, parsedDate, dated = NormalizeDate(text)
		return false
	})

	review.Rating = textOf(card.Find(selCardRating).First())
	if review.Rating == "" {
		review.Rating = "0.0"
	}

	review.Pros = iconBlockText(card, "Positive icon")
	review.Cons = iconBlockText(card, "Negative icon")
	review.Text = bodyText(card, review.Pros, review.Cons)

	return review, parsedDate, dated
}

// iconBlockText finds the pros/cons block by its icon title and returns the
// paragraph text.
func iconBlockText(card *goquery.Selection, iconTitle string) string {
	var text string
	card.Find(selProsConsBlock).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		match := false
		block.Find("svg title").Each(func(_ int, t *goquery.Selection) {
			if strings.Contains(t.Text(), iconTitle) {
				match = true
			}
		})
		if !match {
			return true
		}
		text = textOf(block.Find("p").First())
		return false
	})
	return text
}

// bodyText joins the free-form paragraphs of the card body, excluding the
// pros/cons paragraphs and icon-bearing ones.
func bodyText(card *goquery.Selection, pros, cons string) string {
	var parts []string
	card.Find(selReviewBody).First().ChildrenFiltered("p").Each(func(_ int, para *goquery.Selection) {
		if para.Find("svg").Length() > 0 {
			return
		}
		text := textOf(para)
		if text == "" || text == pros || text == cons {
			return
		}
		const prefix = "overall experience:"
		if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
			text = strings.TrimSpace(text[len(prefix):])
		}
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

func textOf(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

func parseCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}
