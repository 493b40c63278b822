package models

// ReviewTotals holds the product-level aggregate figures scraped from the
// review page header. Every field is optional: absence is represented by
// nil / empty, never fabricated.
type ReviewTotals struct {
	ReviewCount           *int   `json:"review_count"`
	OverallRating         string `json:"overall_rating,omitempty"`
	EaseOfUseRating       string `json:"ease_of_use_rating,omitempty"`
	CustomerServiceRating string `json:"customer_service_rating,omitempty"`
	FunctionalityRating   string `json:"functionality_rating,omitempty"`
	ValueForMoneyRating   string `json:"value_for_money_rating,omitempty"`
}

// Review is one scraped review card.
type Review struct {
	Title           string `json:"title,omitempty"`
	Text            string `json:"text"`
	Reviewer        string `json:"reviewer,omitempty"`
	TimeUsedProduct string `json:"time_used_product,omitempty"`
	ReviewerAvatar  string `json:"reviewer_avatar,omitempty"`
	// Datetime is the normalized publication date, formatted as
	// "YYYY-MM-DD 00:00:00 +0000". Falls back to the raw on-page string
	// when normalization fails.
	Datetime string `json:"datetime,omitempty"`
	Rating   string `json:"rating,omitempty"`
	Pros     string `json:"pros,omitempty"`
	Cons     string `json:"cons,omitempty"`
}

// ReviewData is the structured record set the extractor produces from one
// fully hydrated document snapshot.
type ReviewData struct {
	Totals          *ReviewTotals `json:"totals"`
	Reviews         []Review      `json:"reviews"`
	ProductName     string        `json:"product_name_scraped,omitempty"`
	ProductCategory string        `json:"product_category_scraped,omitempty"`
	OriginalURL     string        `json:"original_url"`
	ReviewsCount    int           `json:"reviews_count_scraped"`
	DurationSeconds float64       `json:"scrape_duration_seconds"`
}
