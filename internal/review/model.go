package review

import (
	"strings"
	"time"

	"github.com/MikeMC777/phonestore/internal/apperr"
)

const (
	MinRating       = 1
	MaxRating       = 5
	MaxCommentWords = 200
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

var (
	ErrNotFound        = apperr.New(apperr.KindNotFound, "review_not_found", "review not found")
	ErrNotPurchased    = apperr.New(apperr.KindPermissionDenied, "not_purchased", "you must purchase and receive this product before reviewing it")
	ErrAlreadyReviewed = apperr.New(apperr.KindConflict, "already_reviewed", "you have already reviewed this product")
	ErrInvalidRating   = apperr.New(apperr.KindValidation, "invalid_rating", "rating must be between 1 and 5")
	ErrCommentTooLong  = apperr.New(apperr.KindValidation, "comment_too_long", "comment must not exceed 200 words")
)

type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	OrderID     string    `json:"order_id,omitempty"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	Sentiment   Sentiment `json:"sentiment"`
	PurchasedAt time.Time `json:"purchased_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Classify maps a rating to its sentiment bucket.
func Classify(rating int) Sentiment {
	switch {
	case rating >= 4:
		return SentimentPositive
	case rating <= 2:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func WordCount(s string) int { return len(strings.Fields(s)) }

func validate(rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	if WordCount(comment) > MaxCommentWords {
		return ErrCommentTooLong
	}
	return nil
}

// CreateReviewRequest payload for POST /reviews. Either product_id or
// order_number must be set.
// swagger:model CreateReviewRequest
type CreateReviewRequest struct {
	ProductID   string `json:"product_id,omitempty" example:"iphone-15-128"`
	OrderNumber string `json:"order_number,omitempty" example:"ORD20250601101500ABC"`
	Rating      int    `json:"rating" example:"5"`
	Comment     string `json:"comment" example:"Great"`
}

// Eligibility is returned by GET /products/:id/review-eligibility.
type Eligibility struct {
	ProductID         string     `json:"product_id"`
	CanReview         bool       `json:"can_review"`
	HasPurchased      bool       `json:"has_purchased"`
	AlreadyReviewed   bool       `json:"already_reviewed"`
	FirstPurchaseDate *time.Time `json:"first_purchase_date,omitempty"`
}
