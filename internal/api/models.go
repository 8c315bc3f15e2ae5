// Package api holds the wire types shared by the composite gateway and the
// backing services.
package api

import "fmt"

// Product is owned by the product service.
type Product struct {
	ProductID      int    `json:"productId"`
	Name           string `json:"name"`
	Weight         int    `json:"weight"`
	ServiceAddress string `json:"serviceAddress,omitempty"`
}

// Recommendation is owned by the recommendation service. (ProductID, RecommendationID) is unique.
type Recommendation struct {
	ProductID        int    `json:"productId"`
	RecommendationID int    `json:"recommendationId"`
	Author           string `json:"author"`
	Rate             int    `json:"rate"`
	Content          string `json:"content"`
	ServiceAddress   string `json:"serviceAddress,omitempty"`
}

// Review is owned by the review service. (ProductID, ReviewID) is unique.
type Review struct {
	ProductID      int    `json:"productId"`
	ReviewID       int    `json:"reviewId"`
	Author         string `json:"author"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	ServiceAddress string `json:"serviceAddress,omitempty"`
}

type RecommendationSummary struct {
	RecommendationID int    `json:"recommendationId"`
	Author           string `json:"author"`
	Rate             int    `json:"rate"`
	Content          string `json:"content"`
}

type ReviewSummary struct {
	ReviewID int    `json:"reviewId"`
	Author   string `json:"author"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
}

// ServiceAddresses records which instances contributed to an aggregate.
// Rev and Rec are empty when the corresponding list is empty.
type ServiceAddresses struct {
	Cmp string `json:"cmp"`
	Pro string `json:"pro"`
	Rev string `json:"rev"`
	Rec string `json:"rec"`
}

// ProductAggregate is the composite view. It is never stored.
type ProductAggregate struct {
	ProductID        int                                 `json:"productId"`
	Name             string                              `json:"name"`
	Weight           int                                 `json:"weight"`
	Recommendations  OptionalList[RecommendationSummary] `json:"recommendations,omitzero"`
	Reviews          OptionalList[ReviewSummary]         `json:"reviews,omitzero"`
	ServiceAddresses *ServiceAddresses                   `json:"serviceAddresses,omitempty"`
}

// Recommendation expands a summary into the entity the recommendation service stores.
func (s RecommendationSummary) Recommendation(productID int) Recommendation {
	return Recommendation{
		ProductID:        productID,
		RecommendationID: s.RecommendationID,
		Author:           s.Author,
		Rate:             s.Rate,
		Content:          s.Content,
	}
}

// Review expands a summary into the entity the review service stores.
func (s ReviewSummary) Review(productID int) Review {
	return Review{
		ProductID: productID,
		ReviewID:  s.ReviewID,
		Author:    s.Author,
		Subject:   s.Subject,
		Content:   s.Content,
	}
}

func SummarizeRecommendation(r Recommendation) RecommendationSummary {
	return RecommendationSummary{
		RecommendationID: r.RecommendationID,
		Author:           r.Author,
		Rate:             r.Rate,
		Content:          r.Content,
	}
}

func SummarizeReview(r Review) ReviewSummary {
	return ReviewSummary{
		ReviewID: r.ReviewID,
		Author:   r.Author,
		Subject:  r.Subject,
		Content:  r.Content,
	}
}

// InvalidProductIDMessage is the message every service uses for ids below 1.
func InvalidProductIDMessage(productID int) string {
	return fmt.Sprintf("Invalid productId: %d", productID)
}
