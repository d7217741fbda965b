package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"edugrant-workers/internal/models"
)

// Publisher is the slice of the SNS API the sink needs.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SNSSink publishes the ranking as one message so downstream consumers can store it.
type SNSSink struct {
	publisher Publisher
	topicARN  string
}

func NewSNSSink(publisher Publisher, topicARN string) *SNSSink {
	return &SNSSink{publisher: publisher, topicARN: topicARN}
}

type snsMessage struct {
	UserID          string                        `json:"user_id"`
	Count           int                           `json:"count"`
	Recommendations []models.RecommendationRecord `json:"recommendations"`
}

func (s *SNSSink) PersistResults(ctx context.Context, requesterID string, results []models.ScoredOffer) error {
	if len(results) == 0 {
		return nil
	}
	rows := models.NewRecommendationRecords(requesterID, results, clock())

	body, err := json.Marshal(snsMessage{UserID: requesterID, Count: len(rows), Recommendations: rows})
	if err != nil {
		return fmt.Errorf("encode sns message: %w", err)
	}

	_, err = s.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"user_id": {DataType: aws.String("String"), StringValue: aws.String(requesterID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish recommendations: %w", err)
	}
	return nil
}
