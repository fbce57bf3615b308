package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
)

// SNSClient wraps AWS SNS for anomaly alert notifications
type SNSClient struct {
	svc      *sns.Client
	topicArn string
	ctx      context.Context
}

// NewSNSClient creates a new SNS client instance
func NewSNSClient(region, topicArn string) (*SNSClient, error) {
	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
		ctx:      ctx,
	}, nil
}

// SendAlert publishes a message to the configured topic
func (c *SNSClient) SendAlert(subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}

	_, err := c.svc.Publish(c.ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	return nil
}

// SendCounterResetAlert formats and sends an alert for detected counter
// resets on one series
func (c *SNSClient) SendCounterResetAlert(assetID, consumptionType string, anomalies []domain.Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Consumption Alert: %d counter reset(s) at %s", len(anomalies), assetID)
	message := fmt.Sprintf(
		"Counter Reset Detection Alert\n\n"+
			"Asset: %s\n"+
			"Consumption type: %s\n"+
			"Detected resets: %d\n\n",
		assetID,
		consumptionType,
		len(anomalies),
	)
	for i, a := range anomalies {
		message += fmt.Sprintf("%d. %s: %.2f -> %.2f (offset %.2f)\n",
			i+1, a.Date.Format("2006-01-02"), a.PreviousValue, a.CurrentValue, a.EffectiveOffset())
	}
	message += fmt.Sprintf("\nTime: %s\n", time.Now().Format(time.RFC3339))

	return c.SendAlert(subject, message)
}
