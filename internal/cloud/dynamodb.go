package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/repository"
)

const anomalyTable = "ConsumptionAnomalies"

// DynamoAnomalyStore keeps anomaly records in DynamoDB, keyed by asset_id
// (partition) and date (sort). Drop-in alternative to the file store when
// cloud services are enabled.
type DynamoAnomalyStore struct {
	svc *dynamodb.Client
	ctx context.Context
}

// NewDynamoAnomalyStore creates a DynamoDB-backed anomaly store
func NewDynamoAnomalyStore(region string) (*DynamoAnomalyStore, error) {
	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &DynamoAnomalyStore{
		svc: dynamodb.NewFromConfig(cfg),
		ctx: ctx,
	}, nil
}

var _ repository.AnomalyStore = (*DynamoAnomalyStore)(nil)

// anomalyItem is the DynamoDB structure for anomaly records
type anomalyItem struct {
	AssetID         string  `dynamodbav:"assetId"`
	Date            string  `dynamodbav:"date"`
	ID              string  `dynamodbav:"anomalyId"`
	Type            string  `dynamodbav:"type"`
	PreviousValue   float64 `dynamodbav:"previousValue"`
	CurrentValue    float64 `dynamodbav:"currentValue"`
	Offset          float64 `dynamodbav:"offset"`
	ConsumptionType string  `dynamodbav:"consumptionType"`
	DetectedAt      int64   `dynamodbav:"detectedAt"`
	OriginalType    string  `dynamodbav:"originalType,omitempty"`
	Reclassified    bool    `dynamodbav:"reclassified"`
	ReclassifiedAt  int64   `dynamodbav:"reclassifiedAt,omitempty"`
}

func toItem(a domain.Anomaly) anomalyItem {
	item := anomalyItem{
		AssetID:         a.AssetID,
		Date:            a.Date.Format(time.RFC3339),
		ID:              a.ID,
		Type:            string(a.Type),
		PreviousValue:   a.PreviousValue,
		CurrentValue:    a.CurrentValue,
		Offset:          a.Offset,
		ConsumptionType: a.ConsumptionType,
		DetectedAt:      a.DetectedAt.Unix(),
		OriginalType:    string(a.OriginalType),
		Reclassified:    a.Reclassified,
	}
	if !a.ReclassifiedAt.IsZero() {
		item.ReclassifiedAt = a.ReclassifiedAt.Unix()
	}
	return item
}

func (item anomalyItem) toDomain() (domain.Anomaly, error) {
	date, err := time.Parse(time.RFC3339, item.Date)
	if err != nil {
		return domain.Anomaly{}, fmt.Errorf("anomaly date %q: %w", item.Date, err)
	}
	a := domain.Anomaly{
		ID:              item.ID,
		Type:            domain.AnomalyType(item.Type),
		Date:            date,
		PreviousValue:   item.PreviousValue,
		CurrentValue:    item.CurrentValue,
		Offset:          item.Offset,
		AssetID:         item.AssetID,
		ConsumptionType: item.ConsumptionType,
		DetectedAt:      time.Unix(item.DetectedAt, 0),
		OriginalType:    domain.AnomalyType(item.OriginalType),
		Reclassified:    item.Reclassified,
	}
	if item.ReclassifiedAt != 0 {
		a.ReclassifiedAt = time.Unix(item.ReclassifiedAt, 0)
	}
	return a, nil
}

// SaveAnomaly stores an anomaly record, assigning an identifier when absent
func (s *DynamoAnomalyStore) SaveAnomaly(a domain.Anomaly) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	item, err := attributevalue.MarshalMap(toItem(a))
	if err != nil {
		return "", fmt.Errorf("failed to marshal anomaly: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(anomalyTable),
		Item:      item,
	}

	if _, err := s.svc.PutItem(s.ctx, input); err != nil {
		return "", fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}
	return a.ID, nil
}

// GetAnomalies queries anomalies by asset (falling back to a scan for
// wildcard asset filters) and applies the remaining filters client-side
func (s *DynamoAnomalyStore) GetAnomalies(filter repository.AnomalyFilter) ([]domain.Anomaly, error) {
	var items []map[string]types.AttributeValue

	if filter.AssetID != "" {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(anomalyTable),
			KeyConditionExpression: aws.String("assetId = :aid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":aid": &types.AttributeValueMemberS{Value: filter.AssetID},
			},
		}
		result, err := s.svc.Query(s.ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
		}
		items = result.Items
	} else {
		result, err := s.svc.Scan(s.ctx, &dynamodb.ScanInput{TableName: aws.String(anomalyTable)})
		if err != nil {
			return nil, fmt.Errorf("failed to scan DynamoDB: %w", err)
		}
		items = result.Items
	}

	var dbItems []anomalyItem
	if err := attributevalue.UnmarshalListOfMaps(items, &dbItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal anomalies: %w", err)
	}

	var out []domain.Anomaly
	for _, item := range dbItems {
		a, err := item.toDomain()
		if err != nil {
			continue
		}
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// UpdateAnomaly replaces the record stored under (asset_id, date)
func (s *DynamoAnomalyStore) UpdateAnomaly(a domain.Anomaly) error {
	if a.ID == "" {
		existing, err := s.GetAnomalies(repository.AnomalyFilter{AssetID: a.AssetID})
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Date.Equal(a.Date) {
				a.ID = e.ID
				break
			}
		}
	}
	_, err := s.SaveAnomaly(a)
	return err
}
