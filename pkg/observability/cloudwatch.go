package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// PutMetricDataAPI is the part of the CloudWatch client the recorder uses
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics sends business metrics to CloudWatch. Send failures are
// logged and dropped.
type CloudWatchMetrics struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger
	now       func() time.Time
}

// NewCloudWatchMetrics creates a new metrics instance
func NewCloudWatchMetrics(namespace string, client PutMetricDataAPI, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

func dim(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (m *CloudWatchMetrics) datum(name string, value float64, unit types.StandardUnit, dims ...types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
	}
}

func (m *CloudWatchMetrics) put(ctx context.Context, data ...types.MetricDatum) {
	if m.client == nil {
		return
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}

func (m *CloudWatchMetrics) RecordBatch(ctx context.Context, outcome string, duration time.Duration, creates, updates, deletes int) {
	o := dim("Outcome", outcome)
	m.put(ctx,
		m.datum("BatchSave", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, o),
		m.datum("BatchCount", 1, types.StandardUnitCount, o),
		m.datum("RowsWritten", float64(creates+updates+deletes), types.StandardUnitCount, o),
	)
}

func (m *CloudWatchMetrics) RecordLogin(ctx context.Context, outcome string) {
	m.put(ctx, m.datum("LoginCount", 1, types.StandardUnitCount, dim("Outcome", outcome)))
}

func (m *CloudWatchMetrics) RecordQuery(ctx context.Context, query string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.put(ctx, m.datum("QueryLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
		dim("Query", query), dim("Status", status)))
}
