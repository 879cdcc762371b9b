package events

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/dto/requests"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/utils"
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type eventPublisherService struct {
	Channel             *amqp091.Channel
	ProvisionedQueue    string
	DecommissionedQueue string
	Log                 *zap.Logger
}

var (
	eventPublisherServiceInstance contracts.EventPublisher
	onceEventPublisherService     sync.Once
	eventPublisherServiceError    error
)

func NewEventPublisherService(rabbitMQConnection *amqp091.Connection, logger *zap.Logger, provisionedQueue, decommissionedQueue string) (contracts.EventPublisher, error) {
	onceEventPublisherService.Do(func() {
		channel, err := rabbitMQConnection.Channel()
		if err != nil {
			eventPublisherServiceError = err
			return
		}
		for _, queue := range []string{provisionedQueue, decommissionedQueue} {
			if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
				eventPublisherServiceError = err
				return
			}
		}
		instance := &eventPublisherService{
			Channel:             channel,
			ProvisionedQueue:    provisionedQueue,
			DecommissionedQueue: decommissionedQueue,
			Log:                 logger,
		}
		eventPublisherServiceInstance = instance
	})
	return eventPublisherServiceInstance, eventPublisherServiceError
}

func (s *eventPublisherService) PatientProvisioned(ctx context.Context, externalID, patientID string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("eventPublisherService.PatientProvisioned called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingExternalIDKey, externalID),
	)

	event := requests.PatientProvisionedEvent{
		ExternalID: externalID,
		PatientID:  patientID,
		OccurredAt: time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	message := amqp091.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		MessageId:    utils.GenerateMessageID(),
		Timestamp:    event.OccurredAt,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	}

	err = s.Channel.PublishWithContext(ctx, "", s.ProvisionedQueue, false, false, message)
	if err != nil {
		s.Log.Error("eventPublisherService.PatientProvisioned error publishing message",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingQueueNameKey, s.ProvisionedQueue),
			zap.Error(err),
		)
		return exceptions.ErrRabbitMQPublishMessage(err, s.ProvisionedQueue)
	}

	s.Log.Info("eventPublisherService.PatientProvisioned succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingQueueNameKey, s.ProvisionedQueue),
	)
	return nil
}

func (s *eventPublisherService) PatientDecommissioned(ctx context.Context, externalID string, deleted, failed int) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("eventPublisherService.PatientDecommissioned called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingExternalIDKey, externalID),
	)

	event := requests.PatientDecommissionedEvent{
		ExternalID: externalID,
		Deleted:    deleted,
		Failed:     failed,
		OccurredAt: time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	message := amqp091.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		MessageId:    utils.GenerateMessageID(),
		Timestamp:    event.OccurredAt,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	}

	err = s.Channel.PublishWithContext(ctx, "", s.DecommissionedQueue, false, false, message)
	if err != nil {
		s.Log.Error("eventPublisherService.PatientDecommissioned error publishing message",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingQueueNameKey, s.DecommissionedQueue),
			zap.Error(err),
		)
		return exceptions.ErrRabbitMQPublishMessage(err, s.DecommissionedQueue)
	}

	s.Log.Info("eventPublisherService.PatientDecommissioned succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingQueueNameKey, s.DecommissionedQueue),
	)
	return nil
}
