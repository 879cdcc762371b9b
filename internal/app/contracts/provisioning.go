package contracts

import (
	"chartseed-service/internal/pkg/dto/requests"
	"chartseed-service/internal/pkg/dto/responses"
	"context"
)

type ProvisioningUsecase interface {
	ProvisionPatient(ctx context.Context, request *requests.ProvisionPatient) (*responses.ProvisionResult, error)
}

type TeardownUsecase interface {
	RemovePatient(ctx context.Context, request *requests.RemovePatient) (*responses.TeardownResult, error)
}
