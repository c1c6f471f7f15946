package use_cases

import (
	"context"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type getHealthUseCase struct {
	database portsout.PersistenceBootstrapGateway
}

func NewGetHealthUseCase(database portsout.PersistenceBootstrapGateway) portsin.GetHealthUseCase {
	return &getHealthUseCase{database: database}
}

func (u *getHealthUseCase) Execute(ctx context.Context, _ dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError) {
	status := valueobjects.NewHealthyStatus()
	if u.database == nil {
		return dto.HealthOutput{Status: status.String()}, nil
	}

	database := "ok"
	if appErr := u.database.CheckReadiness(ctx); appErr != nil {
		status = valueobjects.NewDegradedStatus()
		database = "unavailable"
	}

	return dto.HealthOutput{
		Status:   status.String(),
		Database: database,
	}, nil
}
