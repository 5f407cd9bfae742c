package restaurant

import (
	"go.uber.org/zap"
)

func NewModule(repo Repository, logger *zap.Logger) *Controller {
	svc := NewService(repo)
	uc := NewPackagesUseCase(svc)
	return NewController(uc, logger)
}
