package repository

import (
	"github.com/branchschool/installments/internal/domain/installment"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/postgres"
	postgresRepo "github.com/branchschool/installments/internal/repository/postgres"
)

func NewInstallmentRepository(db *postgres.DB, logger *logger.Logger) installment.Repository {
	return postgresRepo.NewInstallmentRepository(db, logger)
}
