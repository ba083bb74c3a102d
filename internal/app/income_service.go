package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"income_statement_service/internal/domain/income"

	"github.com/sirupsen/logrus"
)

// IncomeService answers the income-computation query used to pre-fill a
// statement: the tagged lookback months plus the rounded average.
type IncomeService struct {
	source income.Source
	logger *logrus.Logger
}

func NewIncomeService(source income.Source, logger *logrus.Logger) *IncomeService {
	return &IncomeService{source: source, logger: logger}
}

// MonthlyIncome resolves the lookback window, fetches raw records from the
// income register and aggregates them. Today's date is a parameter to keep
// the computation testable. Register downtime degrades to an outage-tagged
// empty result instead of failing.
func (s *IncomeService) MonthlyIncome(ctx context.Context, actorID, orgNumber string, basisDate, today time.Time, continuouslyEmployed bool) (*income.Summary, error) {
	window := income.ResolveWindow(basisDate, today, continuouslyEmployed)
	records, err := s.source.FetchMonthlyIncome(ctx, actorID, window.From, window.To)
	if err != nil {
		if errors.Is(err, income.ErrSourceUnavailable) {
			s.logger.Warnf("Income register down, returning empty months without an average: %v", err)
			return income.OutageSummary(basisDate, orgNumber), nil
		}
		return nil, fmt.Errorf("fetching monthly income for actor: %w", err)
	}
	summary, err := income.Aggregate(records, window, today, orgNumber, continuouslyEmployed)
	if err != nil {
		return nil, fmt.Errorf("aggregating monthly income: %w", err)
	}
	return summary, nil
}
