package app

import (
	"context"
	"fmt"

	"income_statement_service/internal/domain/notify"

	"github.com/sirupsen/logrus"
)

// PortalCoordinator creates a request's presence in the employer portal.
// Case and task creation are two sequential calls with no shared
// transaction: when task creation fails, the already-created case is
// deleted as a compensating action and the original failure is returned.
// No retries are attempted. A process crash between the two calls leaves an
// orphaned case behind; nothing reconciles those.
type PortalCoordinator struct {
	portal notify.PortalClient
	logger *logrus.Logger
}

func NewPortalCoordinator(portal notify.PortalClient, logger *logrus.Logger) *PortalCoordinator {
	return &PortalCoordinator{portal: portal, logger: logger}
}

// CreateCase creates the portal case and sets its secondary text.
func (c *PortalCoordinator) CreateCase(ctx context.Context, caseIn notify.CaseInput, secondaryText string) (string, error) {
	caseID, err := c.portal.CreateCase(ctx, caseIn)
	if err != nil {
		return "", fmt.Errorf("creating portal case: %w", err)
	}
	if err := c.portal.UpdateCaseSecondaryText(ctx, caseID, secondaryText); err != nil {
		return "", fmt.Errorf("setting secondary text on portal case %s: %w", caseID, err)
	}
	return caseID, nil
}

// CreateCaseWithTask creates the case and its task. A failed task creation
// triggers a compensating delete of the case; the task failure is what the
// caller gets back either way.
func (c *PortalCoordinator) CreateCaseWithTask(ctx context.Context, caseIn notify.CaseInput, secondaryText string, taskIn notify.TaskInput) (caseID, taskID string, err error) {
	caseID, err = c.CreateCase(ctx, caseIn, secondaryText)
	if err != nil {
		return "", "", err
	}
	taskID, err = c.portal.CreateTask(ctx, taskIn)
	if err != nil {
		// Manual rollback: the case and the task go in two separate calls.
		if delErr := c.portal.DeleteCase(ctx, caseID); delErr != nil {
			c.logger.Errorf("Compensating delete of portal case %s failed: %v", caseID, delErr)
		}
		return "", "", fmt.Errorf("creating portal task: %w", err)
	}
	return caseID, taskID, nil
}
