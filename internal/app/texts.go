package app

import (
	"fmt"
	"time"

	"income_statement_service/internal/domain/request"
)

// Portal-facing texts for statement requests.

const textDateLayout = "02.01.06"

const (
	caseTitleTemplate             = "Income statement for %s"
	secondaryTextOrdinary         = "For first absence date %s"
	secondaryTextExternal         = "Submitted through the employer's payroll system for first absence date %s"
	secondaryTextExpired          = "You no longer need to submit the income statement for first absence date %s"
	taskTextTemplate              = "Submission of income statement for %s"
	alertTextTemplate             = "One of your employees has applied for %s and we need an income statement to process the application. Sign in to the employer portal. If you submit through a payroll system you can keep doing that."
	reminderNoticeTemplate        = "We have not yet received the income statement. To process the application for %s, it must be submitted as soon as possible."
	noticeFirstSubmissionReceived = "Income statement received"
	noticeUpdatedStatement        = "Updated income statement"
)

// ClosureReason says why a request's portal case is being closed.
type ClosureReason string

const (
	ClosureOrdinarySubmission ClosureReason = "ORDINARY_SUBMISSION"
	ClosureExternalSubmission ClosureReason = "EXTERNAL_SUBMISSION"
	ClosureExpired            ClosureReason = "EXPIRED"
)

// BenefitTypeName is the display name used in portal texts.
func BenefitTypeName(benefitType request.BenefitType) string {
	if benefitType == request.BenefitPregnancy {
		return "pregnancy benefit"
	}
	return "parental benefit"
}

// BenefitTypeLabel is the portal grouping label for a benefit type.
func BenefitTypeLabel(benefitType request.BenefitType) string {
	if benefitType == request.BenefitPregnancy {
		return "INCOME_STATEMENT_PREGNANCY"
	}
	return "INCOME_STATEMENT_PARENTAL"
}

func caseTitle(benefitType request.BenefitType) string {
	return fmt.Sprintf(caseTitleTemplate, BenefitTypeName(benefitType))
}

// secondaryText is the case's status line shown under the title.
func secondaryText(reason ClosureReason, firstAbsenceDate time.Time) string {
	date := firstAbsenceDate.Format(textDateLayout)
	switch reason {
	case ClosureExternalSubmission:
		return fmt.Sprintf(secondaryTextExternal, date)
	case ClosureExpired:
		return fmt.Sprintf(secondaryTextExpired, date)
	default:
		return fmt.Sprintf(secondaryTextOrdinary, date)
	}
}

func taskText(benefitType request.BenefitType) string {
	return fmt.Sprintf(taskTextTemplate, BenefitTypeName(benefitType))
}

func alertText(benefitType request.BenefitType) string {
	return fmt.Sprintf(alertTextTemplate, BenefitTypeName(benefitType))
}

func reminderText(benefitType request.BenefitType) string {
	return fmt.Sprintf(reminderNoticeTemplate, BenefitTypeName(benefitType))
}

func receiptNoticeText(firstSubmission bool) string {
	if firstSubmission {
		return noticeFirstSubmissionReceived
	}
	return noticeUpdatedStatement
}
