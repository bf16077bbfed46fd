package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/garyjia/funding-workflow/internal/domain/breakdown"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/internal/domain/workflow"
)

// DecisionLink builds <baseURL>/decide?requestId=<id>&token=<token>
func DecisionLink(baseURL, requestID, token string) string {
	return fmt.Sprintf("%s/decide?requestId=%s&token=%s",
		strings.TrimRight(baseURL, "/"),
		url.QueryEscape(requestID),
		url.QueryEscape(token))
}

func requesterLabel(req *entity.FundingRequest) string {
	if req.SubmitterName != "" {
		return fmt.Sprintf("%s <%s>", req.SubmitterName, req.SubmittedBy)
	}
	return req.SubmittedBy
}

func writeSummary(sb *strings.Builder, req *entity.FundingRequest) {
	fmt.Fprintf(sb, "Request: %s\n", req.ID)
	fmt.Fprintf(sb, "Requester: %s\n", requesterLabel(req))
	fmt.Fprintf(sb, "Submitted: %s\n", req.SubmittedAt.UTC().Format("2006-01-02 15:04 MST"))
	for _, f := range entity.SummaryFields {
		if v := req.FormData.String(f.Key); v != "" {
			fmt.Fprintf(sb, "%s: %s\n", f.Label, v)
		}
	}
}

func writeCategories(sb *strings.Builder, bd breakdown.Breakdown) {
	sb.WriteString("\nCost breakdown\n")
	for _, c := range breakdown.Order {
		fmt.Fprintf(sb, "  %-14s %s\n", c.Label()+":", breakdown.FormatMoney(bd.Amount(c)))
	}
	fmt.Fprintf(sb, "  %-14s %s\n", "Total:", breakdown.FormatMoney(bd.TotalCost))
}

func writeItems(sb *strings.Builder, title string, items []breakdown.Item) {
	fmt.Fprintf(sb, "\n%s\n", title)
	if len(items) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(sb, "  - %s: %s\n", it.Label, breakdown.FormatMoney(it.Amount))
	}
}

// RenderSubmitted is the approver message for a new request
func RenderSubmitted(req *entity.FundingRequest, bd breakdown.Breakdown, link string) (string, string) {
	subject := fmt.Sprintf("Funding request %s needs your decision", req.ID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s submitted a funding request for %s.\n\n", requesterLabel(req), breakdown.FormatMoney(bd.TotalCost))
	writeSummary(&sb, req)
	writeCategories(&sb, bd)
	writeItems(&sb, fmt.Sprintf("Prepaid items (%s)", breakdown.FormatMoney(bd.PrepaidTotal)), bd.PrepaidItems)
	writeItems(&sb, fmt.Sprintf("Reimbursement items (%s)", breakdown.FormatMoney(bd.ReimbursementTotal)), bd.ReimbursementItems)
	fmt.Fprintf(&sb, "\nAccept, send back or reject this request:\n%s\n", link)

	return subject, sb.String()
}

// RenderRequesterDecision tells the requester the outcome
func RenderRequesterDecision(req *entity.FundingRequest) (string, string) {
	subject := fmt.Sprintf("Funding request %s was %s", req.ID, strings.ToLower(req.Status.Label()))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your funding request %s is now: %s.\n", req.ID, req.Status.Label())
	if req.Comments != "" {
		fmt.Fprintf(&sb, "\nComments from the approver:\n%s\n", req.Comments)
	}
	switch req.Status {
	case workflow.StateSentBack:
		sb.WriteString("\nPlease address the comments and submit a new request.\n")
	case workflow.StateAccepted:
		sb.WriteString("\nThe disbursement team has been notified.\n")
	}
	return subject, sb.String()
}

// RenderDisbursement gives the disburser everything needed to pay out
func RenderDisbursement(req *entity.FundingRequest, bd breakdown.Breakdown) (string, string) {
	subject := fmt.Sprintf("Funding request %s accepted: payment instructions", req.ID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Funding request %s was accepted and is ready for disbursement.\n\n", req.ID)
	writeSummary(&sb, req)
	writeCategories(&sb, bd)
	writeItems(&sb, fmt.Sprintf("Pay ahead of the event (%s)", breakdown.FormatMoney(bd.PrepaidTotal)), bd.PrepaidItems)
	writeItems(&sb, fmt.Sprintf("Reimburse %s after the event (%s)", req.SubmittedBy, breakdown.FormatMoney(bd.ReimbursementTotal)), bd.ReimbursementItems)
	if req.Comments != "" {
		fmt.Fprintf(&sb, "\nApprover comments: %s\n", req.Comments)
	}
	return subject, sb.String()
}
