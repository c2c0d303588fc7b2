package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// RenderErrorSection renders the error section HTML.
func RenderErrorSection(errors []string) string {
	if len(errors) == 0 {
		return ""
	}

	var errorItems strings.Builder
	for _, e := range errors {
		fmt.Fprintf(&errorItems, "<li>%s</li>", html.EscapeString(e))
	}

	return fmt.Sprintf(`
		<div style="background-color: #fff4f4; border-left: 5px solid #d13438; padding: 15px; margin-bottom: 20px;">
			<h3 style="color: #d13438; margin-top: 0; font-size: 18px;">Some transactions were skipped</h3>
			<ul style="margin-bottom: 0; padding-left: 20px;">
				%s
			</ul>
		</div>
	`, errorItems.String())
}

// RenderErrorBody renders the full HTML body for an error email.
func RenderErrorBody(errors []string) string {
	return renderPage("#d13438", "Import Failed", fmt.Sprintf(`
					<p>The uploaded CSV could not be processed due to the following errors:</p>
					%s`, RenderErrorSection(errors)))
}

// RenderAccountSection renders one account of the daily summary.
func RenderAccountSection(s models.AccountSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
		<div style="border-bottom: 1px solid #eee; padding: 10px 0;">
			<h3 style="margin: 0 0 8px 0;">%s</h3>
			<table style="width: 100%%; border-collapse: collapse;">
				<tr><td>Available to reinvest</td><td style="text-align: right;"><strong>%s</strong></td></tr>
				<tr><td>Profit today</td><td style="text-align: right;">%s</td></tr>
				<tr><td>Active positions</td><td style="text-align: right;">%s</td></tr>
			</table>`,
		html.EscapeString(s.AccountName),
		s.AvailableBalance.StringFixed(2),
		s.TodaysProfit.StringFixed(2),
		s.ActiveAmount.StringFixed(2),
	)

	if len(s.Expiring) > 0 {
		b.WriteString(`
			<p style="margin: 8px 0 4px 0; color: #a4262c;">Positions finishing soon:</p>
			<ul style="margin: 0; padding-left: 20px;">`)
		for _, t := range s.Expiring {
			fmt.Fprintf(&b, "<li>%s %s (%s)</li>", t.Date.String(), t.Amount.StringFixed(2), html.EscapeString(string(t.Type)))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("\n\t\t</div>")
	return b.String()
}

// RenderPortfolioSummary renders the nightly digest for all accounts.
func RenderPortfolioSummary(summaries []models.AccountSummary) string {
	if len(summaries) == 0 {
		return renderPage("#0078d4", "Daily Summary", "<p>No accounts are being tracked.</p>")
	}

	var sections strings.Builder
	for _, s := range summaries {
		sections.WriteString(RenderAccountSection(s))
	}
	return renderPage("#0078d4", "Daily Summary", fmt.Sprintf(`
					<p>Summary for %s</p>
					%s`, summaries[0].Date.String(), sections.String()))
}

func renderPage(color, title, content string) string {
	return fmt.Sprintf(`
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
				<div style="background-color: %s; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">%s</h2>
				</div>
				<div style="padding: 20px;">%s
				</div>
			</div>
		</body>
		</html>
	`, color, title, content)
}
