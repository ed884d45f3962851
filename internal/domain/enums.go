package domain

// AuditAction names an audited operation.
type AuditAction string

const (
	AuditAnalysisCreate AuditAction = "analysis.create"
	AuditReportView     AuditAction = "report.view"
	AuditReportDownload AuditAction = "report.download"
	AuditReportExport   AuditAction = "report.export"
)

// Placeholders substituted when extraction finds nothing for a field.
const (
	PlaceholderSummary         = "No summary was provided in the analysis."
	PlaceholderKeyFindings     = "No specific key findings were identified in the analysis."
	PlaceholderRecommendations = "No specific recommendations were provided. Review the full analysis for details."
)
