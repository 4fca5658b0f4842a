package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"

	// MStockReservationLines counts cart lines by reservation outcome.
	MStockReservationLines MetricKey = "stock_reservation_lines_total"
	// MInvoiceConflicts counts invoice numbers rejected by the unique index.
	MInvoiceConflicts MetricKey = "invoice_allocation_conflicts_total"
)
