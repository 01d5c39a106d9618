package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldHouseNo     = "house_no"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldAmountCents = "amount_cents"
	FieldRequestKind = "request_kind"
	FieldReviewer    = "reviewer"
	FieldMirrorRef   = "mirror_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentWorkflow  = "workflow"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpPost     = "post"
	OpSubmit   = "submit"
	OpApprove  = "approve"
	OpReject   = "reject"
	OpMirror   = "mirror"
	OpRollover = "rollover"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
