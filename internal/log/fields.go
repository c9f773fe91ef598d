package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldItemID      = "item_id"
	FieldItemName    = "item_name"
	FieldSection     = "section"
	FieldBucketID    = "bucket_id"
	FieldGranularity = "granularity"
	FieldAmountCents = "amount_cents"
	FieldBalance     = "balance_cents"
	FieldReason      = "reason"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentService = "forecast"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpBuild    = "build"
	OpAlert    = "alert"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
