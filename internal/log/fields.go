package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserID         = "user_id"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldBillID         = "bill_id"
	FieldBillTitle      = "bill_title"
	FieldNotificationID = "notification_id"
	FieldClassification = "classification"
	FieldSeverity       = "severity"
	FieldCategory       = "category"
	FieldAmount         = "amount"
	FieldCurrency       = "currency"
	FieldForecastDays   = "forecast_days"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAnalytics = "analytics"
	ComponentNotifier  = "notifier"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentReport    = "report"
	ComponentCurrency  = "currency"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpList     = "list"
	OpCheck    = "check"
	OpConfirm  = "confirm"
	OpAnalyze  = "analyze"
	OpForecast = "forecast"
	OpExport   = "export"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithUser adds the user id field
func (f LogFields) WithUser(userID string) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithBill adds bill-related fields
func (f LogFields) WithBill(billID, title string, amount float64, currency string) LogFields {
	f[FieldBillID] = billID
	f[FieldBillTitle] = title
	f[FieldAmount] = amount
	f[FieldCurrency] = currency
	return f
}

// WithNotification adds notification-related fields
func (f LogFields) WithNotification(notificationID, classification, severity string) LogFields {
	f[FieldNotificationID] = notificationID
	f[FieldClassification] = classification
	f[FieldSeverity] = severity
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
