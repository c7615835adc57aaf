package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldUserID    = "user_id"
	FieldUsername  = "username"
	FieldExpenseID = "expense_id"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldDate      = "date"
	FieldBudget    = "budget"
	FieldTotal     = "total"
	FieldPath      = "path"
	FieldRef       = "ref"
	FieldCount     = "count"
	FieldState     = "state"
	FieldSessionID = "session_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentSession = "session"
	ComponentService = "service"
	ComponentStorage = "storage"
	ComponentExport  = "export"
	ComponentSheets  = "sheets"
	ComponentAMQP    = "amqp"
	ComponentChart   = "chart"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpResolveUser  = "resolve_user"
	OpCheckBudget  = "check_budget"
	OpAddExpense   = "add_expense"
	OpSummary      = "summary"
	OpExport       = "export"
	OpUpdateBudget = "update_budget"
	OpPublish      = "publish"
	OpRender       = "render"
	OpStartup      = "startup"
	OpShutdown     = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithUser(userID int64) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id int64, amount, category, date string) LogFields {
	f[FieldExpenseID] = id
	f[FieldAmount] = amount
	f[FieldCategory] = category
	f[FieldDate] = date
	return f
}

// ToSlice converts LogFields to key/value pairs for slog, ordered by key so
// output is stable.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
