package models

// Operation selects the lifecycle branch of a request.
type Operation int

const (
	OperationRead Operation = iota
	OperationCreate
	OperationUpdate
)

func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "create"
	case OperationUpdate:
		return "update"
	default:
		return "read"
	}
}

// OperationFromMethod maps a transport verb to an operation:
// PUT creates, POST updates, anything else reads.
func OperationFromMethod(method string) Operation {
	switch method {
	case "PUT":
		return OperationCreate
	case "POST":
		return OperationUpdate
	default:
		return OperationRead
	}
}

// Request is one inbound operation as seen by the dispatcher.
type Request struct {
	Operation     Operation
	Authorization string
	// Body holds login/password for create or the patch for update.
	Body map[string]any
}

// Status is the outcome marker attached to every envelope.
type Status int

const (
	StatusOK Status = iota
	StatusFailure
)

// Envelope is the uniform response shape for every operation.
type Envelope struct {
	User  *User  `json:"user,omitempty"`
	JWT   string `json:"jwt,omitempty"`
	Error string `json:"error,omitempty"`
}

// Response pairs an envelope with its outcome status.
type Response struct {
	Envelope Envelope
	Status   Status
}
