package model

// Options configures the behaviour of the Builder. Options are constructed by
// the public adapter in pkg/model and passed into New.
type Options struct {
	OperationID string
	Endpoint    string
	Method      string
	Summary     string
}

func defaultOptions() Options {
	return Options{
		OperationID: "formbuilder.submit",
		Endpoint:    "/form",
		Method:      "POST",
		Summary:     "Form preview",
	}
}
