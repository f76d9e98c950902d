package errors_test

import (
	"fmt"

	"github.com/muhamedRadwan/subscriptions/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	// Create a not found error
	err := &errors.NotFoundError{
		Resource: "directory",
		ID:       "database/migrations",
	}

	// Check error type
	if errors.IsNotFound(err) {
		fmt.Println("Resource not found")
	}

	// Output: Resource not found
}

// Example_publishError shows how per-file copy failures surface from a publish run.
func Example_publishError() {
	err := errors.NewPublishError("rinvex/subscriptions::config", []error{
		errors.NewIOError("copy", "config/rinvex.subscriptions.yaml", errors.New("permission denied")),
	})

	var ioErr *errors.IOError
	if errors.IsPublishFailed(err) && errors.As(err, &ioErr) {
		fmt.Printf("could not %s %s\n", ioErr.Operation, ioErr.Path)
	}

	// Output: could not copy config/rinvex.subscriptions.yaml
}
