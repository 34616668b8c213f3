package cmd

import (
	"fmt"

	"github.com/dukex/automations/pkg/forms"
)

// NewFormProvider loads the forms snapshot file. An empty path yields a provider
// without forms.
func NewFormProvider(path string) forms.Provider {
	if path == "" {
		return forms.NewStatic()
	}

	provider, err := forms.LoadFile(path)
	if err != nil {
		panic(fmt.Errorf("failed to load forms: %w", err))
	}

	return provider
}
