package types

import (
	"encoding/json"
	"fmt"
)

// ConfigValidator checks a raw connector configuration document before a
// rebalance pass distributes it to workers.
//
// Validation is a black box to the core: a non-nil error aborts the current
// rebalance pass as a hard failure (a malformed document will not fix itself;
// the leader retries naturally on the next config change event).
type ConfigValidator func(raw string) error

// JSONConfigValidator is the default validator: it accepts any well-formed
// JSON object. Deployments inject their real connector-config parser instead.
func JSONConfigValidator(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty document", ErrInvalidConfigDocument)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfigDocument, err)
	}

	return nil
}
