package ai

import "fmt"

// NewCallSettings constructs a CallSettings instance and returns an
// InvalidArgumentError for values that are clearly out of range.
func NewCallSettings(temperature *float64, maxTokens *int) (*CallSettings, error) {
	if temperature != nil {
		if *temperature < 0 || *temperature > 2 {
			return nil, &InvalidArgumentError{
				Parameter: "temperature",
				Value:     *temperature,
				Message:   "must be between 0 and 2",
			}
		}
	}
	if maxTokens != nil {
		if *maxTokens <= 0 {
			return nil, &InvalidArgumentError{
				Parameter: "maxTokens",
				Value:     *maxTokens,
				Message:   "must be greater than 0",
			}
		}
	}

	return &CallSettings{
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// MustNewCallSettings constructs CallSettings and panics if validation
// fails. It is intended for configuration validated at startup.
func MustNewCallSettings(temperature *float64, maxTokens *int) *CallSettings {
	cs, err := NewCallSettings(temperature, maxTokens)
	if err != nil {
		panic(fmt.Sprintf("ai: invalid call settings: %v", err))
	}
	return cs
}
