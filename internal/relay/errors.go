package relay

import "errors"

const (
	// ErrConfiguration is returned when a required credential or setting is missing.
	ErrConfiguration = constError("missing required configuration")
	// ErrValidation is returned for user input that cannot be used as a ticker.
	ErrValidation = constError("invalid ticker")
	// ErrProvider is returned when the quote provider could not be queried or its response could not be read.
	ErrProvider = constError("quote provider request failed")
	// ErrDelivery is returned when an outbound message could not be delivered.
	ErrDelivery = constError("message delivery failed")
)

// IsConfigurationError checks if the error is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsProviderError checks if the error is a quote provider error.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProvider)
}

// IsDeliveryError checks if the error is a delivery error.
func IsDeliveryError(err error) bool {
	return errors.Is(err, ErrDelivery)
}

type constError string

func (e constError) Error() string {
	return string(e)
}
