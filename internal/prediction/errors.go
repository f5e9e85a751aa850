package prediction

import "errors"

var (
	// ErrMethodNotAllowed is returned for anything but POST on the predict route.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrServerConfiguration is returned when the model credential is missing.
	ErrServerConfiguration = errors.New("server configuration error: model API key not set")

	// ErrUpstream covers every failure to obtain a usable reply from the model.
	ErrUpstream = errors.New("upstream model call failed")

	// ErrInvalidOutput is returned when the model reply is not JSON or does not
	// match OutputSchema. It always travels together with ErrUpstream.
	ErrInvalidOutput = errors.New("model output does not match schema")
)
