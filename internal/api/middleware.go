package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the current API envelope schema version. Bump only on
// breaking changes to the envelope shape itself.
const EnvelopeVersion = 1

// APIEnvelope wraps every API response in a consistent structure.
// Viewers key off Success before touching Data.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps detailed errors that carry a machine-readable code.
type APIErrorEnvelope struct { //nolint:revive
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma response transformer that wraps all outgoing
// bodies in the versioned envelope. Errors with a code become an
// APIErrorEnvelope; everything else becomes an APIEnvelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok && apiErr.Code != "" {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if err, ok := v.(error); ok {
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	// Status strings are the three-digit code as text. Anything under 400
	// with a body is a success payload.
	success := len(status) == 3 && status[0] < '4'

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: success,
		Data:    v,
	}, nil
}
