/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
and in responses to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates too many connection attempts from one address.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Avatar Upload Errors
const (
	// ErrAvatarTooLarge indicates the declared avatar file size exceeded the limit.
	ErrAvatarTooLarge = 2001

	// ErrAvatarTypeInvalid indicates the avatar file name or MIME type is not allowed.
	ErrAvatarTypeInvalid = 2002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000

	// ErrStorageUnavailable indicates avatar storage is not configured on this deployment.
	ErrStorageUnavailable = 5001

	// ErrStorageFailed indicates the storage backend rejected an operation.
	ErrStorageFailed = 5002
)
