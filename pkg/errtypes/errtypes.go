// Package errtypes contains definitons for the common error kinds raised
// while dispatching transfer operations. Every kind carries a marker
// interface so callers can classify a wrapped error without depending on
// the concrete type.
package errtypes

// NotFound is the error to use when a job or a job field is not known
// to the backend transfer service.
type NotFound string

func (e NotFound) Error() string { return "error: not found: " + string(e) }

// IsNotFound implements the IsNotFound interface.
func (e NotFound) IsNotFound() {}

// BadRequest is the error to use on invalid input or invalid service
// configuration: an unknown destination, an unknown service kind or a
// malformed endpoint URL.
type BadRequest string

func (e BadRequest) Error() string { return "error: bad request: " + string(e) }

// IsBadRequest implements the IsBadRequest interface.
func (e BadRequest) IsBadRequest() {}

// InvalidCredentials is the error to use when receiving missing or
// invalid credentials.
type InvalidCredentials string

func (e InvalidCredentials) Error() string { return "error: invalid credentials: " + string(e) }

// IsInvalidCredentials implements the IsInvalidCredentials interface.
func (e InvalidCredentials) IsInvalidCredentials() {}

// CredentialsExpired is the error to use when the supplied credentials
// are expired and the caller must re-delegate before retrying.
type CredentialsExpired string

func (e CredentialsExpired) Error() string { return "error: credentials expired: " + string(e) }

// IsCredentialsExpired implements the IsCredentialsExpired interface.
func (e CredentialsExpired) IsCredentialsExpired() {}

// PermissionDenied is the error to use when the backend denies the
// requested operation to the caller.
type PermissionDenied string

func (e PermissionDenied) Error() string { return "error: permission denied: " + string(e) }

// IsPermissionDenied implements the IsPermissionDenied interface.
func (e PermissionDenied) IsPermissionDenied() {}

// PartiallyFailed is the error to use when the backend reports a
// transfer job in a failed or partially failed terminal state. It is
// not a pure failure: the job's own terminal info travels with it.
type PartiallyFailed string

func (e PartiallyFailed) Error() string { return "error: transfer error: " + string(e) }

// IsPartiallyFailed implements the IsPartiallyFailed interface.
func (e PartiallyFailed) IsPartiallyFailed() {}

// BadGateway is the error to use when the backend transfer service
// misbehaves: unreachable, timed out or answering outside its protocol.
type BadGateway string

func (e BadGateway) Error() string { return "error: bad gateway: " + string(e) }

// IsBadGateway implements the IsBadGateway interface.
func (e BadGateway) IsBadGateway() {}

// InternalError is the error to use for unexpected local failures.
type InternalError string

func (e InternalError) Error() string { return "internal error: " + string(e) }

// IsInternalError implements the IsInternalError interface.
func (e InternalError) IsInternalError() {}

// IsNotFound is the interface to implement
// to specify that a job or field is not found.
type IsNotFound interface {
	IsNotFound()
}

// IsBadRequest is the interface to implement
// to specify that the request or the configuration is invalid.
type IsBadRequest interface {
	IsBadRequest()
}

// IsInvalidCredentials is the interface to implement
// to specify that credentials were missing or wrong.
type IsInvalidCredentials interface {
	IsInvalidCredentials()
}

// IsCredentialsExpired is the interface to implement
// to specify that credentials are expired and need re-delegation.
type IsCredentialsExpired interface {
	IsCredentialsExpired()
}

// IsPermissionDenied is the interface to implement
// to specify that an operation was denied to the caller.
type IsPermissionDenied interface {
	IsPermissionDenied()
}

// IsPartiallyFailed is the interface to implement
// to specify that a transfer job ended in an error state.
type IsPartiallyFailed interface {
	IsPartiallyFailed()
}

// IsBadGateway is the interface to implement
// to specify that the backend service failed or was unreachable.
type IsBadGateway interface {
	IsBadGateway()
}

// IsInternalError is the interface to implement
// to specify an unexpected local failure.
type IsInternalError interface {
	IsInternalError()
}
