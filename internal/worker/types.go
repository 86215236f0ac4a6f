package worker

import "fmt"

// EntityID is the runtime-assigned entity identifier.
type EntityID int64

// ComponentID identifies one component kind across the deployment.
type ComponentID uint32

// CommandIndex selects a command within a component's command set.
type CommandIndex uint32

// RequestID correlates a command request with its response. Inbound ids are
// assigned by the runtime; outbound ids by the Connection at send time.
type RequestID uint64

// Authority is the local process's write permission for a component instance.
type Authority uint8

const (
	NotAuthoritative Authority = iota
	Authoritative
	AuthorityLossImminent
)

// HasAuthority reports whether the instance may still be written and replicated.
func (a Authority) HasAuthority() bool {
	return a == Authoritative || a == AuthorityLossImminent
}

func (a Authority) String() string {
	switch a {
	case NotAuthoritative:
		return "not_authoritative"
	case Authoritative:
		return "authoritative"
	case AuthorityLossImminent:
		return "authority_loss_imminent"
	default:
		return fmt.Sprintf("authority(%d)", uint8(a))
	}
}

// StatusCode is the outcome carried by a command response.
type StatusCode uint8

const (
	StatusSuccess StatusCode = iota + 1
	StatusTimeout
	StatusNotFound
	StatusAuthorityLost
	StatusPermissionDenied
	StatusApplicationError
	StatusInternalError
)

func (s StatusCode) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusTimeout:
		return "timeout"
	case StatusNotFound:
		return "not_found"
	case StatusAuthorityLost:
		return "authority_lost"
	case StatusPermissionDenied:
		return "permission_denied"
	case StatusApplicationError:
		return "application_error"
	case StatusInternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// LogLevel is the severity of a runtime log message op.
type LogLevel uint8

const (
	LogDebug LogLevel = iota + 1
	LogInfo
	LogWarn
	LogError
	LogFatal
)
