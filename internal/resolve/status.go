package resolve

// Status is the outcome of a resolution.
type Status int

const (
	StatusOK Status = iota
	StatusError
	StatusUnknownUser
	StatusUnknownGroup
)

// Tag tokens appended to records.
const (
	TagOK           = "LDAP_OK"
	TagError        = "LDAP_ERR"
	TagUnknownUser  = "LDAP_UNK_USER"
	TagUnknownGroup = "LDAP_UNK_GROUP"
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusUnknownUser:
		return "UNKNOWN_USER"
	case StatusUnknownGroup:
		return "UNKNOWN_GROUP"
	default:
		return "INVALID"
	}
}

// Tag returns the record tag for the status.
func (s Status) Tag() string {
	switch s {
	case StatusOK:
		return TagOK
	case StatusUnknownUser:
		return TagUnknownUser
	case StatusUnknownGroup:
		return TagUnknownGroup
	default:
		return TagError
	}
}

// path is the point at which a resolution stopped.
type path int

const (
	pathBindFailed path = iota
	pathSearchFailed
	pathMissingLogin
	pathNoUser
	pathNoGroup
	pathResolved
)

func (p path) String() string {
	switch p {
	case pathBindFailed:
		return "bind_failed"
	case pathSearchFailed:
		return "search_failed"
	case pathMissingLogin:
		return "missing_login"
	case pathNoUser:
		return "no_user"
	case pathNoGroup:
		return "no_group"
	case pathResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

func classify(p path) Status {
	switch p {
	case pathResolved:
		return StatusOK
	case pathNoUser:
		return StatusUnknownUser
	case pathNoGroup:
		return StatusUnknownGroup
	default:
		return StatusError
	}
}
