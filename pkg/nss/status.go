package nss

// Status is the return status reported by a plugin entry point.
type Status int32

const (
	StatusTryAgain Status = -2
	StatusUnavail  Status = -1
	StatusNotFound Status = 0
	StatusSuccess  Status = 1
	StatusReturn   Status = 2
)

// statusFromCode decodes a native return value. Anything outside the known
// range normalizes to StatusUnavail.
func statusFromCode(code int32) Status {
	switch Status(code) {
	case StatusTryAgain, StatusUnavail, StatusNotFound, StatusSuccess, StatusReturn:
		return Status(code)
	default:
		return StatusUnavail
	}
}

func (s Status) String() string {
	switch s {
	case StatusTryAgain:
		return "tryagain"
	case StatusUnavail:
		return "unavail"
	case StatusNotFound:
		return "notfound"
	case StatusSuccess:
		return "success"
	case StatusReturn:
		return "return"
	default:
		return "unknown"
	}
}
