package common

const (
	// SessionCookieName is the cookie that carries the signed session token.
	SessionCookieName = "cvewatch_session"

	// NotAvailable is stored in place of any vulnerability field that could
	// not be extracted from the upstream record.
	NotAvailable = "N/A"
)
