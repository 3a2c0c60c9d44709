package matches

import "errors"

// ErrRefreshCooldown is returned when a manual refresh is requested again
// within the cooldown window. The caller should surface a "please wait"
// signal rather than issuing a duplicate fetch.
var ErrRefreshCooldown = errors.New("refresh requested too soon, please wait")

// SessionExpiredMessage is the user-visible error for authentication
// failures. It is distinct from transient-fetch messaging because no
// cached fallback is ever allowed on this path.
const SessionExpiredMessage = "your session has expired, please sign in again"
