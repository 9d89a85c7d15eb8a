package wiki

// AnonymousUserID is the user id recorded for unauthenticated changes.
const AnonymousUserID int64 = 0

// Actor is the attribution attached to every revision and redirection
// change. The store records it verbatim; it does not authenticate it.
type Actor struct {
	UserID    int64
	IPAddress string
}

// AnonymousActor returns an anonymous actor connecting from ip.
func AnonymousActor(ip string) Actor {
	return Actor{UserID: AnonymousUserID, IPAddress: ip}
}
