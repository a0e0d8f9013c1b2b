package store

// Identity answers who is calling. Every operation that personalises a
// response or checks ownership receives one; anonymous callers use Anonymous.
type Identity interface {
	UserID() (uint, bool)
	IsStaff() bool
}

type anonymous struct{}

func (anonymous) UserID() (uint, bool) { return 0, false }
func (anonymous) IsStaff() bool        { return false }

// Anonymous is the identity of an unauthenticated caller.
func Anonymous() Identity {
	return anonymous{}
}

type userIdentity struct {
	id    uint
	staff bool
}

func (u userIdentity) UserID() (uint, bool) { return u.id, u.id != 0 }
func (u userIdentity) IsStaff() bool        { return u.staff }

// AsUser builds the identity of an authenticated account.
func AsUser(id uint, staff bool) Identity {
	return userIdentity{id: id, staff: staff}
}

func viewerID(viewer Identity) (uint, bool) {
	if viewer == nil {
		return 0, false
	}
	return viewer.UserID()
}

func requireUser(actor Identity) (uint, error) {
	id, ok := viewerID(actor)
	if !ok {
		return 0, ErrUnauthenticated
	}
	return id, nil
}

func requireStaff(actor Identity) error {
	if _, err := requireUser(actor); err != nil {
		return err
	}
	if !actor.IsStaff() {
		return ErrPermissionDenied
	}
	return nil
}
