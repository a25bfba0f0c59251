package shared

// Actor is the pre-checked identity performing an operation. Permission
// evaluation happens at the transport boundary; core services only use the
// actor ID for audit trails.
type Actor struct {
	ID          int64
	Name        string
	permissions map[string]struct{}
}

// NewActor builds an actor carrying an explicit permission set.
func NewActor(id int64, name string, permissions ...string) *Actor {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return &Actor{ID: id, Name: name, permissions: set}
}

// HasPermission reports whether the actor carries the permission code.
func (a *Actor) HasPermission(code string) bool {
	if a == nil {
		return false
	}
	_, ok := a.permissions[code]
	return ok
}
