package domain

// Role is one of the three partitions a person reference can appear under.
type Role string

// Role partitions of a film document.
const (
	RoleActor    Role = "actor"
	RoleDirector Role = "director"
	RoleWriter   Role = "writer"
)

// Roles returns the role partitions in their canonical lookup order.
func Roles() []Role {
	return []Role{RoleActor, RoleDirector, RoleWriter}
}

// Person is a sub-entity resolved out of the denormalized film documents.
// Role is empty when the lookup path does not attribute one.
type Person struct {
	UUID     string `json:"uuid"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role,omitempty"`
}
