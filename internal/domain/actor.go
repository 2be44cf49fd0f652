package domain

// Role of an authenticated actor.
type Role string

const (
	RoleWorker        Role = "worker"
	RoleSafetyOfficer Role = "safety_officer"
	RoleSupervisor    Role = "supervisor"
	RoleEngineer      Role = "engineer"
	RoleAdmin         Role = "admin"
	RoleMaintenance   Role = "maintenance"
	RoleLogistics     Role = "logistics"
	RoleProduction    Role = "production"
	RoleEnvironment   Role = "environment"
	// RoleSystem is used by trusted ingestion paths such as MQTT telemetry.
	RoleSystem Role = "system"
)

// Actor is the authenticated identity attached to every call.
type Actor struct {
	UserID     string `json:"userId"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

// SystemActor identifies internal ingestion.
func SystemActor(name string) Actor {
	return Actor{UserID: name, Role: RoleSystem}
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
