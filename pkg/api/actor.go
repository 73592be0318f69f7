package api

// Actor is a named identity that may trigger steps.
//
// Actors are compared by identity: two actors with the same name are still
// different actors.
type Actor struct {
	name string
}

// NewActor creates an actor with the given name.
func NewActor(name string) *Actor {
	return &Actor{name: name}
}

// Name returns the actor's name.
func (a *Actor) Name() string {
	if a == nil {
		return ""
	}
	return a.name
}

func (a *Actor) String() string {
	return a.Name()
}

const (
	// SystemActorName is the name of every model's reserved system actor.
	SystemActorName = "SystemActor"

	// UserActorName is the name of every model's reserved default user actor.
	UserActorName = "DefaultUser"
)

func containsActor(actors []*Actor, actor *Actor) bool {
	for _, a := range actors {
		if a == actor {
			return true
		}
	}
	return false
}
