package core

// Identity identifies the author of a commit, mirroring a git commit's
// author/committer signature.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (id Identity) String() string {
	if id.Email == "" {
		return id.Name
	}
	return id.Name + " <" + id.Email + ">"
}
