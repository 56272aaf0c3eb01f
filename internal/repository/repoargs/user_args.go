package repoargs

type CreateUser struct {
	Username string
	Password string
	Guest    bool
}
