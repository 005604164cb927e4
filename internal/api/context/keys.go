package context

type Key string

const (
	Claims      Key = "claims"
	CurrentUser Key = "current_user"
	Params      Key = "params"
)
