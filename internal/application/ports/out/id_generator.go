package out

type IDGenerator interface {
	NewID() string
}
