package interfaces

// Service interface defines the methods every interface exposed by the
// daemon must be compliant with.
type Service interface {
	Start() error
	Stop()
}
