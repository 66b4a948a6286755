package service

// Service is a long-running component. Start blocks until the service stops
// or fails; Stop asks a running service to return from Start.
type Service interface {
	Start() error
	Stop() error
}
