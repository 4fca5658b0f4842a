package application

import "context"

// UseCase is the single-method contract every application service exposes.
// Ports that depend on another use case are declared in these terms.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}
