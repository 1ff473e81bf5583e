package diagnosis

import "context"

// ModelGateway sends a prompt to a vision language model and returns its raw text.
// Implementations make exactly one call and never retry.
type ModelGateway interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// RawOutputArchive keeps model output that could not be turned into a result.
type RawOutputArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
