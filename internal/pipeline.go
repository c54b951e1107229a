package internal

// Outcome is a stage's verdict on the request.
//
// A nil Response lets the request continue to the next stage. A
// non-nil Response stops the chain; Terminal additionally skips cookie
// encoding, for responses produced before cookie state was decoded or
// that must not carry state, such as a rate limit rejection.
type Outcome struct {
	Response *Response
	Terminal bool
}

// Proceed lets the request continue.
func Proceed() Outcome {
	return Outcome{}
}

// Complete finishes the request with a response that still gets its
// cookies encoded.
func Complete(r *Response) Outcome {
	return Outcome{Response: r}
}

// Terminate finishes the request immediately, bypassing cookie
// encoding.
func Terminate(r *Response) Outcome {
	return Outcome{Response: r, Terminal: true}
}

// Stage is one step of the request pipeline.
type Stage interface {
	// Name identifies the stage in logs.
	Name() string

	// Process inspects or mutates the context and decides whether the
	// request continues.
	Process(c *Context) Outcome
}
