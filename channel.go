package rubybridge

import "context"

// ResponseKind selects which interpreter responses a request waits for.
type ResponseKind string

const (
	ResponseExecuteResult ResponseKind = "execute_result" // inspect of the statement value
	ResponseStream        ResponseKind = "stream"         // captured stdout/stderr text
	ResponseError         ResponseKind = "error"          // raised exception
)

// Request is one piece of code submitted to the interpreter.
type Request struct {
	Code string
	// Expect lists acceptable response kinds. Error responses always match.
	Expect []ResponseKind
	// Stream narrows stream responses to one stream name ("stdout", "stderr").
	Stream string
}

// Wants reports whether resp satisfies the request.
func (r Request) Wants(resp *Response) bool {
	if resp == nil {
		return false
	}
	if resp.Kind == ResponseError {
		return true
	}
	for _, k := range r.Expect {
		if k != resp.Kind {
			continue
		}
		if k == ResponseStream && r.Stream != "" && resp.Stream != r.Stream {
			continue
		}
		return true
	}
	return false
}

// Response is the first matching reply to a Request.
type Response struct {
	Kind     ResponseKind
	Stream   string
	Text     string
	ErrName  string
	ErrValue string
}

// Failed reports whether the interpreter raised while evaluating the request.
func (r *Response) Failed() bool {
	return r != nil && r.Kind == ResponseError
}

// Channel submits code to the target interpreter.
type Channel interface {
	// Evaluate blocks until a response matching req arrives or ctx is done.
	// A returned error is a transport failure; interpreter exceptions come
	// back as a Response of kind ResponseError.
	Evaluate(ctx context.Context, req Request) (*Response, error)
	Close() error
}
