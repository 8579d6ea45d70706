package rest

import "resty.dev/v3"

// Auth injects credentials into an outgoing request. Services differ in
// where they want them (header or query string), so the strategy is chosen
// per connection.
type Auth interface {
	Apply(req *resty.Request)
}

// TokenAuth sends a token in a request header, optionally prefixed by a
// scheme (e.g. "token" for GitHub, empty for GitLab's PRIVATE-TOKEN).
type TokenAuth struct {
	Header string
	Scheme string
	Token  string
}

func (a TokenAuth) Apply(req *resty.Request) {
	value := a.Token
	if a.Scheme != "" {
		value = a.Scheme + " " + a.Token
	}
	req.SetHeader(a.Header, value)
}

// QueryAuth sends credentials as query parameters (e.g. Trello's key/token
// pair).
type QueryAuth struct {
	Params map[string]string
}

func (a QueryAuth) Apply(req *resty.Request) {
	for k, v := range a.Params {
		req.SetQueryParam(k, v)
	}
}
