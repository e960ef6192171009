package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Envelope is one tagged message cut out of an inbound frame.
type Envelope struct {
	Event      Event
	Raw        json.RawMessage // account: the "data" member; market data: the whole element
	ReceivedAt time.Time
}

// DecodeError wraps a frame or payload that could not be decoded.
type DecodeError struct {
	Data []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d bytes: %v", len(e.Data), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type accountFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type marketTag struct {
	T string `json:"T"`
}

// Parse splits a frame into envelopes. Account frames are single objects;
// market data frames are arrays, although a bare object is accepted too.
// A frame that is not JSON yields a single DecodeError and no envelopes.
// An element without a tag is skipped with its own DecodeError, joined into
// the returned error, while its siblings are still returned. Tags outside
// the family set are returned as is; callers filter with Valid.
func Parse(f Family, data []byte, receivedAt time.Time) ([]Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Data: data, Err: fmt.Errorf("empty frame")}
	}

	var elems []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, &DecodeError{Data: data, Err: err}
		}
	} else {
		elems = []json.RawMessage{trimmed}
	}

	out := make([]Envelope, 0, len(elems))
	var errs []error
	for _, elem := range elems {
		env, err := parseElement(f, elem)
		if err != nil {
			errs = append(errs, &DecodeError{Data: elem, Err: err})
			continue
		}
		env.ReceivedAt = receivedAt
		out = append(out, env)
	}
	return out, errors.Join(errs...)
}

// DecodeErrors returns the number of messages err reports as malformed.
func DecodeErrors(err error) int {
	if err == nil {
		return 0
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}

func parseElement(f Family, elem json.RawMessage) (Envelope, error) {
	if f == FamilyAccount {
		var fr accountFrame
		if err := json.Unmarshal(elem, &fr); err != nil {
			return Envelope{}, err
		}
		if fr.Stream == "" {
			return Envelope{}, fmt.Errorf("missing %q member", "stream")
		}
		return Envelope{Event: Event(fr.Stream), Raw: fr.Data}, nil
	}

	var tag marketTag
	if err := json.Unmarshal(elem, &tag); err != nil {
		return Envelope{}, err
	}
	if tag.T == "" {
		return Envelope{}, fmt.Errorf("missing %q member", "T")
	}
	return Envelope{Event: Event(tag.T), Raw: elem}, nil
}

// Decode unmarshals an envelope payload into T.
func Decode[T any](env Envelope) (T, error) {
	var v T
	if err := json.Unmarshal(env.Raw, &v); err != nil {
		return v, &DecodeError{Data: env.Raw, Err: err}
	}
	return v, nil
}

// AuthResult classifies an envelope as an authorization reply.
type AuthResult int

const (
	AuthNone AuthResult = iota
	AuthAccepted
	AuthRejected
)

// Authorization inspects an envelope for the server's reply to the auth
// message. Market data reports a failed login as an error message with
// code 402 (auth failed), 404 (auth timeout) or 406 (connection limit).
func Authorization(f Family, env Envelope) AuthResult {
	switch {
	case f == FamilyAccount && env.Event == EventAuthorization:
		var data struct {
			Status string `json:"status"`
		}
		if json.Unmarshal(env.Raw, &data) != nil {
			return AuthNone
		}
		if data.Status == "authorized" {
			return AuthAccepted
		}
		return AuthRejected

	case f == FamilyMarketData && env.Event == EventSuccess:
		var msg struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(env.Raw, &msg) == nil && msg.Msg == "authenticated" {
			return AuthAccepted
		}

	case f == FamilyMarketData && env.Event == EventError:
		var msg struct {
			Code int `json:"code"`
		}
		if json.Unmarshal(env.Raw, &msg) == nil && (msg.Code == 402 || msg.Code == 404 || msg.Code == 406) {
			return AuthRejected
		}
	}
	return AuthNone
}
